package services

import (
	"context"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/kendall-kelly/xdecor-api/models"
	"gorm.io/gorm"
)

// ServiceDemand is the number of bookings made for one service
type ServiceDemand struct {
	ServiceName string `json:"serviceName"`
	Count       int64  `json:"count"`
}

// RevenueSummary aggregates recorded payments
type RevenueSummary struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TransactionCount  int64   `json:"transactionCount"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

// MonthlyRevenue is the revenue recorded in one calendar month
type MonthlyRevenue struct {
	Month            string  `json:"month"` // YYYY-MM
	TotalRevenue     float64 `json:"totalRevenue"`
	TransactionCount int64   `json:"transactionCount"`
}

const (
	defaultRevenueMonths = 6
	maxRevenueMonths     = 24
)

// AnalyticsService computes read-only aggregates over bookings and payments
type AnalyticsService struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db, clock: time.Now}
}

// ServiceDemand counts bookings per service name, most booked first
func (s *AnalyticsService) ServiceDemand(ctx context.Context) ([]ServiceDemand, error) {
	var rows []struct {
		ServiceName string
		Total       int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("service_name, COUNT(*) AS total").
		Group("service_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	demand := make([]ServiceDemand, 0, len(rows))
	for _, r := range rows {
		demand = append(demand, ServiceDemand{ServiceName: r.ServiceName, Count: r.Total})
	}
	sort.SliceStable(demand, func(i, j int) bool {
		if demand[i].Count != demand[j].Count {
			return demand[i].Count > demand[j].Count
		}
		return demand[i].ServiceName < demand[j].ServiceName
	})
	return demand, nil
}

// RevenueSummary totals payments, optionally for a single customer
func (s *AnalyticsService) RevenueSummary(ctx context.Context, customerEmail string) (*RevenueSummary, error) {
	query := s.db.WithContext(ctx).Model(&models.Payment{})
	if customerEmail != "" {
		query = query.Where("customer_email = ?", customerEmail)
	}

	var row struct {
		Total float64
		Count int64
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").Scan(&row).Error; err != nil {
		return nil, err
	}

	summary := &RevenueSummary{TotalRevenue: row.Total, TransactionCount: row.Count}
	if row.Count > 0 {
		summary.AverageOrderValue = row.Total / float64(row.Count)
	}
	return summary, nil
}

// MonthlyRevenue buckets payments by calendar month for the last months
// months, including the current one. Months without payments are reported as zero.
func (s *AnalyticsService) MonthlyRevenue(ctx context.Context, months int) ([]MonthlyRevenue, error) {
	if months <= 0 {
		months = defaultRevenueMonths
	}
	if months > maxRevenueMonths {
		months = maxRevenueMonths
	}

	current := now.New(s.clock()).BeginningOfMonth()
	start := current.AddDate(0, -(months - 1), 0)

	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Select("amount", "paid_at").
		Where("paid_at >= ?", start.UTC()).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	buckets := make([]MonthlyRevenue, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		buckets[i] = MonthlyRevenue{Month: key}
		index[key] = i
	}

	for _, p := range payments {
		key := now.With(p.PaidAt.In(current.Location())).BeginningOfMonth().Format("2006-01")
		if i, ok := index[key]; ok {
			buckets[i].TotalRevenue += p.Amount
			buckets[i].TransactionCount++
		}
	}
	return buckets, nil
}
