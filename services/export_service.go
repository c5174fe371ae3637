package services

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// BookingsSheet is the worksheet name of the bookings export
const BookingsSheet = "Bookings"

var bookingColumns = []string{
	"Booking ID", "Customer", "Email", "Service", "Type", "Price",
	"Date", "Location", "Payment", "Status", "Decorator", "Created",
}

// ExportService renders spreadsheets for administrators
type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// BookingsWorkbook writes every booking, soonest date first, to an XLSX workbook.
// Assigned decorators are shown by name.
func (s *ExportService) BookingsWorkbook(ctx context.Context) (*bytes.Buffer, error) {
	var bookings []models.Booking
	if err := s.db.WithContext(ctx).Order("booking_date ASC, created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}

	var decorators []models.Decorator
	if err := s.db.WithContext(ctx).Unscoped().Find(&decorators).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(decorators))
	for _, d := range decorators {
		names[d.ID] = d.Name
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("warning: failed to close workbook: %v", err)
		}
	}()

	index, err := f.NewSheet(BookingsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}

	for i, title := range bookingColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(BookingsSheet, cell, title); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(bookingColumns), 1)
	if err := f.SetCellStyle(BookingsSheet, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	for r, b := range bookings {
		decorator := ""
		if b.IsAssigned() {
			decorator = names[b.AssignedTo]
		}
		values := []interface{}{
			b.ID, b.UserName, b.UserEmail, b.ServiceName, b.ServiceType, b.Price,
			b.BookingDate, b.Location, string(b.Status), string(b.BookingStatus), decorator,
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(BookingsSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(BookingsSheet, "A", "L", 20); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf, nil
}
