package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unassigned is the assignedTo sentinel for bookings without a decorator
const Unassigned = "unassigned"

// BookingDateLayout is the calendar date format used for bookingDate
const BookingDateLayout = "2006-01-02"

// PaymentState is the payment side of a booking
type PaymentState string

const (
	PaymentPending PaymentState = "Pending"
	PaymentPaid    PaymentState = "paid"
)

// BookingStatus is the fulfilment progress of a booking
type BookingStatus string

const (
	BookingPending           BookingStatus = "Pending"
	BookingDecoratorAssigned BookingStatus = "Decorator Assigned"
	BookingAssigned          BookingStatus = "Assigned"
	BookingPlanningPhase     BookingStatus = "Planning Phase"
	BookingMaterialsPrepared BookingStatus = "Materials Prepared"
	BookingOnTheWayToVenue   BookingStatus = "On the Way to Venue"
	BookingSetupInProgress   BookingStatus = "Setup in Progress"
	BookingCompleted         BookingStatus = "Completed"
)

// bookingProgression is the documented fulfilment order
var bookingProgression = []BookingStatus{
	BookingPending,
	BookingDecoratorAssigned,
	BookingAssigned,
	BookingPlanningPhase,
	BookingMaterialsPrepared,
	BookingOnTheWayToVenue,
	BookingSetupInProgress,
	BookingCompleted,
}

// ParseBookingStatus converts a raw string into a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	for _, st := range bookingProgression {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown booking status: %q", s)
}

// AllBookingStatuses returns every booking status in fulfilment order
func AllBookingStatuses() []BookingStatus {
	out := make([]BookingStatus, len(bookingProgression))
	copy(out, bookingProgression)
	return out
}

func (s BookingStatus) rank() int {
	for i, st := range bookingProgression {
		if st == s {
			return i
		}
	}
	return -1
}

// IsAssignmentOwned reports whether the status is only set by decorator assignment
func (s BookingStatus) IsAssignmentOwned() bool {
	return s == BookingPending || s == BookingDecoratorAssigned
}

// IsCompleted reports whether the booking is finished
func (s BookingStatus) IsCompleted() bool {
	return s == BookingCompleted
}

// CanProgressTo reports whether a status update may move a booking from s to next.
// Progress is forward-only along the documented order and may skip stages.
// Pending and Decorator Assigned are set by assignment, never by a status update,
// and nothing moves out of Completed.
func (s BookingStatus) CanProgressTo(next BookingStatus) bool {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	if s == BookingPending || s.IsCompleted() || next.IsAssignmentOwned() {
		return false
	}
	return to > from
}

// Booking is a scheduled service request linking a user, a service and optionally a decorator
type Booking struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"_id"`
	UserName      string         `json:"userName"`
	UserEmail     string         `gorm:"not null;index" json:"userEmail"`
	ServiceID     string         `gorm:"type:varchar(36);not null;index" json:"serviceId"`
	ServiceName   string         `gorm:"not null;index" json:"serviceName"`
	ServiceType   string         `json:"serviceType"`
	Price         float64        `gorm:"not null" json:"price"`
	BookingDate   string         `gorm:"type:varchar(10);not null;index" json:"bookingDate"`
	Location      string         `gorm:"not null" json:"location"`
	Status        PaymentState   `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	BookingStatus BookingStatus  `gorm:"type:varchar(32);not null;default:'Pending'" json:"bookingStatus"`
	AssignedTo    string         `gorm:"type:varchar(36);not null;default:'unassigned';index" json:"assignedTo"`
	Version       int            `gorm:"not null;default:1" json:"version"` // compare-and-swap guard
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// IsAssigned reports whether a decorator is assigned
func (b *Booking) IsAssigned() bool {
	return b.AssignedTo != "" && b.AssignedTo != Unassigned
}

// IsPaid reports whether the booking has a recorded payment
func (b *Booking) IsPaid() bool {
	return b.Status == PaymentPaid
}
