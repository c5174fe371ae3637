package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/kendall-kelly/xdecor-api/events"
	"github.com/kendall-kelly/xdecor-api/metrics"
	"github.com/kendall-kelly/xdecor-api/models"
	"gorm.io/gorm"
)

// CreateBookingInput is the data a customer supplies when booking a service
type CreateBookingInput struct {
	UserName    string
	UserEmail   string
	ServiceID   string
	BookingDate string
	Location    string
}

// BookingService owns the booking lifecycle: creation, decorator assignment,
// status progression and removal
type BookingService struct {
	db        *gorm.DB
	locker    Locker
	publisher events.Publisher
	clock     func() time.Time
}

func NewBookingService(db *gorm.DB, locker Locker, publisher events.Publisher) *BookingService {
	return &BookingService{db: db, locker: locker, publisher: publisher, clock: time.Now}
}

// normalizeBookingDate accepts YYYY-MM-DD or an RFC 3339 timestamp
func normalizeBookingDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(models.BookingDateLayout, raw); err == nil {
		return d.Format(models.BookingDateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(models.BookingDateLayout), nil
	}
	return "", NewValidationError("INVALID_BOOKING_DATE", "bookingDate must be a date in YYYY-MM-DD format")
}

// CreateBooking books a catalog service for a customer. The service name, type
// and price are copied onto the booking.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if strings.TrimSpace(in.UserEmail) == "" {
		return nil, NewValidationError("MISSING_USER_EMAIL", "userEmail is required")
	}
	if strings.TrimSpace(in.ServiceID) == "" {
		return nil, NewValidationError("MISSING_SERVICE_ID", "serviceId is required")
	}
	if strings.TrimSpace(in.BookingDate) == "" {
		return nil, NewValidationError("MISSING_BOOKING_DATE", "bookingDate is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return nil, NewValidationError("MISSING_LOCATION", "location is required")
	}
	date, err := normalizeBookingDate(in.BookingDate)
	if err != nil {
		return nil, err
	}

	var service models.Service
	if err := s.db.WithContext(ctx).First(&service, "id = ?", in.ServiceID).Error; err != nil {
		return nil, notFoundOr(err, "SERVICE_NOT_FOUND", "Service not found")
	}

	booking := models.Booking{
		UserName:      strings.TrimSpace(in.UserName),
		UserEmail:     strings.TrimSpace(in.UserEmail),
		ServiceID:     service.ID,
		ServiceName:   service.ServiceName,
		ServiceType:   service.ServiceType,
		Price:         service.Price,
		BookingDate:   date,
		Location:      strings.TrimSpace(in.Location),
		Status:        models.PaymentPending,
		BookingStatus: models.BookingPending,
		AssignedTo:    models.Unassigned,
		Version:       1,
	}
	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, err
	}

	metrics.IncBookingCreated(booking.ServiceType)
	s.publish(ctx, events.BookingCreated, &booking)
	return &booking, nil
}

// GetBooking returns a booking by id
func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "BOOKING_NOT_FOUND", "Booking not found")
	}
	return &booking, nil
}

// CanView reports whether actor may read booking: its owner, an admin, or the assigned decorator
func (s *BookingService) CanView(ctx context.Context, actor Actor, booking *models.Booking) (bool, error) {
	if actor.IsAdmin() || actor.Owns(booking.UserEmail) {
		return true, nil
	}
	if actor.Role != models.RoleDecorator || !booking.IsAssigned() {
		return false, nil
	}
	return s.isAssignee(ctx, s.db, actor, booking)
}

func (s *BookingService) isAssignee(ctx context.Context, db *gorm.DB, actor Actor, booking *models.Booking) (bool, error) {
	var decorator models.Decorator
	err := db.WithContext(ctx).Where("email = ?", actor.Email).First(&decorator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return decorator.ID == booking.AssignedTo, nil
}

// AssignDecorator assigns an approved decorator to a booking, or unassigns it
// when decoratorID is "unassigned". The booking status follows the assignment.
func (s *BookingService) AssignDecorator(ctx context.Context, bookingID, decoratorID string) (*models.Booking, error) {
	decoratorID = strings.TrimSpace(decoratorID)
	if decoratorID == "" {
		return nil, NewValidationError("MISSING_ASSIGNEE", "assignedTo is required")
	}

	unlock, err := s.locker.Lock(ctx, bookingLockKey(bookingID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var booking models.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return notFoundOr(err, "BOOKING_NOT_FOUND", "Booking not found")
		}
		if booking.BookingStatus.IsCompleted() {
			return NewTransitionError("BOOKING_COMPLETED", "A completed booking cannot be reassigned")
		}

		next := models.BookingPending
		if decoratorID != models.Unassigned {
			var decorator models.Decorator
			if err := tx.First(&decorator, "id = ?", decoratorID).Error; err != nil {
				return notFoundOr(err, "DECORATOR_NOT_FOUND", "Decorator not found")
			}
			if decorator.Status != models.DecoratorApproved {
				return NewConflictError("DECORATOR_NOT_APPROVED", "Only approved decorators can be assigned")
			}
			next = models.BookingDecoratorAssigned
		}

		if booking.AssignedTo == decoratorID && booking.BookingStatus == next {
			return nil
		}

		return compareAndSwap(tx, &booking, map[string]interface{}{
			"assigned_to":    decoratorID,
			"booking_status": next,
		})
	})
	if err != nil {
		if IsKind(err, KindConflict) {
			metrics.IncAssignment("conflict")
		}
		return nil, err
	}

	if booking.IsAssigned() {
		metrics.IncAssignment("assigned")
	} else {
		metrics.IncAssignment("unassigned")
	}
	s.publish(ctx, events.BookingAssigned, &booking)
	return &booking, nil
}

// UpdateBookingStatus moves a booking along the fulfilment order. Setting the
// current status again is a no-op. Reaching Completed credits the assigned
// decorator's earnings with the booking price.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID, rawStatus string, actor Actor) (*models.Booking, error) {
	next, err := models.ParseBookingStatus(strings.TrimSpace(rawStatus))
	if err != nil {
		return nil, NewValidationError("INVALID_STATUS", err.Error())
	}

	unlock, err := s.locker.Lock(ctx, bookingLockKey(bookingID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var booking models.Booking
	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return notFoundOr(err, "BOOKING_NOT_FOUND", "Booking not found")
		}

		if !actor.IsAdmin() {
			assignee, err := s.isAssignee(ctx, tx, actor, &booking)
			if err != nil {
				return err
			}
			if !assignee {
				return NewForbiddenError("NOT_ASSIGNED_DECORATOR", "Only the assigned decorator can update this booking")
			}
		}

		if booking.BookingStatus == next {
			return nil
		}
		if !booking.IsAssigned() {
			return NewTransitionError("BOOKING_NOT_ASSIGNED", "Booking has no assigned decorator")
		}
		if !booking.BookingStatus.CanProgressTo(next) {
			return NewTransitionError("INVALID_TRANSITION",
				"Cannot move booking from '"+string(booking.BookingStatus)+"' to '"+string(next)+"'")
		}

		if err := compareAndSwap(tx, &booking, map[string]interface{}{"booking_status": next}); err != nil {
			return err
		}
		if next.IsCompleted() {
			err := tx.Model(&models.Decorator{}).
				Where("id = ?", booking.AssignedTo).
				Update("earnings", gorm.Expr("earnings + ?", booking.Price)).Error
			if err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.IncBookingTransition(string(next))
		s.publish(ctx, events.BookingStatusChanged, &booking)
	}
	return &booking, nil
}

// checkoutSessionTTL matches the gateway's default checkout expiry. A booking
// with a younger unfinalized session may still be paid.
const checkoutSessionTTL = 24 * time.Hour

// RemoveBooking deletes a booking on behalf of its owner. Paid bookings and
// bookings with a checkout in progress are kept.
func (s *BookingService) RemoveBooking(ctx context.Context, bookingID, requesterEmail string) error {
	unlock, err := s.locker.Lock(ctx, bookingLockKey(bookingID))
	if err != nil {
		return err
	}
	defer unlock()

	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		return notFoundOr(err, "BOOKING_NOT_FOUND", "Booking not found")
	}
	if !strings.EqualFold(booking.UserEmail, requesterEmail) {
		return NewForbiddenError("NOT_BOOKING_OWNER", "You can only remove your own bookings")
	}
	if booking.IsPaid() {
		return NewConflictError("BOOKING_ALREADY_PAID", "Paid bookings cannot be removed")
	}

	var pending int64
	err = s.db.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("booking_id = ? AND finalized_at IS NULL AND created_at > ?", booking.ID, s.clock().Add(-checkoutSessionTTL)).
		Count(&pending).Error
	if err != nil {
		return err
	}
	if pending > 0 {
		return NewConflictError("CHECKOUT_IN_PROGRESS", "A payment for this booking is in progress")
	}

	if err := s.db.WithContext(ctx).Delete(&booking).Error; err != nil {
		return err
	}

	s.publish(ctx, events.BookingRemoved, map[string]string{"_id": booking.ID, "userEmail": booking.UserEmail})
	return nil
}

// ListBookingsForUser returns a customer's bookings, newest first
func (s *BookingService) ListBookingsForUser(ctx context.Context, email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// ListBookingsForDecorator returns bookings assigned to a decorator, soonest first
func (s *BookingService) ListBookingsForDecorator(ctx context.Context, decoratorID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("assigned_to = ?", decoratorID).
		Order("booking_date ASC, created_at ASC").
		Find(&bookings).Error
	return bookings, err
}

// ListTodaysBookingsForDecorator returns the decorator's bookings dated today
func (s *BookingService) ListTodaysBookingsForDecorator(ctx context.Context, decoratorID string) ([]models.Booking, error) {
	today := now.New(s.clock()).BeginningOfDay().Format(models.BookingDateLayout)

	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("assigned_to = ? AND booking_date = ?", decoratorID, today).
		Order("created_at ASC").
		Find(&bookings).Error
	return bookings, err
}

// ListAllBookings returns every booking, newest first
func (s *BookingService) ListAllBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) publish(ctx context.Context, key string, data any) {
	if err := s.publisher.Publish(ctx, key, data); err != nil {
		log.Printf("warning: failed to publish %s: %v", key, err)
	}
}

// compareAndSwap writes updates only if the booking still has the version it
// was read with, then reloads it
func compareAndSwap(tx *gorm.DB, booking *models.Booking, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	result := tx.Model(&models.Booking{}).
		Where("id = ? AND version = ?", booking.ID, booking.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewConflictError("BOOKING_CONFLICT", "Booking was modified concurrently, please retry")
	}

	return tx.First(booking, "id = ?", booking.ID).Error
}
