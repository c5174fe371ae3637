package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/xdecor-api/events"
	"github.com/kendall-kelly/xdecor-api/metrics"
	"github.com/kendall-kelly/xdecor-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FinalizeResult is the outcome of reconciling a checkout session
type FinalizeResult struct {
	Payment *models.Payment
	Booking *models.Booking
	// Duplicate is true when the session had already been recorded
	Duplicate bool
}

// PaymentService opens checkouts with the payment gateway and records their outcome
type PaymentService struct {
	db        *gorm.DB
	gateway   PaymentGateway
	locker    Locker
	publisher events.Publisher
	currency  string
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, locker Locker, publisher events.Publisher, currency string) *PaymentService {
	return &PaymentService{
		db:        db,
		gateway:   gateway,
		locker:    locker,
		publisher: publisher,
		currency:  strings.ToLower(currency),
	}
}

// InitiateCheckout opens a gateway checkout for the booking's price. Only the
// booking's owner may pay for it.
func (s *PaymentService) InitiateCheckout(ctx context.Context, bookingID string, actor Actor) (*models.CheckoutSession, error) {
	if strings.TrimSpace(bookingID) == "" {
		return nil, NewValidationError("MISSING_BOOKING_ID", "booking id is required")
	}

	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, notFoundOr(err, "BOOKING_NOT_FOUND", "Booking not found")
	}
	if !actor.Owns(booking.UserEmail) {
		return nil, NewForbiddenError("NOT_BOOKING_OWNER", "You can only pay for your own bookings")
	}
	if booking.IsPaid() {
		return nil, NewConflictError("BOOKING_ALREADY_PAID", "Booking has already been paid")
	}
	if booking.Price <= 0 {
		return nil, NewValidationError("INVALID_AMOUNT", "Booking has no payable amount")
	}

	handle, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		BookingID:     booking.ID,
		CustomerEmail: booking.UserEmail,
		ItemName:      booking.ServiceName,
		Amount:        booking.Price,
		Currency:      s.currency,
	})
	if err != nil {
		return nil, NewUpstreamError("PAYMENT_GATEWAY_ERROR", "Failed to create checkout session", err)
	}

	checkout := models.CheckoutSession{
		SessionID:     handle.SessionID,
		BookingID:     booking.ID,
		CustomerEmail: booking.UserEmail,
		Amount:        booking.Price,
		Currency:      s.currency,
		RedirectURL:   handle.RedirectURL,
	}
	if err := s.db.WithContext(ctx).Create(&checkout).Error; err != nil {
		return nil, err
	}

	metrics.IncCheckoutInitiated()
	return &checkout, nil
}

// FinalizeCheckout records the payment for a completed checkout session and
// marks its booking paid. Calling it again for the same session returns the
// stored payment with Duplicate set and changes nothing.
func (s *PaymentService) FinalizeCheckout(ctx context.Context, sessionID string) (*FinalizeResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, NewValidationError("MISSING_SESSION_ID", "session_id is required")
	}

	if result, err := s.existingResult(ctx, s.db, sessionID); err != nil || result != nil {
		return result, err
	}

	var checkout models.CheckoutSession
	if err := s.db.WithContext(ctx).First(&checkout, "session_id = ?", sessionID).Error; err != nil {
		return nil, notFoundOr(err, "CHECKOUT_SESSION_NOT_FOUND", "Checkout session not found")
	}

	gw, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, NewUpstreamError("PAYMENT_GATEWAY_ERROR", "Failed to retrieve checkout session", err)
	}
	if !gw.Paid {
		return nil, NewConflictError("PAYMENT_INCOMPLETE", "Checkout session has not been paid")
	}

	unlock, err := s.locker.Lock(ctx, bookingLockKey(checkout.BookingID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &FinalizeResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.existingResult(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		// a paid booking comes back even if its owner removed it after checkout
		var booking models.Booking
		if err := tx.Unscoped().First(&booking, "id = ?", checkout.BookingID).Error; err != nil {
			return notFoundOr(err, "BOOKING_NOT_FOUND", "Booking not found")
		}
		if booking.DeletedAt.Valid {
			if err := tx.Unscoped().Model(&booking).Update("deleted_at", nil).Error; err != nil {
				return err
			}
			booking.DeletedAt = gorm.DeletedAt{}
		}

		payment := newPayment(&checkout, &booking, gw)
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		if !booking.IsPaid() {
			if err := compareAndSwap(tx, &booking, map[string]interface{}{"status": models.PaymentPaid}); err != nil {
				return err
			}
		}

		finalizedAt := payment.PaidAt
		if err := tx.Model(&checkout).Update("finalized_at", &finalizedAt).Error; err != nil {
			return err
		}

		result.Payment = payment
		result.Booking = &booking
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			// lost a race with another instance on the unique session id
			if existing, lookupErr := s.existingResult(ctx, s.db, sessionID); lookupErr == nil && existing != nil {
				metrics.IncPaymentFinalized("duplicate")
				return existing, nil
			}
		}
		return nil, err
	}

	if result.Duplicate {
		metrics.IncPaymentFinalized("duplicate")
		return result, nil
	}

	metrics.IncPaymentFinalized("recorded")
	if err := s.publisher.Publish(ctx, events.PaymentRecorded, result.Payment); err != nil {
		log.Printf("warning: failed to publish %s: %v", events.PaymentRecorded, err)
	}
	return result, nil
}

// existingResult returns the already recorded payment for sessionID, or nil
func (s *PaymentService) existingResult(ctx context.Context, db *gorm.DB, sessionID string) (*FinalizeResult, error) {
	var payment models.Payment
	err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{Payment: &payment, Duplicate: true}
	var booking models.Booking
	if err := db.WithContext(ctx).Unscoped().First(&booking, "id = ?", payment.BookingID).Error; err == nil {
		result.Booking = &booking
	}
	return result, nil
}

func newPayment(checkout *models.CheckoutSession, booking *models.Booking, gw *SessionResult) *models.Payment {
	amount := gw.Amount
	if amount <= 0 {
		amount = checkout.Amount
	}
	currency := gw.Currency
	if currency == "" {
		currency = checkout.Currency
	}
	email := gw.CustomerEmail
	if email == "" {
		email = checkout.CustomerEmail
	}

	return &models.Payment{
		SessionID:      checkout.SessionID,
		TransactionID:  gw.TransactionID,
		BookingID:      booking.ID,
		CustomerEmail:  email,
		ParcelName:     booking.ServiceName,
		Amount:         amount,
		Currency:       currency,
		PaymentStatus:  gw.PaymentStatus,
		PaidAt:         time.Now().UTC(),
		TrackingID:     newTrackingID(),
		GatewayPayload: datatypes.JSON(gw.Raw),
	}
}

func newTrackingID() string {
	return "XD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// ListPayments returns payments, newest first. An empty customerEmail lists everyone's.
func (s *PaymentService) ListPayments(ctx context.Context, customerEmail string) ([]models.Payment, error) {
	query := s.db.WithContext(ctx).Model(&models.Payment{})
	if customerEmail != "" {
		query = query.Where("customer_email = ?", customerEmail)
	}

	var payments []models.Payment
	err := query.Order("paid_at DESC").Find(&payments).Error
	return payments, err
}
