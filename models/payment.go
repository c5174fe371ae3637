package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment records a completed checkout session for one booking
type Payment struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"_id"`
	SessionID      string         `gorm:"uniqueIndex;not null" json:"sessionId"` // idempotency key
	TransactionID  string         `gorm:"index" json:"transactionId"`
	BookingID      string         `gorm:"type:varchar(36);not null;index" json:"bookingId"`
	CustomerEmail  string         `gorm:"not null;index" json:"customerEmail"`
	ParcelName     string         `json:"parcelName"`
	Amount         float64        `gorm:"not null" json:"amount"`
	Currency       string         `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentStatus  string         `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	PaidAt         time.Time      `gorm:"index" json:"paidAt"`
	TrackingID     string         `gorm:"uniqueIndex;not null" json:"trackingId"`
	GatewayPayload datatypes.JSON `json:"-"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// CheckoutSession links a payment gateway session to the booking it pays for
type CheckoutSession struct {
	SessionID     string     `gorm:"primaryKey" json:"sessionId"`
	BookingID     string     `gorm:"type:varchar(36);not null;index" json:"bookingId"`
	CustomerEmail string     `gorm:"not null" json:"customerEmail"`
	Amount        float64    `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(3);not null" json:"currency"`
	RedirectURL   string     `gorm:"type:text" json:"url"`
	FinalizedAt   *time.Time `json:"finalizedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// TableName specifies the table name for the CheckoutSession model
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

// All returns every model managed by the store, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Service{},
		&Decorator{},
		&Booking{},
		&CheckoutSession{},
		&Payment{},
	}
}
