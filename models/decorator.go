package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DecoratorStatus is the approval state of a decorator application
type DecoratorStatus string

const (
	DecoratorPending  DecoratorStatus = "pending"
	DecoratorApproved DecoratorStatus = "approved"
	DecoratorRejected DecoratorStatus = "rejected"
)

// ParseDecoratorStatus converts a raw string into a DecoratorStatus
func ParseDecoratorStatus(s string) (DecoratorStatus, error) {
	switch DecoratorStatus(s) {
	case DecoratorPending, DecoratorApproved, DecoratorRejected:
		return DecoratorStatus(s), nil
	default:
		return "", fmt.Errorf("unknown decorator status: %q", s)
	}
}

// CanTransitionTo reports whether an admin may move a decorator from s to next.
// Applications never return to pending; approved and rejected may be swapped.
func (s DecoratorStatus) CanTransitionTo(next DecoratorStatus) bool {
	switch next {
	case DecoratorApproved, DecoratorRejected:
		return s == DecoratorPending || s == DecoratorApproved || s == DecoratorRejected
	default:
		return false
	}
}

// Decorator is a service provider who fulfils bookings
type Decorator struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"_id"`
	Name      string          `gorm:"not null" json:"name"`
	Email     string          `gorm:"uniqueIndex;not null" json:"email"`
	District  string          `json:"district"`
	Status    DecoratorStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Earnings  float64         `gorm:"not null;default:0" json:"earnings"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Decorator model
func (Decorator) TableName() string {
	return "decorators"
}

func (d *Decorator) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
