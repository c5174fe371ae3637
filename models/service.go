package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is a decoration package offered in the catalog
type Service struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"_id"`
	ServiceName string         `gorm:"not null" json:"serviceName"`
	ServiceType string         `gorm:"index" json:"serviceType"`
	Price       float64        `gorm:"not null;check:price >= 0" json:"price"`
	Description string         `gorm:"type:text" json:"description"`
	Image       string         `json:"image"`              // public URL or image host key
	ImageKey    *string        `json:"imageKey,omitempty"` // image host key when uploaded through the API
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
