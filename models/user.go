package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Role is the authorization role of a user
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleDecorator Role = "decorator"
)

// ParseRole converts a raw string into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleDecorator:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User represents a marketplace account; email is the business key
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UID         string         `gorm:"uniqueIndex;not null" json:"uid"` // identity provider subject ('sub' claim)
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string         `json:"displayName"`
	PhotoURL    string         `json:"photoURL"`
	Role        Role           `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
