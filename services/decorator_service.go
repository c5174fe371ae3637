package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/kendall-kelly/xdecor-api/events"
	"github.com/kendall-kelly/xdecor-api/metrics"
	"github.com/kendall-kelly/xdecor-api/models"
	"gorm.io/gorm"
)

// ApplyInput is a decorator application
type ApplyInput struct {
	Name     string
	Email    string
	District string
}

// DecoratorFilter narrows a decorator listing; empty fields match everything
type DecoratorFilter struct {
	Email  string
	Status models.DecoratorStatus
}

// DecoratorService manages decorator applications, approval and removal
type DecoratorService struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewDecoratorService(db *gorm.DB, publisher events.Publisher) *DecoratorService {
	return &DecoratorService{db: db, publisher: publisher}
}

// Apply records a pending decorator application. A previously removed
// decorator may apply again with the same email.
func (s *DecoratorService) Apply(ctx context.Context, in ApplyInput) (*models.Decorator, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" {
		return nil, NewValidationError("MISSING_NAME", "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewValidationError("INVALID_EMAIL", "a valid email is required")
	}

	var decorator models.Decorator
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Decorator
		err := tx.Unscoped().Where("email = ?", email).First(&existing).Error
		switch {
		case err == nil && !existing.DeletedAt.Valid:
			return NewConflictError("DECORATOR_EXISTS", "A decorator application already exists for this email")
		case err == nil:
			err := tx.Unscoped().Model(&existing).Updates(map[string]interface{}{
				"deleted_at": nil,
				"name":       name,
				"district":   strings.TrimSpace(in.District),
				"status":     models.DecoratorPending,
				"earnings":   0,
			}).Error
			if err != nil {
				return err
			}
			return tx.First(&decorator, "id = ?", existing.ID).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			decorator = models.Decorator{
				Name:     name,
				Email:    email,
				District: strings.TrimSpace(in.District),
				Status:   models.DecoratorPending,
			}
			if err := tx.Create(&decorator).Error; err != nil {
				if isDuplicateKeyError(err) {
					return NewConflictError("DECORATOR_EXISTS", "A decorator application already exists for this email")
				}
				return err
			}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.DecoratorApplied, &decorator)
	return &decorator, nil
}

// SetStatus approves or rejects a decorator and keeps the matching user's role in step.
// A decorator with bookings still in progress cannot be rejected.
func (s *DecoratorService) SetStatus(ctx context.Context, id, rawStatus string) (*models.Decorator, error) {
	next, err := models.ParseDecoratorStatus(strings.TrimSpace(rawStatus))
	if err != nil {
		return nil, NewValidationError("INVALID_STATUS", err.Error())
	}

	var decorator models.Decorator
	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&decorator, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "DECORATOR_NOT_FOUND", "Decorator not found")
		}
		if decorator.Status == next {
			return nil
		}
		if !decorator.Status.CanTransitionTo(next) {
			return NewTransitionError("INVALID_TRANSITION",
				"Cannot move decorator from '"+string(decorator.Status)+"' to '"+string(next)+"'")
		}

		if next == models.DecoratorRejected {
			var open int64
			if err := tx.Model(&models.Booking{}).
				Where("assigned_to = ? AND booking_status <> ?", decorator.ID, models.BookingCompleted).
				Count(&open).Error; err != nil {
				return err
			}
			if open > 0 {
				return NewConflictError("DECORATOR_HAS_ASSIGNMENTS",
					"Decorator still has bookings in progress, reassign them first")
			}
		}

		if err := tx.Model(&decorator).Update("status", next).Error; err != nil {
			return err
		}
		decorator.Status = next

		role := models.RoleUser
		if next == models.DecoratorApproved {
			role = models.RoleDecorator
		}
		changed = true
		return tx.Model(&models.User{}).
			Where("email = ? AND role <> ?", decorator.Email, models.RoleAdmin).
			Update("role", role).Error
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.IncDecoratorDecision(string(next))
		s.publish(ctx, events.DecoratorStatusChanged, &decorator)
	}
	return &decorator, nil
}

// SetEarnings overwrites a decorator's earnings
func (s *DecoratorService) SetEarnings(ctx context.Context, id string, earnings float64) (*models.Decorator, error) {
	if earnings < 0 {
		return nil, NewValidationError("INVALID_EARNINGS", "earnings cannot be negative")
	}

	decorator, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(decorator).Update("earnings", earnings).Error; err != nil {
		return nil, err
	}
	decorator.Earnings = earnings
	return decorator, nil
}

// Remove soft-deletes a decorator. Bookings still in progress with them go
// back to Pending and unassigned; completed bookings keep their history.
// Returns the number of bookings that were unassigned.
func (s *DecoratorService) Remove(ctx context.Context, id string) (int64, error) {
	var decorator models.Decorator
	var unassigned int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&decorator, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "DECORATOR_NOT_FOUND", "Decorator not found")
		}

		result := tx.Model(&models.Booking{}).
			Where("assigned_to = ? AND booking_status <> ?", decorator.ID, models.BookingCompleted).
			Updates(map[string]interface{}{
				"assigned_to":    models.Unassigned,
				"booking_status": models.BookingPending,
				"version":        gorm.Expr("version + 1"),
				"updated_at":     time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		unassigned = result.RowsAffected

		if err := tx.Delete(&decorator).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("email = ? AND role = ?", decorator.Email, models.RoleDecorator).
			Update("role", models.RoleUser).Error
	})
	if err != nil {
		return 0, err
	}

	s.publish(ctx, events.DecoratorRemoved, map[string]interface{}{
		"_id":                decorator.ID,
		"email":              decorator.Email,
		"unassignedBookings": unassigned,
	})
	return unassigned, nil
}

// Get returns a decorator by id
func (s *DecoratorService) Get(ctx context.Context, id string) (*models.Decorator, error) {
	var decorator models.Decorator
	if err := s.db.WithContext(ctx).First(&decorator, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "DECORATOR_NOT_FOUND", "Decorator not found")
	}
	return &decorator, nil
}

// FindByEmail returns the decorator registered with email
func (s *DecoratorService) FindByEmail(ctx context.Context, email string) (*models.Decorator, error) {
	var decorator models.Decorator
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&decorator).Error; err != nil {
		return nil, notFoundOr(err, "DECORATOR_NOT_FOUND", "Decorator not found")
	}
	return &decorator, nil
}

// List returns decorators matching filter, oldest application first
func (s *DecoratorService) List(ctx context.Context, filter DecoratorFilter) ([]models.Decorator, error) {
	query := s.db.WithContext(ctx).Model(&models.Decorator{})
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var decorators []models.Decorator
	err := query.Order("created_at ASC").Find(&decorators).Error
	return decorators, err
}

func (s *DecoratorService) ListApproved(ctx context.Context) ([]models.Decorator, error) {
	return s.List(ctx, DecoratorFilter{Status: models.DecoratorApproved})
}

func (s *DecoratorService) ListPending(ctx context.Context) ([]models.Decorator, error) {
	return s.List(ctx, DecoratorFilter{Status: models.DecoratorPending})
}

func (s *DecoratorService) publish(ctx context.Context, key string, data any) {
	if err := s.publisher.Publish(ctx, key, data); err != nil {
		log.Printf("warning: failed to publish %s: %v", key, err)
	}
}
