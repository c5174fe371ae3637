package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/xdecor-api/models"
	"gorm.io/gorm"
)

// UserService manages marketplace accounts
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates the account for a verified identity with the default role
func (s *UserService) Register(ctx context.Context, profile IdentityProfile) (*models.User, error) {
	if strings.TrimSpace(profile.Sub) == "" {
		return nil, NewValidationError("MISSING_SUBJECT", "identity subject is required")
	}
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return nil, NewValidationError("MISSING_EMAIL", "email is required")
	}

	user := models.User{
		UID:         profile.Sub,
		Email:       email,
		DisplayName: strings.TrimSpace(profile.Name),
		PhotoURL:    profile.Picture,
		Role:        models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, NewConflictError("USER_EXISTS", "User already exists")
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns the user with email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "USER_NOT_FOUND", "User not found")
	}
	return &user, nil
}

// GetByUID returns the user with the identity provider subject uid
func (s *UserService) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "USER_NOT_FOUND", "User not found")
	}
	return &user, nil
}

// Role returns the role of the user with email
func (s *UserService) Role(ctx context.Context, email string) (models.Role, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// UpdateProfile changes the display name and photo of a user. Empty values are left unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, email, displayName, photoURL string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(displayName); v != "" {
		updates["display_name"] = v
	}
	if v := strings.TrimSpace(photoURL); v != "" {
		updates["photo_url"] = v
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByEmail(ctx, email)
}

// SetRole changes a user's role
func (s *UserService) SetRole(ctx context.Context, email, rawRole string) (*models.User, error) {
	role, err := models.ParseRole(strings.TrimSpace(rawRole))
	if err != nil {
		return nil, NewValidationError("INVALID_ROLE", err.Error())
	}

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

// List returns every user, oldest first
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}
