package services

import (
	"context"
	"log"
	"mime/multipart"
	"strings"

	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/utils"
	"gorm.io/gorm"
)

// ServiceInput is the editable part of a catalog service
type ServiceInput struct {
	ServiceName string
	ServiceType string
	Price       float64
	Description string
	Image       string
}

func (in ServiceInput) validate() error {
	if strings.TrimSpace(in.ServiceName) == "" {
		return NewValidationError("MISSING_SERVICE_NAME", "serviceName is required")
	}
	if in.Price < 0 {
		return NewValidationError("INVALID_PRICE", "price cannot be negative")
	}
	return nil
}

// CatalogService manages the decoration services on offer
type CatalogService struct {
	db     *gorm.DB
	images ImageService
}

// NewCatalogService creates a catalog. images may be nil when no image host is configured.
func NewCatalogService(db *gorm.DB, images ImageService) *CatalogService {
	return &CatalogService{db: db, images: images}
}

// List returns services, optionally of one serviceType, by name
func (s *CatalogService) List(ctx context.Context, serviceType string) ([]models.Service, error) {
	query := s.db.WithContext(ctx).Model(&models.Service{})
	if serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}

	var list []models.Service
	if err := query.Order("service_name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		s.resolveImage(ctx, &list[i])
	}
	return list, nil
}

// Get returns one service by id
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	if err := s.db.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "SERVICE_NOT_FOUND", "Service not found")
	}
	s.resolveImage(ctx, &service)
	return &service, nil
}

func (s *CatalogService) Create(ctx context.Context, in ServiceInput) (*models.Service, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	service := models.Service{
		ServiceName: strings.TrimSpace(in.ServiceName),
		ServiceType: strings.TrimSpace(in.ServiceType),
		Price:       in.Price,
		Description: in.Description,
		Image:       in.Image,
	}
	if err := s.db.WithContext(ctx).Create(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

// Update replaces the editable fields of a service. Bookings keep the
// name and price they were made with.
func (s *CatalogService) Update(ctx context.Context, id string, in ServiceInput) (*models.Service, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var service models.Service
	if err := s.db.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "SERVICE_NOT_FOUND", "Service not found")
	}

	err := s.db.WithContext(ctx).Model(&service).Updates(map[string]interface{}{
		"service_name": strings.TrimSpace(in.ServiceName),
		"service_type": strings.TrimSpace(in.ServiceType),
		"price":        in.Price,
		"description":  in.Description,
		"image":        in.Image,
	}).Error
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes a service and its uploaded image
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	var service models.Service
	if err := s.db.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return notFoundOr(err, "SERVICE_NOT_FOUND", "Service not found")
	}
	if err := s.db.WithContext(ctx).Delete(&service).Error; err != nil {
		return err
	}

	if service.ImageKey != nil && s.images != nil {
		if err := s.images.DeleteImage(ctx, *service.ImageKey); err != nil {
			log.Printf("warning: failed to delete image %s: %v", *service.ImageKey, err)
		}
	}
	return nil
}

// AttachImage uploads an image for a service, replacing any previous upload
func (s *CatalogService) AttachImage(ctx context.Context, id string, fileHeader *multipart.FileHeader) (*models.Service, error) {
	if s.images == nil {
		return nil, NewUpstreamError("IMAGE_HOST_UNAVAILABLE", "Image uploads are not configured", nil)
	}

	var service models.Service
	if err := s.db.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "SERVICE_NOT_FOUND", "Service not found")
	}

	key, err := s.images.UploadImage(ctx, fileHeader)
	if err != nil {
		if fileErr, ok := err.(*utils.FileUploadError); ok {
			return nil, NewValidationError(fileErr.Code, fileErr.Message)
		}
		return nil, NewUpstreamError("IMAGE_UPLOAD_FAILED", "Failed to upload image", err)
	}

	var previous string
	if service.ImageKey != nil {
		previous = *service.ImageKey
	}
	if err := s.db.WithContext(ctx).Model(&service).Update("image_key", key).Error; err != nil {
		return nil, err
	}
	if previous != "" && previous != key {
		if err := s.images.DeleteImage(ctx, previous); err != nil {
			log.Printf("warning: failed to delete image %s: %v", previous, err)
		}
	}

	return s.Get(ctx, id)
}

// resolveImage points Image at the image host when the service has an uploaded image
func (s *CatalogService) resolveImage(ctx context.Context, service *models.Service) {
	if service.ImageKey == nil || *service.ImageKey == "" || s.images == nil {
		return
	}
	url, err := s.images.GetImageURL(ctx, *service.ImageKey)
	if err != nil {
		log.Printf("Warning: Failed to generate image URL for service %s: %v", service.ID, err)
		return
	}
	service.Image = url
}
