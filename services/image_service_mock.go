package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/kendall-kelly/xdecor-api/utils"
)

// MockImageService is a mock implementation of ImageService for testing
type MockImageService struct {
	images map[string]string // image key -> original filename
	mu     sync.RWMutex

	// FailUploads makes every upload fail as if the image host were down
	FailUploads bool
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{
		images: make(map[string]string),
	}
}

// UploadImage validates the file and records it under a mock key
func (m *MockImageService) UploadImage(_ context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	if m.FailUploads {
		return "", errors.New("image host unavailable")
	}

	key := fmt.Sprintf("%s/mock_%s", imageKeyPrefix, fileHeader.Filename)

	m.mu.Lock()
	m.images[key] = fileHeader.Filename
	m.mu.Unlock()

	return key, nil
}

// GetImageURL returns a mock URL for a stored image
func (m *MockImageService) GetImageURL(_ context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	if !m.ImageExists(imageKey) {
		return "", fmt.Errorf("image not found in mock storage: %s", imageKey)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", imageKey), nil
}

// DeleteImage removes a stored image
func (m *MockImageService) DeleteImage(_ context.Context, imageKey string) error {
	m.mu.Lock()
	delete(m.images, imageKey)
	m.mu.Unlock()
	return nil
}

// ImageExists checks if an image exists in mock storage
func (m *MockImageService) ImageExists(imageKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.images[imageKey]
	return exists
}
