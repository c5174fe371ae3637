package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/kendall-kelly/xdecor-api/utils"
)

// imageKeyPrefix is the folder catalog images are stored under
const imageKeyPrefix = "services"

// ImageService is the image host for catalog pictures
type ImageService interface {
	// UploadImage validates and stores an image file, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3 S3Interface
}

func NewS3ImageService(s3 S3Interface) *S3ImageService {
	return &S3ImageService{s3: s3}
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	key := utils.ImageKey(imageKeyPrefix, fileHeader.Filename)
	if err := s.s3.PutObject(ctx, key, utils.ContentTypeFor(fileHeader.Filename), file); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return key, nil
}

// GetImageURL generates a presigned URL for accessing an image
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3.DeleteObject(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// LocalImageService stores images on disk and serves them under /api/v1/uploads
type LocalImageService struct {
	dir string
}

func NewLocalImageService(dir string) *LocalImageService {
	return &LocalImageService{dir: dir}
}

// Dir is the directory images are written to
func (s *LocalImageService) Dir() string {
	return s.dir
}

func (s *LocalImageService) UploadImage(_ context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key, err := utils.SaveUploadedFile(fileHeader, s.dir, utils.ImageKey(imageKeyPrefix, fileHeader.Filename))
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

func (s *LocalImageService) GetImageURL(_ context.Context, imageKey string) (string, error) {
	return utils.GetImageURL(imageKey), nil
}

func (s *LocalImageService) DeleteImage(_ context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(imageKey)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
