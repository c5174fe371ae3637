package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxFileSize is 5MB in bytes
const MaxFileSize = 5 * 1024 * 1024

// allowedImageTypes maps accepted extensions to their content type
var allowedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// UploadDir is where the local image store writes files. Can be overridden for testing.
var UploadDir = "./uploads"

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// AllowedExtensions returns the accepted image extensions, sorted
func AllowedExtensions() []string {
	exts := make([]string, 0, len(allowedImageTypes))
	for ext := range allowedImageTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ValidateImageFile validates the uploaded file format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	if !IsAllowedImage(fileHeader.Filename) {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedExtensions(), ", ")),
		}
	}

	return nil
}

// IsAllowedImage reports whether filename has an accepted image extension
func IsAllowedImage(filename string) bool {
	_, ok := allowedImageTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ContentTypeFor returns the content type for an accepted image filename
func ContentTypeFor(filename string) string {
	if ct, ok := allowedImageTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ImageKey builds a storage key for an uploaded image: {prefix}/{unix}_{basename}
func ImageKey(prefix, filename string) string {
	name := strings.ReplaceAll(filepath.Base(filename), " ", "_")
	return fmt.Sprintf("%s/%d_%s", prefix, time.Now().UnixNano(), name)
}

// SaveUploadedFile writes the upload under uploadDir at key and returns key
func SaveUploadedFile(fileHeader *multipart.FileHeader, uploadDir, key string) (saved string, err error) {
	fullPath := filepath.Join(uploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			fmt.Printf("warning: failed to close source file: %v\n", closeErr)
		}
	}()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return key, nil
}

// GetImageURL returns the URL path for an image served from the local store
func GetImageURL(key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/uploads/%s", key)
}
