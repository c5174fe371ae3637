package controllers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/utils"
)

// GetUploadedImage handles GET /api/v1/uploads/*key - serves images from the local image store
func GetUploadedImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	// Validate key is not empty
	if key == "" {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Security: Prevent directory traversal attacks
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || path.Clean(key) != key {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	if !utils.IsAllowedImage(key) {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_FILE_TYPE",
			"Only "+strings.Join(utils.AllowedExtensions(), ", ")+" files are supported")
		return
	}

	filePath := filepath.Join(utils.UploadDir, filepath.FromSlash(key))

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		respondErrorCode(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	c.Header("Content-Type", utils.ContentTypeFor(key))
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
