package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/services"
)

// ServiceRequest represents the request body for creating or updating a service
type ServiceRequest struct {
	ServiceName string  `json:"serviceName" binding:"required"`
	ServiceType string  `json:"serviceType"`
	Price       float64 `json:"price" binding:"gte=0"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

func (r ServiceRequest) input() services.ServiceInput {
	return services.ServiceInput{
		ServiceName: r.ServiceName,
		ServiceType: r.ServiceType,
		Price:       r.Price,
		Description: r.Description,
		Image:       r.Image,
	}
}

// ListServices handles GET /api/v1/services?type= - lists the catalog
func ListServices(c *gin.Context) {
	list, err := registry().Catalog.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// GetService handles GET /api/v1/services/:id
func GetService(c *gin.Context) {
	service, err := registry().Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, service)
}

// CreateService handles POST /api/v1/services (admins only)
func CreateService(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	service, err := registry().Catalog.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, service)
}

// UpdateService handles PUT /api/v1/services/:id (admins only)
func UpdateService(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	service, err := registry().Catalog.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, service)
}

// DeleteService handles DELETE /api/v1/services/:id (admins only)
func DeleteService(c *gin.Context) {
	if err := registry().Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// UploadServiceImage handles POST /api/v1/services/:id/image - multipart field "image"
func UploadServiceImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_IMAGE", "An image file is required in the \"image\" field")
		return
	}

	service, err := registry().Catalog.AttachImage(c.Request.Context(), c.Param("id"), fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, service)
}
