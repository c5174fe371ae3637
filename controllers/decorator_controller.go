package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/services"
)

// ApplyDecoratorRequest represents the request body for a decorator application
type ApplyDecoratorRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	District string `json:"district"`
}

// UpdateDecoratorRequest represents the admin changes to a decorator.
// At least one field must be present.
type UpdateDecoratorRequest struct {
	Status   *string  `json:"status"`
	Earnings *float64 `json:"earnings"`
}

// ListDecorators handles GET /api/v1/decorators?email=&status=
// Admins may query everything; other users may only look up their own application.
func ListDecorators(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	email := strings.TrimSpace(c.Query("email"))
	if !actor.IsAdmin() && (email == "" || !actor.Owns(email)) {
		respondForbidden(c, "You can only view your own decorator application")
		return
	}

	filter := services.DecoratorFilter{Email: email}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseDecoratorStatus(raw)
		if err != nil {
			respondErrorCode(c, http.StatusBadRequest, "INVALID_STATUS", err.Error())
			return
		}
		filter.Status = status
	}

	list, err := registry().Decorators.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// ApplyDecorator handles POST /api/v1/decorators - submits an application for the caller
func ApplyDecorator(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req ApplyDecoratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	email := req.Email
	if email == "" {
		email = actor.Email
	}
	if !actor.IsAdmin() && !actor.Owns(email) {
		respondForbidden(c, "You can only apply with your own email")
		return
	}

	decorator, err := registry().Decorators.Apply(c.Request.Context(), services.ApplyInput{
		Name:     req.Name,
		Email:    email,
		District: req.District,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, decorator)
}

// UpdateDecorator handles PATCH /api/v1/decorators/:id (admins only)
func UpdateDecorator(c *gin.Context) {
	var req UpdateDecoratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	if req.Status == nil && req.Earnings == nil {
		respondErrorCode(c, http.StatusBadRequest, "NO_CHANGES", "Provide a status or earnings")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	var (
		decorator *models.Decorator
		err       error
	)
	if req.Status != nil {
		if decorator, err = registry().Decorators.SetStatus(ctx, id, *req.Status); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Earnings != nil {
		if decorator, err = registry().Decorators.SetEarnings(ctx, id, *req.Earnings); err != nil {
			respondError(c, err)
			return
		}
	}
	respondOK(c, http.StatusOK, decorator)
}

// RemoveDecorator handles DELETE /api/v1/decorators/:id (admins only)
func RemoveDecorator(c *gin.Context) {
	unassigned, err := registry().Decorators.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"deleted":            true,
		"unassignedBookings": unassigned,
	})
}
