package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/middleware"
	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateBookingRequest represents the request body for booking a service
type CreateBookingRequest struct {
	ServiceID   string `json:"serviceId" binding:"required"`
	BookingDate string `json:"bookingDate" binding:"required"`
	Location    string `json:"location" binding:"required"`
	UserName    string `json:"userName"`
}

// AssignDecoratorRequest represents the request body for assigning a decorator.
// "unassigned" clears the assignment.
type AssignDecoratorRequest struct {
	DecoratorID string `json:"decoratorId" binding:"required"`
}

// UpdateBookingStatusRequest represents the request body for progressing a booking
type UpdateBookingStatusRequest struct {
	BookingStatus string `json:"bookingStatus" binding:"required"`
}

// CreateBooking handles POST /api/v1/bookings - books a service for the caller
func CreateBooking(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	name := req.UserName
	if name == "" {
		name = user.DisplayName
	}

	booking, err := registry().Bookings.CreateBooking(c.Request.Context(), services.CreateBookingInput{
		UserName:    name,
		UserEmail:   user.Email,
		ServiceID:   req.ServiceID,
		BookingDate: req.BookingDate,
		Location:    req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, booking)
}

// ListBookings handles GET /api/v1/bookings?userEmail=
// Admins see every booking unless they filter by userEmail; everyone else sees their own.
func ListBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	email := strings.TrimSpace(c.Query("userEmail"))

	var (
		list []models.Booking
		err  error
	)
	switch {
	case actor.IsAdmin() && email == "":
		list, err = registry().Bookings.ListAllBookings(ctx)
	case actor.IsAdmin():
		list, err = registry().Bookings.ListBookingsForUser(ctx, email)
	case email == "" || actor.Owns(email):
		list, err = registry().Bookings.ListBookingsForUser(ctx, actor.Email)
	default:
		respondForbidden(c, "You can only view your own bookings")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// GetBooking handles GET /api/v1/bookings/:id - visible to its owner, admins and the assigned decorator
func GetBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	booking, err := registry().Bookings.GetBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	allowed, err := registry().Bookings.CanView(ctx, actor, booking)
	if err != nil {
		respondError(c, err)
		return
	}
	if !allowed {
		respondForbidden(c, "You do not have access to this booking")
		return
	}
	respondOK(c, http.StatusOK, booking)
}

// ListDecoratorBookings handles GET /api/v1/bookings/decorator/:id
func ListDecoratorBookings(c *gin.Context) {
	decoratorID, ok := authorizeDecoratorView(c)
	if !ok {
		return
	}

	list, err := registry().Bookings.ListBookingsForDecorator(c.Request.Context(), decoratorID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// ListTodaysDecoratorBookings handles GET /api/v1/bookings/decorator/:id/today
func ListTodaysDecoratorBookings(c *gin.Context) {
	decoratorID, ok := authorizeDecoratorView(c)
	if !ok {
		return
	}

	list, err := registry().Bookings.ListTodaysBookingsForDecorator(c.Request.Context(), decoratorID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// authorizeDecoratorView allows admins and the decorator themselves
func authorizeDecoratorView(c *gin.Context) (string, bool) {
	actor, ok := currentActor(c)
	if !ok {
		return "", false
	}

	decorator, err := registry().Decorators.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	if !actor.IsAdmin() && !actor.Owns(decorator.Email) {
		respondForbidden(c, "You can only view your own assignments")
		return "", false
	}
	return decorator.ID, true
}

// AssignDecorator handles PATCH /api/v1/bookings/:id/assign-decorator (admins only)
func AssignDecorator(c *gin.Context) {
	var req AssignDecoratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	booking, err := registry().Bookings.AssignDecorator(c.Request.Context(), c.Param("id"), req.DecoratorID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, booking)
}

// UpdateBookingStatus handles PATCH /api/v1/bookings/:id/status (assigned decorator or admin)
func UpdateBookingStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	booking, err := registry().Bookings.UpdateBookingStatus(c.Request.Context(), c.Param("id"), req.BookingStatus, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, booking)
}

// RemoveBooking handles DELETE /api/v1/bookings/:id (owner only)
func RemoveBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := registry().Bookings.RemoveBooking(c.Request.Context(), c.Param("id"), actor.Email); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// ExportBookings handles GET /api/v1/bookings/export (admins only) - XLSX download
func ExportBookings(c *gin.Context) {
	buf, err := registry().Export.BookingsWorkbook(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
