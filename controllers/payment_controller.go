package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutSessionRequest represents the request body for starting a payment
type CreateCheckoutSessionRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
}

// CreateCheckoutSession handles POST /api/v1/create-checkout-session - opens a
// gateway checkout for one of the caller's bookings
func CreateCheckoutSession(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	checkout, err := registry().Payments.InitiateCheckout(c.Request.Context(), req.BookingID, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{
		"sessionId": checkout.SessionID,
		"url":       checkout.RedirectURL,
	})
}

// PaymentSuccess handles PATCH /api/v1/payment-success?session_id= - records the
// payment of a completed checkout. Repeated calls return the stored payment.
func PaymentSuccess(c *gin.Context) {
	result, err := registry().Payments.FinalizeCheckout(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"duplicate":     result.Duplicate,
		"transactionId": result.Payment.TransactionID,
		"trackingId":    result.Payment.TrackingID,
		"payment":       result.Payment,
		"booking":       result.Booking,
	})
}

// ListPayments handles GET /api/v1/payments?customerEmail=
// Admins may list anyone's payments; everyone else sees their own.
func ListPayments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	email := strings.TrimSpace(c.Query("customerEmail"))
	if !actor.IsAdmin() {
		if email != "" && !actor.Owns(email) {
			respondForbidden(c, "You can only view your own payments")
			return
		}
		email = actor.Email
	}

	payments, err := registry().Payments.ListPayments(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, payments)
}
