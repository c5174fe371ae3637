package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ServiceDemand handles GET /api/v1/analytics/service-demand (admins only)
func ServiceDemand(c *gin.Context) {
	demand, err := registry().Analytics.ServiceDemand(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, demand)
}

// RevenueSummary handles GET /api/v1/analytics/revenue?customerEmail=
// Admins see platform totals; everyone else sees their own spending.
func RevenueSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	email := strings.TrimSpace(c.Query("customerEmail"))
	if !actor.IsAdmin() {
		if email != "" && !actor.Owns(email) {
			respondForbidden(c, "You can only view your own revenue")
			return
		}
		email = actor.Email
	}

	summary, err := registry().Analytics.RevenueSummary(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summary)
}

// MonthlyRevenue handles GET /api/v1/analytics/revenue/monthly?months= (admins only)
func MonthlyRevenue(c *gin.Context) {
	months := 0
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondErrorCode(c, http.StatusBadRequest, "INVALID_MONTHS", "months must be a positive integer")
			return
		}
		months = parsed
	}

	buckets, err := registry().Analytics.MonthlyRevenue(c.Request.Context(), months)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, buckets)
}
