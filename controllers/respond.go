package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/middleware"
	"github.com/kendall-kelly/xdecor-api/services"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondError renders a service failure with the status matching its kind
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.Printf("Unexpected error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondErrorCode(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindUpstream:
		status = http.StatusBadGateway
		log.Printf("Upstream failure on %s %s: %v", c.Request.Method, c.FullPath(), err)
	case services.KindTransition:
		status = http.StatusUnprocessableEntity
	}
	respondErrorCode(c, status, svcErr.Code, svcErr.Message)
}

func respondForbidden(c *gin.Context, message string) {
	respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", message)
}

// currentActor returns the caller loaded by middleware.RequireUser.
// It writes a 401 and returns false when no user is loaded.
func currentActor(c *gin.Context) (services.Actor, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return services.Actor{}, false
	}
	return services.ActorFromUser(user), true
}

func registry() *services.Registry {
	return services.GetRegistry()
}
