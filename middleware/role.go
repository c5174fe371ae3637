package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/models"
)

const currentUserKey = "current_user"

// UserLookup resolves the stored account of an identity provider subject
type UserLookup interface {
	GetByUID(ctx context.Context, uid string) (*models.User, error)
}

// RequireUser loads the account of the authenticated caller into the context.
// Must run after EnsureValidToken.
func RequireUser(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := GetUserID(c)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		user, err := lookup.GetByUID(c.Request.Context(), uid)
		if err != nil || user == nil {
			abortWith(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole allows the request only when the current user holds one of roles.
// Must run after RequireUser.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not loaded")
			return
		}

		if !hasRole(user.Role, roles) {
			abortWith(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action")
			return
		}
		c.Next()
	}
}

func hasRole(role models.Role, allowed []models.Role) bool {
	switch role {
	case models.RoleAdmin, models.RoleDecorator, models.RoleUser:
		for _, r := range allowed {
			if r == role {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// GetCurrentUser returns the account loaded by RequireUser
func GetCurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}

	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User is not in the expected format"}
	}
	return user, nil
}

// IsAuthError reports whether err came from a context accessor in this package
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
