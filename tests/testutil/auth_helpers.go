package testutil

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/middleware"
)

// TestJWTSecret signs session tokens in tests
const TestJWTSecret = "xdecor-test-secret"

// UIDHeader names the caller in requests handled by HeaderAuth
const UIDHeader = "X-Test-UID"

// EmailHeader carries the caller's email for HeaderAuth
const EmailHeader = "X-Test-Email"

// SetMockAuthContext sets up the context exactly as the real token middleware does
func SetMockAuthContext(c *gin.Context, identity middleware.Identity) {
	c.Set("user_id", identity.UID)
	c.Set("identity", identity)
	c.Set("access_token", "test-token-"+identity.UID)
}

// HeaderAuth is a stand-in for EnsureValidToken that trusts the X-Test-UID
// and X-Test-Email headers. Requests without X-Test-UID get a 401.
func HeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(UIDHeader)
		if uid == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		SetMockAuthContext(c, middleware.Identity{UID: uid, Email: c.GetHeader(EmailHeader)})
		c.Next()
	}
}

// SessionToken issues a session token signed with TestJWTSecret
func SessionToken(t *testing.T, uid, email, name string) string {
	t.Helper()

	token, err := middleware.IssueSessionToken(TestJWTSecret, middleware.Identity{
		UID:   uid,
		Email: email,
		Name:  name,
	}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue session token: %v", err)
	}
	return token
}
