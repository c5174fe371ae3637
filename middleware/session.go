package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionIssuer is the iss claim of locally signed session tokens
const SessionIssuer = "xdecor-api"

// SessionClaims are the claims of an HS256 session token
type SessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a session token for the given identity
func IssueSessionToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is empty")
	}

	now := time.Now()
	claims := SessionClaims{
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID,
			Issuer:    SessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken verifies the signature, issuer and expiry of a session token
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(SessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// EnsureValidSessionToken authenticates requests carrying an HS256 session token
func EnsureValidSessionToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortInvalidToken(c, err)
			return
		}

		claims, err := ParseSessionToken(secret, raw)
		if err != nil {
			abortInvalidToken(c, err)
			return
		}

		setIdentity(c, Identity{
			UID:     claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		}, raw)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is missing")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

func abortInvalidToken(c *gin.Context, err error) {
	log.Printf("Encountered error while validating JWT: %v", err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INVALID_TOKEN",
			"message": "Failed to validate JWT.",
		},
	})
}
