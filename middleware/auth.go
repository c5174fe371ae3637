package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/config"
)

// Gin context keys set by the token middlewares
const (
	userIDKey          = "user_id"
	identityKey        = "identity"
	accessTokenKey     = "access_token"
	validatedClaimsKey = "validated_claims"
)

// CustomClaims contains the profile claims issued by Firebase and Auth0 ID tokens.
type CustomClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Validate does nothing, but we need it to satisfy validator.CustomClaims interface.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Identity is the verified caller of a request
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

const invalidTokenBody = `{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`

// EnsureValidToken checks the bearer token of every request. With an identity
// issuer configured the token must be an RS256 JWT signed by the issuer's JWKS;
// otherwise it must be an HS256 session token signed with JWT_SECRET.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	if !cfg.UsesIdentityProvider() {
		return EnsureValidSessionToken(cfg.JWTSecret)
	}

	issuerURL, err := url.Parse(cfg.IssuerURL())
	if err != nil {
		log.Fatalf("Failed to parse the issuer url: %v", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.IdentityAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Encountered error while validating JWT: %v", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(invalidTokenBody)); writeErr != nil {
			log.Printf("Failed to write error response: %v", writeErr)
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		validated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			validated = true
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			identity := Identity{UID: token.RegisteredClaims.Subject}
			if claims, ok := token.CustomClaims.(*CustomClaims); ok {
				identity.Email = claims.Email
				identity.Name = claims.Name
				identity.Picture = claims.Picture
			}

			rawToken, _ := jwtmiddleware.AuthHeaderTokenExtractor(r)
			setIdentity(c, identity, rawToken)
			c.Set(validatedClaimsKey, token)

			c.Request = r
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !validated {
			c.Abort()
		}
	}
}

func setIdentity(c *gin.Context, identity Identity, rawToken string) {
	c.Set(userIDKey, identity.UID)
	c.Set(identityKey, identity)
	c.Set(accessTokenKey, rawToken)
}

// GetUserID extracts the identity provider subject from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetIdentity extracts the verified caller from the Gin context
func GetIdentity(c *gin.Context) (Identity, error) {
	value, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, &AuthError{Code: "MISSING_IDENTITY", Message: "Identity not found in context"}
	}

	identity, ok := value.(Identity)
	if !ok {
		return Identity{}, &AuthError{Code: "INVALID_IDENTITY", Message: "Identity is not in the expected format"}
	}

	return identity, nil
}

// GetAccessToken returns the raw bearer token of the request
func GetAccessToken(c *gin.Context) (string, error) {
	value, exists := c.Get(accessTokenKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_ACCESS_TOKEN", Message: "Access token not found in context"}
	}

	token, ok := value.(string)
	if !ok || token == "" {
		return "", &AuthError{Code: "INVALID_ACCESS_TOKEN", Message: "Access token is not a string"}
	}

	return token, nil
}

// GetClaims extracts the validated JWT claims from the Gin context.
// Only set for identity provider tokens.
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(validatedClaimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
