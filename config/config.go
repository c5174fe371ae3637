package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
	Port        string `envconfig:"PORT" default:"8080"`
	GoEnv       string `envconfig:"GO_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Identity provider. When IdentityIssuer is set, tokens are RS256 JWTs
	// verified against the issuer's JWKS (Firebase securetoken or Auth0).
	// Otherwise tokens are HS256 session tokens signed with JWTSecret.
	IdentityIssuer   string `envconfig:"IDENTITY_ISSUER"`
	IdentityAudience string `envconfig:"IDENTITY_AUDIENCE"`
	JWTSecret        string `envconfig:"JWT_SECRET"`

	AWSRegion          string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSS3Bucket        string `envconfig:"AWS_S3_BUCKET"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	PaymentCurrency string `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	FrontendBaseURL string `envconfig:"FRONTEND_BASE_URL" default:"http://localhost:5173"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"xdecor.events"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Deployed environments set variables directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	current = cfg
	return cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IdentityIssuer == "" && c.JWTSecret == "" {
		return fmt.Errorf("either IDENTITY_ISSUER or JWT_SECRET is required")
	}
	if c.IdentityIssuer != "" && c.IdentityAudience == "" {
		return fmt.Errorf("IDENTITY_AUDIENCE is required when IDENTITY_ISSUER is set")
	}
	if c.IsProduction() && c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetDatabaseURL returns the database URL
func (c *Config) GetDatabaseURL() string {
	return c.DatabaseURL
}

// UsesIdentityProvider reports whether tokens come from an external OIDC issuer.
func (c *Config) UsesIdentityProvider() bool {
	return c.IdentityIssuer != ""
}

// IssuerURL returns the identity issuer as an absolute URL.
// The value must match the token's iss claim exactly: Firebase issuers have
// no trailing slash, Auth0 issuers do.
func (c *Config) IssuerURL() string {
	issuer := c.IdentityIssuer
	if !strings.HasPrefix(issuer, "http://") && !strings.HasPrefix(issuer, "https://") {
		issuer = "https://" + issuer
	}
	return issuer
}

// GetConfig returns the most recently loaded configuration
func GetConfig() *Config {
	return current
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}
