package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	ServiceName        string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string

	// Checkout
	CheckoutFlowFile         string
	PaymentCaptureLimitCents int64
	SessionBackend           string // "database" or "redis"
	SessionCookieName        string
	RedisURL                 string

	// Messaging and observability
	KafkaBrokers         []string
	KafkaTopic           string
	OTelExporterEndpoint string
	CORSAllowedOrigins   []string
}

var (
	current   *Config
	currentMu sync.RWMutex
)

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production, environment variables are set directly
			// so it's okay if .env files don't exist
			log.Debug().Msg("No .env file found, using system environment variables")
		}
	} else {
		log.Info().Str("file", envFile).Msg("Loaded configuration")
	}

	limit, err := strconv.ParseInt(getEnv("PAYMENT_CAPTURE_LIMIT_CENTS", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("PAYMENT_CAPTURE_LIMIT_CENTS must be an integer: %w", err)
	}

	config := &Config{
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		Port:                     getEnv("PORT", "8080"),
		GoEnv:                    getEnv("GO_ENV", "development"),
		ServiceName:              getEnv("SERVICE_NAME", "checkout-flow-api"),
		Auth0Domain:              getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:            getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:                getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:              getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:           getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:       getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		CheckoutFlowFile:         getEnv("CHECKOUT_FLOW_FILE", ""),
		PaymentCaptureLimitCents: limit,
		SessionBackend:           getEnv("SESSION_BACKEND", "database"),
		SessionCookieName:        getEnv("SESSION_COOKIE_NAME", "checkout_session"),
		RedisURL:                 getEnv("REDIS_URL", ""),
		KafkaBrokers:             splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:               getEnv("KAFKA_TOPIC", "order-confirmations"),
		OTelExporterEndpoint:     getEnv("OTEL_EXPORTER_ENDPOINT", ""),
		CORSAllowedOrigins:       splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	SetConfig(config)
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.SessionBackend {
	case "database":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND is redis")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be database or redis, got %q", c.SessionBackend)
	}
	if c.PaymentCaptureLimitCents < 0 {
		return fmt.Errorf("PAYMENT_CAPTURE_LIMIT_CENTS cannot be negative")
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

// GetConfig returns the configuration set by the last successful Load
func GetConfig() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetConfig replaces the global configuration (primarily for testing)
func SetConfig(cfg *Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
