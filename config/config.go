package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the static deployment configuration. Operational state
// the admin changes at runtime (spreadsheet id, Mailchimp credentials)
// lives in the settings table instead.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	SheetsAPIKey string

	MatchPollInterval time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads the configuration from environment variables. A .env file
// is loaded first if present, for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	sheetsKey := os.Getenv("SHEETS_API_KEY")
	if sheetsKey == "" {
		return nil, fmt.Errorf("SHEETS_API_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	pollInterval := 30 * time.Second
	if raw := os.Getenv("MATCH_POLL_INTERVAL"); raw != "" {
		pollInterval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MATCH_POLL_INTERVAL environment variable: %w", err)
		}
		if pollInterval < time.Second {
			return nil, fmt.Errorf("MATCH_POLL_INTERVAL must be at least 1s, got %v", pollInterval)
		}
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		SheetsAPIKey:      sheetsKey,
		MatchPollInterval: pollInterval,

		// R2 is optional: without it roster fetch logs are not archived
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// HasR2 reports whether object storage is configured.
func (c *Config) HasR2() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2BucketName != ""
}
