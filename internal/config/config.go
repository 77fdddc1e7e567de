package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// Poll interval defaults: short in production, long elsewhere so an
	// idle dev or staging system does not burn API quota.
	ProductionPollIntervalMs = 30_000
	DefaultPollIntervalMs    = 300_000
)

type Config struct {
	DatabaseURL        string
	Environment        string // "production" or anything else
	PollIntervalMs     int
	MaxRetries         int // reserved; jobs are not retried automatically yet
	ShutdownTimeout    int // seconds
	QuickBooksClientID string
	QuickBooksSecret   string
	QuickBooksRedirect string
	QuickBooksSandbox  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	clientID := os.Getenv("QB_CLIENT_ID")
	clientSecret := os.Getenv("QB_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		fmt.Println("Warning: QB_CLIENT_ID or QB_CLIENT_SECRET not set, QuickBooks sync will not work")
	}

	env := os.Getenv("APP_ENV")

	pollInterval := DefaultPollIntervalMs
	if env == "production" {
		pollInterval = ProductionPollIntervalMs
	}
	if raw := os.Getenv("SYNC_POLL_INTERVAL_MS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("SYNC_POLL_INTERVAL_MS must be a positive integer, got %q", raw)
		}
		pollInterval = parsed
	}

	return &Config{
		DatabaseURL:        dbURL,
		Environment:        env,
		PollIntervalMs:     pollInterval,
		MaxRetries:         3,
		ShutdownTimeout:    30,
		QuickBooksClientID: clientID,
		QuickBooksSecret:   clientSecret,
		QuickBooksRedirect: os.Getenv("QB_REDIRECT_URI"),
		QuickBooksSandbox:  os.Getenv("QB_ENVIRONMENT") != "production",
	}, nil
}
