// Package config populates service settings from environment variables,
// with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default remote endpoints. The sheet and webhook defaults point at the
// production deployment so a bare environment comes up against real data.
const (
	defaultSheetURL        = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRfK0UcHgAiwmJwTSWe2dxyIwzLFtS2150qbKVVti1uVfgDhwID3Ec6NLRrvX4AlABpxneejy1-lgTF/pub?gid=0&single=true&output=csv"
	defaultVillagesURL     = "https://moxalise.ge/data/villages.csv"
	defaultVolunteerAPIURL = "https://moxalise-api-vk3ygvyuia-ey.a.run.app/api/location/"
	defaultVolunteerCSVURL = "https://moxalise.ge/data/volunteers.csv"
	defaultLocationAPIURL  = "https://moxalise-api-vk3ygvyuia-ey.a.run.app/api/location/"
	defaultWebhookURL      = "https://sift.app.n8n.cloud/webhook/9fe92c0c-3ebe-4c4f-9fc4-3bec9e39aa4f"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SheetURL           string
	VillagesURL        string
	VolunteerAPIURL    string
	VolunteerCSVURL    string
	VolunteerLocalPath string
	LocationAPIURL     string
	WebhookURL         string

	StatePath       string
	RefreshInterval time.Duration
	MapStyle        string
	StartRecordID   string
	UserAgent       string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is merged in first without
// overriding real environment variables.
func Load() (*Config, error) {
	godotenv.Load() //nolint:errcheck

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("VOLUNTEER_REFRESH_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SheetURL:           envOrDefault("SHEET_URL", defaultSheetURL),
		VillagesURL:        envOrDefault("VILLAGES_URL", defaultVillagesURL),
		VolunteerAPIURL:    envOrDefault("VOLUNTEER_API_URL", defaultVolunteerAPIURL),
		VolunteerCSVURL:    envOrDefault("VOLUNTEER_CSV_URL", defaultVolunteerCSVURL),
		VolunteerLocalPath: envOrDefault("VOLUNTEER_LOCAL_PATH", "data/volunteers.csv"),
		LocationAPIURL:     envOrDefault("LOCATION_API_URL", defaultLocationAPIURL),
		WebhookURL:         envOrDefault("WEBHOOK_URL", defaultWebhookURL),

		StatePath:       envOrDefault("STATE_PATH", "data/state.json"),
		RefreshInterval: refreshInterval,
		MapStyle:        envOrDefault("MAP_STYLE", "streets"),
		StartRecordID:   os.Getenv("START_RECORD_ID"),
		UserAgent:       envOrDefault("USER_AGENT", "aidmap/1.0"),
	}

	if cfg.SheetURL == "" {
		return nil, errors.New("SHEET_URL is required")
	}
	if cfg.WebhookURL == "" {
		return nil, errors.New("WEBHOOK_URL is required")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("VOLUNTEER_REFRESH_INTERVAL must be positive")
	}
	return cfg, nil
}

// LoggerLevel implements observability.LoggerConfig.
func (c *Config) LoggerLevel() string { return c.LogLevel }

// LoggerFormat implements observability.LoggerConfig.
func (c *Config) LoggerFormat() string { return c.LogFormat }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil {
		if n, convErr := strconv.Atoi(s); convErr == nil {
			return time.Duration(n) * time.Second, nil
		}
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
