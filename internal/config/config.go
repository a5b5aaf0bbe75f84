package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted in BACKEND
const (
	BackendOracle = "oracle"
	BackendOpenAI = "openai"
	BackendFake   = "fake"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	Debug          bool
	AllowedOrigins []string

	// Analysis backend
	Backend         string // "oracle", "openai" or "fake"
	BackendURL      string
	BackendAPIKey   string
	BackendModel    string
	BackendTimeout  time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration

	// Media normalization
	FetchTimeout  time.Duration
	MaxMediaBytes int64

	// Schedule configuration
	DigestSchedule string // "daily", "weekly" or "off"
	TimeZone       string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Alerts fire for AI verdicts at or above this confidence (0-1); 0 disables them
	AlertThreshold float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Debug:          getBoolEnv("DEBUG", false),
		AllowedOrigins: getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),

		Backend:         strings.ToLower(getEnv("BACKEND", BackendOracle)),
		BackendURL:      getEnv("BACKEND_URL", ""),
		BackendAPIKey:   getEnv("BACKEND_API_KEY", ""),
		BackendModel:    getEnv("BACKEND_MODEL", "Gemini 2.5 Flash"),
		BackendTimeout:  getDurationEnv("BACKEND_TIMEOUT", 2*time.Minute),
		BreakerFailures: getIntEnv("BREAKER_FAILURES", 5),
		BreakerCooldown: getDurationEnv("BREAKER_COOLDOWN", 30*time.Second),

		FetchTimeout:  getDurationEnv("FETCH_TIMEOUT", 30*time.Second),
		MaxMediaBytes: int64(getIntEnv("MAX_MEDIA_BYTES", 20<<20)),

		DigestSchedule: strings.ToLower(getEnv("DIGEST_SCHEDULE", "off")),
		TimeZone:       getEnv("TIMEZONE", "UTC"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		AlertThreshold: getFloatEnv("ALERT_THRESHOLD", 0),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// NotificationsEnabled reports whether any notification channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendOracle:
		if c.BackendURL == "" {
			return fmt.Errorf("BACKEND_URL is required when BACKEND is 'oracle'")
		}
	case BackendOpenAI:
		if c.BackendAPIKey == "" {
			return fmt.Errorf("BACKEND_API_KEY is required when BACKEND is 'openai'")
		}
	case BackendFake:
	default:
		return fmt.Errorf("BACKEND must be 'oracle', 'openai' or 'fake'")
	}

	if c.BackendTimeout <= 0 || c.FetchTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT and FETCH_TIMEOUT must be positive")
	}

	if c.MaxMediaBytes <= 0 {
		return fmt.Errorf("MAX_MEDIA_BYTES must be positive")
	}

	if c.BreakerFailures < 1 {
		return fmt.Errorf("BREAKER_FAILURES must be at least 1")
	}

	if c.DigestSchedule != "daily" && c.DigestSchedule != "weekly" && c.DigestSchedule != "off" {
		return fmt.Errorf("DIGEST_SCHEDULE must be 'daily', 'weekly' or 'off'")
	}

	if c.AlertThreshold < 0 || c.AlertThreshold > 1 {
		return fmt.Errorf("ALERT_THRESHOLD must be between 0 and 1")
	}

	if (c.DigestSchedule != "off" || c.AlertThreshold > 0) && !c.NotificationsEnabled() {
		return fmt.Errorf("at least one notification method must be configured (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL) when digests or alerts are enabled")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid location: %w", c.TimeZone, err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return defaultValue
}
