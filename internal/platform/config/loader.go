// Package config provides environment-variable configuration loading helpers
// shared across the API server, worker, and scheduler entry points.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopsignal/platform/internal/platform/utils"
)

// loadDotEnv loads a local .env file into the process environment before any
// GetEnv/RequireEnv call runs, so operators can keep DATABASE_URL,
// ADS_LIBRARY_TOKEN, etc. in a file during local development instead of
// exporting them by hand. The file is optional; only a malformed file (not
// a missing one) is worth a warning, since every env var already has a
// sane default or an explicit required-var error downstream.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("warning: could not parse .env: %v\n", err)
	}
}

// =============================================================================
// Environment Loading Helpers
// =============================================================================

// GetEnv retrieves an environment variable with an optional default.
func GetEnv(key, defaultValue string) string {
	return utils.GetEnv(key, defaultValue)
}

// RequireEnv retrieves a required environment variable, returning an error
// when unset so callers can fail fast at startup.
func RequireEnv(key string) (string, error) {
	value := utils.GetEnvOptional(key)
	if value == "" {
		return "", fmt.Errorf("%s is required but not set", key)
	}
	return value, nil
}

// GetEnvBool retrieves a boolean environment variable with an optional default.
// Accepts: "true", "1", "yes", "y" (case-insensitive) as true.
func GetEnvBool(key string, defaultValue bool) bool {
	val := utils.GetEnvOptional(key)
	if val == "" {
		return defaultValue
	}
	return ParseBoolOrDefault(val, defaultValue)
}

// GetEnvInt retrieves an integer environment variable with an optional default.
func GetEnvInt(key string, defaultValue int) int {
	val := utils.GetEnvOptional(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvDuration retrieves a duration environment variable with an optional default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := utils.GetEnvOptional(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// =============================================================================
// CSV Parsing
// =============================================================================

// SplitAndTrimCSV splits a CSV string and trims each part, filtering empties.
func SplitAndTrimCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// =============================================================================
// Bool/Int/Duration Parsing
// =============================================================================

// ParseBoolOrDefault parses a boolean string or returns the default.
func ParseBoolOrDefault(raw string, defaultValue bool) bool {
	if raw == "" {
		return defaultValue
	}
	lower := strings.ToLower(raw)
	return lower == "true" || lower == "1" || lower == "yes" || lower == "y"
}

// ParseIntOrDefault parses an integer string or returns the default.
func ParseIntOrDefault(raw string, defaultValue int) int {
	if raw == "" {
		return defaultValue
	}
	if parsed, err := strconv.Atoi(raw); err == nil {
		return parsed
	}
	return defaultValue
}

// ParseDurationOrDefault parses a duration string or returns the default.
func ParseDurationOrDefault(raw string, defaultDuration time.Duration) time.Duration {
	if raw == "" {
		return defaultDuration
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		return parsed
	}
	return defaultDuration
}

// =============================================================================
// Port
// =============================================================================

// GetPort retrieves the HTTP server port from PORT/HTTP_PORT or the default.
func GetPort(defaultPort int) int {
	for _, key := range []string{"PORT", "HTTP_PORT"} {
		if port := os.Getenv(key); port != "" {
			if parsed, err := strconv.Atoi(port); err == nil && parsed > 0 {
				return parsed
			}
		}
	}
	return defaultPort
}

// =============================================================================
// Timeouts
// =============================================================================

// HTTPTimeouts holds per-adapter HTTP timeout budgets (§5 of the design).
type HTTPTimeouts struct {
	AdsLibrary  time.Duration
	HTML        time.Duration
	Sitemap     time.Duration
	HeadersOnly time.Duration
}

// DefaultHTTPTimeouts returns the standard per-adapter timeout budget,
// overridable via HTTP_TIMEOUT_DEFAULT for the ads-library call specifically.
func DefaultHTTPTimeouts() HTTPTimeouts {
	adsLibrary := GetEnvDuration("HTTP_TIMEOUT_DEFAULT", 30*time.Second)
	return HTTPTimeouts{
		AdsLibrary:  adsLibrary,
		HTML:        15 * time.Second,
		Sitemap:     15 * time.Second,
		HeadersOnly: 10 * time.Second,
	}
}

// Config aggregates the environment/config surface enumerated in SPEC_FULL.md §6.
type Config struct {
	DatabaseURL          string
	TaskBrokerURL        string
	AdsLibraryToken      string
	AdsLibraryBaseURL    string
	AdsLibraryAPIVersion string
	HTTPUserAgent        string
	Timeouts             HTTPTimeouts
	LogLevel             string
	LogFormat            string
	HTTPPort             int
	WorkerConcurrency    int
	WorkerPollInterval   time.Duration
	MetricsSnapshotCron  string
}

// Load reads the full configuration surface from the environment, first
// merging in a local .env file if one is present.
func Load() Config {
	loadDotEnv()
	return Config{
		DatabaseURL:          GetEnv("DATABASE_URL", ""),
		TaskBrokerURL:        GetEnv("TASK_BROKER_URL", "redis://localhost:6379/0"),
		AdsLibraryToken:      GetEnv("ADS_LIBRARY_TOKEN", ""),
		AdsLibraryBaseURL:    GetEnv("ADS_LIBRARY_BASE_URL", "https://graph.facebook.com"),
		AdsLibraryAPIVersion: GetEnv("ADS_LIBRARY_API_VERSION", "v19.0"),
		HTTPUserAgent:        GetEnv("HTTP_USER_AGENT", "shopsignal-bot/1.0"),
		Timeouts:             DefaultHTTPTimeouts(),
		LogLevel:             GetEnv("LOG_LEVEL", "info"),
		LogFormat:            GetEnv("LOG_FORMAT", "simple"),
		HTTPPort:             GetPort(8080),
		WorkerConcurrency:    GetEnvInt("WORKER_CONCURRENCY", 4),
		WorkerPollInterval:   GetEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		MetricsSnapshotCron:  GetEnv("METRICS_SNAPSHOT_CRON", "0 3 * * *"),
	}
}
