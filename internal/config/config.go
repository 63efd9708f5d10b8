// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the commands need to wire a scraper.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	ReportsBaseURL string
	NHLAPIBaseURL  string
	ESPNBaseURL    string

	FetchWorkers int
	FetchRPS     float64
	FetchTimeout time.Duration
	FetchRetries int

	TransientRetries int
	TransientDelay   time.Duration
	LivePollInterval time.Duration

	// ESPNRender renders ESPN pages in headless Chrome instead of curl.
	ESPNRender bool

	ArchiveTable string
	AWSRegion    string
	StreamName   string

	// CoordOrder is the provider preference, e.g. "api,espn".
	CoordOrder []string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		ReportsBaseURL: getEnv("REPORTS_BASE_URL", "https://www.nhl.com/scores/htmlreports"),
		NHLAPIBaseURL:  getEnv("NHL_API_BASE_URL", "https://api-web.nhle.com/v1"),
		ESPNBaseURL:    getEnv("ESPN_BASE_URL", "https://www.espn.com/nhl"),

		FetchWorkers: getEnvInt("FETCH_WORKERS", 8),
		FetchRPS:     getEnvFloat("FETCH_RPS", 4),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries: getEnvInt("FETCH_RETRIES", 3),

		TransientRetries: getEnvInt("TRANSIENT_RETRIES", 3),
		TransientDelay:   getEnvDuration("TRANSIENT_DELAY", 10*time.Second),
		LivePollInterval: getEnvDuration("LIVE_POLL_INTERVAL", 30*time.Second),

		ESPNRender: getEnvBool("ESPN_RENDER", false),

		ArchiveTable: getEnv("ARCHIVE_TABLE", ""),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		StreamName:   getEnv("STREAM_NAME", "puckline.games"),

		CoordOrder: getEnvList("COORD_ORDER", []string{"api", "espn"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or bare seconds ("45").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
