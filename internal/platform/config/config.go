package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	Upstream        Upstream
}

// Upstream configures the employee upstream client.
type Upstream struct {
	BaseURL        string
	Timeout        time.Duration
	RetryBaseDelay time.Duration
	MaxRetries     int
	// RPS paces outbound attempts; 0 disables pacing.
	RPS   float64
	Burst int
}

const (
	DefaultAddr            = ":8080"
	DefaultEnvironment     = "dev"
	DefaultUpstreamBaseURL = "http://localhost:8112/api/v1"
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultRetryBaseDelay  = 200 * time.Millisecond
	DefaultMaxRetries      = 3
	DefaultBurst           = 1
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
// Unset or unparsable values fall back to the defaults above.
func FromEnv() Server {
	return Server{
		Addr:            getString("ROSTER_ADDR", DefaultAddr),
		Environment:     getString("ENVIRONMENT", DefaultEnvironment),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		LogLevel:        getLevel("LOG_LEVEL", slog.LevelInfo),
		Upstream: Upstream{
			BaseURL:        strings.TrimRight(getString("UPSTREAM_BASE_URL", DefaultUpstreamBaseURL), "/"),
			Timeout:        getDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout),
			RetryBaseDelay: getDuration("UPSTREAM_RETRY_BASE_DELAY", DefaultRetryBaseDelay),
			MaxRetries:     getInt("UPSTREAM_MAX_RETRIES", DefaultMaxRetries, 0),
			RPS:            getFloat("UPSTREAM_RPS", 0),
			Burst:          getInt("UPSTREAM_BURST", DefaultBurst, 1),
		},
	}
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}

func getInt(key string, def, min int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n >= min {
		return n
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil && f >= 0 {
		return f
	}
	return def
}

func getLevel(key string, def slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(key)))); err == nil {
		return level
	}
	return def
}
