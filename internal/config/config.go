// Package config loads service settings from REMIT_* environment variables
// and the bank catalogue from a TOML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type Config struct {
	Port      int
	DBPath    string
	BanksFile string

	LogLevel  slog.Level
	LogFormat string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// IndexCacheSize bounds the control number LRU.
	IndexCacheSize int
	IndexCacheTTL  time.Duration
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Port, err = getEnvInt("REMIT_PORT", 8080); err != nil {
		return nil, fmt.Errorf("REMIT_PORT: %w", err)
	}
	cfg.DBPath = getEnvDefault("REMIT_DB_PATH", "remittance.db")
	cfg.BanksFile = getEnvDefault("REMIT_BANKS_FILE", "banks.toml")

	if cfg.LogLevel, err = parseLogLevel(getEnvDefault("REMIT_LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("REMIT_LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = getEnvDefault("REMIT_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("REMIT_LOG_FORMAT: invalid format %q, want json or text", cfg.LogFormat)
	}

	if cfg.ReadTimeout, err = getEnvDuration("REMIT_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("REMIT_READ_TIMEOUT: %w", err)
	}
	if cfg.WriteTimeout, err = getEnvDuration("REMIT_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return nil, fmt.Errorf("REMIT_WRITE_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("REMIT_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("REMIT_SHUTDOWN_TIMEOUT: %w", err)
	}

	if cfg.IndexCacheSize, err = getEnvInt("REMIT_INDEX_CACHE_SIZE", 10000); err != nil {
		return nil, fmt.Errorf("REMIT_INDEX_CACHE_SIZE: %w", err)
	}
	if cfg.IndexCacheSize <= 0 {
		return nil, fmt.Errorf("REMIT_INDEX_CACHE_SIZE: must be > 0, got %d", cfg.IndexCacheSize)
	}
	if cfg.IndexCacheTTL, err = getEnvDuration("REMIT_INDEX_CACHE_TTL", time.Hour); err != nil {
		return nil, fmt.Errorf("REMIT_INDEX_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use Go format: 30s, 1h, 15m)", val)
	}
	return d, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid level %q, want debug, info, warn or error", level)
	}
}
