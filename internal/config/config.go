// Package config loads runtime settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Parser ParserConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr  string
	MaxUploadMB int
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// ParserConfig holds statement parsing settings
type ParserConfig struct {
	Workers           int
	DirectDebitPayees []string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 32),
		},
		Log: LogConfig{
			Level:  ParseLevel(getEnv("LOG_LEVEL", "info")),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Parser: ParserConfig{
			Workers:           getEnvAsInt("PAGE_WORKERS", 4),
			DirectDebitPayees: getEnvAsList("DIRECT_DEBIT_PAYEES", []string{"GMHBA"}),
		},
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the process logger for the given settings.
func (c LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return SplitList(value)
}

// SplitList splits a comma-separated list and trims each entry.
func SplitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
