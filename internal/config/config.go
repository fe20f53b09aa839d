package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port              string
	LogLevel          slog.Level
	PreparationTime   time.Duration
	IdleTimeout       time.Duration
	FinishedRetention time.Duration
	CleanupInterval   time.Duration
	AllowedOrigins    []string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		PreparationTime:   getEnvAsDuration("PREPARATION_TIME", 3*time.Second),
		IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 30*time.Minute),
		FinishedRetention: getEnvAsDuration("FINISHED_RETENTION", time.Hour),
		CleanupInterval:   getEnvAsDuration("CLEANUP_INTERVAL", time.Minute),
		AllowedOrigins:    getEnvAsList("ALLOWED_ORIGINS"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv(key, ""))); err == nil {
		return level
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
