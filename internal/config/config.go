// Package config loads runtime configuration from the environment,
// reading an optional .env file first.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	PostmarkServerToken string
	FromEmail           string
	BaseURL             string
}

// Load reads .env if present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                getenv("COURTBOOK_PORT", "8080"),
		DBPath:              getenv("COURTBOOK_DB_PATH", "courtbook.db"),
		LogLevel:            getenv("COURTBOOK_LOG_LEVEL", "info"),
		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		FromEmail:           getenv("COURTBOOK_FROM_EMAIL", "noreply@localhost"),
		BaseURL:             getenv("COURTBOOK_BASE_URL", "http://localhost:8080"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
