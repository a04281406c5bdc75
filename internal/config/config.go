package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	UpstreamAPIURL  string
	Port            string
	LogLevel        string
	HTTPTimeout     time.Duration
	RetryMaxElapsed time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	timeout, _ := time.ParseDuration(getEnv("HTTP_TIMEOUT", "30s"))
	retryMaxElapsed, _ := time.ParseDuration(getEnv("RETRY_MAX_ELAPSED", "45s"))

	return &Config{
		UpstreamAPIURL:  getEnv("UPSTREAM_API_URL", "https://retell-back.example.com"),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPTimeout:     timeout,
		RetryMaxElapsed: retryMaxElapsed,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
