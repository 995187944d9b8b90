// Package config loads application configuration from environment variables.
// A .env file, when present, is loaded by main before this package reads the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/user/weather-api-go/apperror"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// MongoConfig holds document store settings.
type MongoConfig struct {
	// URL is the full MongoDB connection string.
	URL string
	// Database is the logical database name holding the users, weatherData
	// and log collections.
	Database string
}

// Load reads configuration from the environment. MDB_URL is required; the
// rest have defaults suitable for local development.
func Load() (*Config, error) {
	mongoURL := os.Getenv("MDB_URL")
	if mongoURL == "" {
		return nil, apperror.NewConfigError("MDB_URL environment variable is required", nil)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Mongo: MongoConfig{
			URL:      mongoURL,
			Database: getEnv("MDB_DATABASE", "weather-api-for-education"),
		},
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%s", s.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
