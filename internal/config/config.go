// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP
	Port        string
	MetricsPort string
	StaticPath  string

	// Storage
	StoreBackend string
	DBPath       string
	DatabaseURL  string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Receipt extraction
	ExtractionURL     string
	ExtractionAPIKey  string
	ExtractionTimeout time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Load reads the environment, first merging variables from the given
// dotenv files when they exist. Variables already set in the environment win.
func Load(envFiles ...string) *Config {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		StaticPath:  getEnv("STATIC_PATH", ""),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DBPath:       getEnv("DB_PATH", "./data/splitbill.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 7*24*time.Hour),

		ExtractionURL:     getEnv("EXTRACTION_URL", ""),
		ExtractionAPIKey:  getEnv("EXTRACTION_API_KEY", ""),
		ExtractionTimeout: getEnvDuration("EXTRACTION_TIMEOUT", 60*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "splitbill"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "session_changed"),
	}
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	for name, value := range map[string]string{"port": c.Port, "metrics port": c.MetricsPort} {
		if port, err := strconv.Atoi(value); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be a number", name, value))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port))
		}
	}
	if c.Port == c.MetricsPort {
		errors = append(errors, "port and metrics port must differ")
	}

	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			errors = append(errors, "DB_PATH cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of [%s %s %s]",
			c.StoreBackend, BackendSQLite, BackendPostgres, BackendMemory))
	}

	if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		errors = append(errors, "TOKEN_TTL must be positive")
	}

	if c.ExtractionURL != "" {
		if u, err := url.Parse(c.ExtractionURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid EXTRACTION_URL '%s': must be an http(s) URL", c.ExtractionURL))
		}
		if c.ExtractionTimeout <= 0 {
			errors = append(errors, "EXTRACTION_TIMEOUT must be positive")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			errors = append(errors, "AMQP exchange and queue names cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
