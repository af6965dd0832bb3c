// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds every setting the API reads at startup.
type Config struct {
	Port            string
	GinMode         string
	StoreDriver     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Database  Database
	Redis     Redis
	RateLimit RateLimit

	CORSAllowedOrigins []string
	MonitoringAPIKey   string
}

// Database holds Postgres connection and pool settings.
type Database struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DSN returns the lib/pq connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Redis holds the connection used by the auth rate limiter. An empty Addr
// disables rate limiting.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// RateLimit bounds credential attempts per client IP.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring unreadable .env file: %v", err)
	}

	cfg := Config{
		Port:            getEnvOrDefault("PORT", "5000"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		StoreDriver:     strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreDriverPostgres)),
		ReadTimeout:     time.Duration(getIntEnvOrDefault("HTTP_READ_TIMEOUT_SECONDS", 15)) * time.Second,
		WriteTimeout:    time.Duration(getIntEnvOrDefault("HTTP_WRITE_TIMEOUT_SECONDS", 15)) * time.Second,
		ShutdownTimeout: time.Duration(getIntEnvOrDefault("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
		Database: Database{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            getEnvOrDefault("DB_PORT", "5432"),
			User:            getEnvOrDefault("DB_USER", "postgres"),
			Password:        getEnvOrDefault("DB_PASSWORD", "password"),
			Name:            getEnvOrDefault("DB_NAME", "taskmanager"),
			SSLMode:         getEnvOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnvOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnvOrDefault("DB_MAX_IDLE_CONNS", 25),
			ConnMaxIdleTime: time.Duration(getIntEnvOrDefault("DB_CONN_MAX_IDLE_MINUTES", 5)) * time.Minute,
			ConnMaxLifetime: time.Duration(getIntEnvOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
		},
		Redis: Redis{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getNonNegativeIntEnvOrDefault("REDIS_DB", 0),
		},
		RateLimit: RateLimit{
			Requests: getIntEnvOrDefault("AUTH_RATE_LIMIT", 10),
			Window:   time.Duration(getIntEnvOrDefault("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		},
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		MonitoringAPIKey:   strings.TrimSpace(os.Getenv("MONITORING_API_KEY")),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("Invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}

	return value
}

func getNonNegativeIntEnvOrDefault(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		log.Printf("Invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}

	return value
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
