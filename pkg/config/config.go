// Package config loads application configuration from CASEFLOW_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caseflow-io/caseflow/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Redis         RedisConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// AuthConfig holds token issuance settings. The signing secret must be
// provided by the environment; there is no default.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// RedisConfig holds settings for the login rate limiter. Rate limiting
// is disabled when URL is empty.
type RedisConfig struct {
	URL            string
	Password       string
	DB             int
	LoginLimit     int
	LoginWindow    time.Duration
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	Retention       time.Duration
	CleanupSchedule string
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("CASEFLOW_HOST", "0.0.0.0"),
			Port:            getEnv("CASEFLOW_PORT", "8080"),
			ReadTimeout:     getEnvDuration("CASEFLOW_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("CASEFLOW_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("CASEFLOW_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("CASEFLOW_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("CASEFLOW_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("CASEFLOW_POSTGRES_URL", ""),
			MaxOpenConns:    getEnvInt("CASEFLOW_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns:    getEnvInt("CASEFLOW_POSTGRES_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("CASEFLOW_POSTGRES_CONN_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getEnvDuration("CASEFLOW_POSTGRES_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("CASEFLOW_JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("CASEFLOW_TOKEN_TTL", 8*time.Hour),
		},
		Redis: RedisConfig{
			URL:         getEnv("CASEFLOW_REDIS_URL", ""),
			Password:    getEnv("CASEFLOW_REDIS_PASSWORD", ""),
			DB:          getEnvInt("CASEFLOW_REDIS_DB", 0),
			LoginLimit:  getEnvInt("CASEFLOW_LOGIN_RATE_LIMIT", 10),
			LoginWindow: getEnvDuration("CASEFLOW_LOGIN_RATE_WINDOW", time.Minute),
		},
		Audit: AuditConfig{
			Retention:       getEnvDuration("CASEFLOW_AUDIT_RETENTION", 90*24*time.Hour),
			CleanupSchedule: getEnv("CASEFLOW_AUDIT_CLEANUP_SCHEDULE", "0 3 * * *"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(strings.ToLower(getEnv("CASEFLOW_LOG_LEVEL", "info"))),
			MetricsEnabled: getEnvBool("CASEFLOW_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.Redis.URL != "" && c.Redis.LoginLimit <= 0 {
		return fmt.Errorf("login rate limit must be positive when Redis is configured")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
