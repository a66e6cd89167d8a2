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

	"github.com/lorrc/sla-sentinel/internal/core/domain"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Kafka transport configuration
	Kafka KafkaConfig

	// Secondary predictor configuration
	Predictor PredictorConfig

	// SLA threshold configuration
	SLA SLAConfig

	// Scheduler configuration
	Scheduler SchedulerConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Auth configuration for service-to-service calls
	Auth AuthConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// KafkaConfig holds the inbound/outbound event bus configuration.
// Brokers empty means Kafka is disabled (HTTP ingestion only).
type KafkaConfig struct {
	Brokers       []string
	TicketTopic   string
	ConsumerGroup string
	OutputTopic   string
	Workers       int
}

// Enabled reports whether the Kafka transport is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// PredictorConfig holds the secondary predictor endpoint configuration.
// URL empty means the heuristic fallback is always used.
type PredictorConfig struct {
	URL     string
	Timeout time.Duration
}

// SLAConfig holds per-priority SLA budgets and the retention window.
type SLAConfig struct {
	Thresholds    domain.SLAThresholds
	RetentionDays int
}

// SchedulerConfig holds the cron expressions for background jobs.
type SchedulerConfig struct {
	SweepSchedule     string
	RetentionSchedule string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// AuthConfig holds service-to-service JWT configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntOrDefault("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       getStringSliceOrDefault("KAFKA_BROKERS", []string{}),
			TicketTopic:   getEnvOrDefault("KAFKA_TICKET_TOPIC", "ticket-events"),
			ConsumerGroup: getEnvOrDefault("KAFKA_CONSUMER_GROUP", "sla-sentinel"),
			OutputTopic:   getEnvOrDefault("KAFKA_OUTPUT_TOPIC", "sla-risk-events"),
			Workers:       getIntOrDefault("KAFKA_WORKERS", 4),
		},
		Predictor: PredictorConfig{
			URL:     os.Getenv("PREDICTOR_URL"),
			Timeout: getDurationOrDefault("PREDICTOR_TIMEOUT", 3*time.Second),
		},
		SLA: SLAConfig{
			Thresholds:    loadThresholds(),
			RetentionDays: getIntOrDefault("RETENTION_DAYS", 90),
		},
		Scheduler: SchedulerConfig{
			SweepSchedule:     getEnvOrDefault("SWEEP_SCHEDULE", "@every 5m"),
			RetentionSchedule: getEnvOrDefault("RETENTION_SCHEDULE", "0 3 * * *"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 25),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 50),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  getDurationOrDefault("JWT_TOKEN_TTL", 1*time.Hour),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "sla-sentinel"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadThresholds reads per-priority SLA budgets from the environment,
// falling back to the documented defaults for any unset tier.
func loadThresholds() domain.SLAThresholds {
	thresholds := domain.DefaultThresholds()

	for priority := 1; priority <= 4; priority++ {
		budget := thresholds.Budgets[priority]
		budget.ResponseMinutes = getFloatOrDefault(
			fmt.Sprintf("SLA_P%d_RESPONSE_MINUTES", priority), budget.ResponseMinutes)
		budget.ResolutionMinutes = getFloatOrDefault(
			fmt.Sprintf("SLA_P%d_RESOLUTION_MINUTES", priority), budget.ResolutionMinutes)
		thresholds.Budgets[priority] = budget
	}

	thresholds.TargetAdherence = getFloatOrDefault("SLA_TARGET_ADHERENCE", thresholds.TargetAdherence)
	return thresholds
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	// Required fields
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	// Security validations
	if c.App.Environment == "production" {
		if len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
		}
	}

	// Logical validations
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}

	if c.SLA.RetentionDays < 1 {
		errs = append(errs, "RETENTION_DAYS must be at least 1")
	}

	if c.Kafka.Enabled() && c.Kafka.Workers < 1 {
		errs = append(errs, "KAFKA_WORKERS must be at least 1")
	}

	for priority := 1; priority <= 4; priority++ {
		budget := c.SLA.Thresholds.Budgets[priority]
		if budget.ResponseMinutes <= 0 || budget.ResolutionMinutes <= 0 {
			errs = append(errs, fmt.Sprintf("SLA budgets for P%d must be positive", priority))
		}
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, DB: %s, Kafka: %v, Predictor: %s, Environment: %s}",
		c.Server.Port,
		redactURL(c.Database.URL),
		c.Kafka.Enabled(),
		c.Predictor.URL,
		c.App.Environment,
	)
}

// redactURL redacts sensitive parts of a database URL
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.Index(url, "@"); idx > 0 {
		return "[REDACTED]" + url[idx:]
	}
	return "[REDACTED]"
}
