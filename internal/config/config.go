package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Queue     QueueConfig     `mapstructure:"queue" validate:"required"`
	Retry     RetryConfig     `mapstructure:"retry" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Events    EventsConfig    `mapstructure:"events"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig contains all database-related configuration settings.
// URL is a connection string for postgres and a file path or DSN for sqlite;
// the memory driver ignores it.
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=postgres sqlite memory"`
	URL         string `mapstructure:"url" validate:"required_unless=Driver memory"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains the settings used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
}

// SchedulerConfig overrides scheduling constants. Zero values keep the built-in defaults.
type SchedulerConfig struct {
	DefaultEaseFactor  float64 `mapstructure:"default_ease_factor" validate:"gte=0"`
	MinEaseFactor      float64 `mapstructure:"min_ease_factor" validate:"gte=0"`
	MaxEaseFactor      float64 `mapstructure:"max_ease_factor" validate:"gte=0"`
	FailureEasePenalty float64 `mapstructure:"failure_ease_penalty" validate:"gte=0"`

	InitialInterval int `mapstructure:"initial_interval" validate:"gte=0"`
	SecondInterval  int `mapstructure:"second_interval" validate:"gte=0"`
	ThirdInterval   int `mapstructure:"third_interval" validate:"gte=0"`

	PassingQuality   int `mapstructure:"passing_quality" validate:"gte=0,lte=5"`
	ExcellentQuality int `mapstructure:"excellent_quality" validate:"gte=0,lte=5"`

	EasyModifier     float64 `mapstructure:"easy_modifier" validate:"gte=0"`
	MediumModifier   float64 `mapstructure:"medium_modifier" validate:"gte=0"`
	HardModifier     float64 `mapstructure:"hard_modifier" validate:"gte=0"`
	VeryHardModifier float64 `mapstructure:"very_hard_modifier" validate:"gte=0"`
}

// QueueConfig bounds the size of a review session.
type QueueConfig struct {
	DefaultSize int `mapstructure:"default_size" validate:"required,gt=0,ltefield=MaxSize"`
	MaxSize     int `mapstructure:"max_size" validate:"required,gt=0"`
}

// RetryConfig controls retries of a review submission on conflicts and transient storage errors.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"required,gte=1,lte=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gte=0"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"gtefield=BaseDelay"`
}

// RateLimitConfig limits review submissions per user.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// EventsConfig sizes asynchronous delivery of review events.
// Zero workers deliver events synchronously inside the review request.
type EventsConfig struct {
	Workers   int `mapstructure:"workers" validate:"gte=0,lte=64"`
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`
}
