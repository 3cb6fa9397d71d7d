package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Booking   BookingConfig   `yaml:"booking"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Database      string `yaml:"database"`
	SSLMode       string `yaml:"ssl_mode"`
	MigrationsDir string `yaml:"migrations_dir"`
}

// JWTConfig contains bearer-token settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// BookingConfig contains admission and pricing policy knobs
type BookingConfig struct {
	GraceMinutes       int `yaml:"grace_minutes"`
	MaxHorizonDays     int `yaml:"max_horizon_days"`
	MinLeadTimeMinutes int `yaml:"min_lead_time_minutes"`
	PendingExpiryDays  int `yaml:"pending_expiry_days"`
	ExpirySweepBatch   int `yaml:"expiry_sweep_batch"`
}

// GatewayConfig contains payment gateway settings
type GatewayConfig struct {
	Provider      string `yaml:"provider"` // "mock" or a real provider name
	Currency      string `yaml:"currency"`
	WebhookSecret string `yaml:"webhook_secret"`
	SiteURL       string `yaml:"site_url"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpirePendingBookings string `yaml:"expire_pending_bookings"`
	ReportUnmatchedEvents string `yaml:"report_unmatched_events"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Gateway
	if val := os.Getenv("GATEWAY_WEBHOOK_SECRET"); val != "" {
		c.Gateway.WebhookSecret = val
	}
	if val := os.Getenv("GATEWAY_PROVIDER"); val != "" {
		c.Gateway.Provider = val
	}
	if val := os.Getenv("SITE_URL"); val != "" {
		c.Gateway.SiteURL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "migrations"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Gateway validation
	if c.Gateway.WebhookSecret == "" {
		return fmt.Errorf("gateway webhook secret is required")
	}
	if c.Gateway.Provider == "" {
		c.Gateway.Provider = "mock"
	}
	if c.Gateway.Currency == "" {
		c.Gateway.Currency = "USD"
	}
	if len(c.Gateway.Currency) != 3 {
		return fmt.Errorf("invalid currency code: %s", c.Gateway.Currency)
	}

	// Booking defaults
	if c.Booking.GraceMinutes == 0 {
		c.Booking.GraceMinutes = 60
	}
	if c.Booking.MaxHorizonDays == 0 {
		c.Booking.MaxHorizonDays = 365 // 1 year in advance
	}
	if c.Booking.PendingExpiryDays == 0 {
		c.Booking.PendingExpiryDays = 7 // gateway authorization validity window
	}
	if c.Booking.ExpirySweepBatch == 0 {
		c.Booking.ExpirySweepBatch = 200
	}

	// Scheduler defaults
	if c.Scheduler.ExpirePendingBookings == "" {
		c.Scheduler.ExpirePendingBookings = "0 0 * * * *" // hourly
	}
	if c.Scheduler.ReportUnmatchedEvents == "" {
		c.Scheduler.ReportUnmatchedEvents = "0 0 6 * * *" // daily 06:00 UTC
	}

	return nil
}

// GracePeriod returns the pricing grace window as a duration.
func (c *BookingConfig) GracePeriod() time.Duration {
	return time.Duration(c.GraceMinutes) * time.Minute
}

// MaxHorizon returns how far in the future a booking may start.
func (c *BookingConfig) MaxHorizon() time.Duration {
	return time.Duration(c.MaxHorizonDays) * 24 * time.Hour
}

// MinLeadTime returns the minimum delay between now and a booking start.
func (c *BookingConfig) MinLeadTime() time.Duration {
	return time.Duration(c.MinLeadTimeMinutes) * time.Minute
}

// PendingExpiry returns how long a PENDING booking may wait for payment.
func (c *BookingConfig) PendingExpiry() time.Duration {
	return time.Duration(c.PendingExpiryDays) * 24 * time.Hour
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
