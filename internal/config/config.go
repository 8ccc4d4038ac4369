package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Billing   BillingConfig   `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	Timezone       string `mapstructure:"SCHEDULER_TIMEZONE"`
	GenerationSpec string `mapstructure:"SCHEDULER_GENERATION_SPEC"`
	DriftSpec      string `mapstructure:"SCHEDULER_DRIFT_SPEC"`
	OverdueSpec    string `mapstructure:"SCHEDULER_OVERDUE_SPEC"`
	SummarySpec    string `mapstructure:"SCHEDULER_SUMMARY_SPEC"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BillingConfig struct {
	DueDay       int    `mapstructure:"BILLING_DUE_DAY"`
	GraceDays    int    `mapstructure:"BILLING_GRACE_DAYS"`
	DriftEpsilon string `mapstructure:"BILLING_DRIFT_EPSILON"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_NAME", "rent_ledger")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "postgres")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("BILLING_DUE_DAY", 5)
	viper.SetDefault("BILLING_GRACE_DAYS", 5)
	viper.SetDefault("BILLING_DRIFT_EPSILON", "0.01")
	viper.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	// monthly generation at 00:10 on the 1st
	viper.SetDefault("SCHEDULER_GENERATION_SPEC", "0 10 0 1 * *")
	// daily drift check at 02:00
	viper.SetDefault("SCHEDULER_DRIFT_SPEC", "0 0 2 * * *")
	// weekly overdue sweep on Mondays at 06:00
	viper.SetDefault("SCHEDULER_OVERDUE_SPEC", "0 0 6 * * MON")
	// monthly summary at 01:00 on the 1st
	viper.SetDefault("SCHEDULER_SUMMARY_SPEC", "0 0 1 1 * *")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("DATABASE_HOST and DATABASE_NAME are required")
	}

	if c.Billing.DueDay < 1 || c.Billing.DueDay > 28 {
		return fmt.Errorf("BILLING_DUE_DAY must be between 1 and 28")
	}

	if c.Billing.GraceDays < 0 {
		return fmt.Errorf("BILLING_GRACE_DAYS must not be negative")
	}

	// Validate drift epsilon
	if _, err := decimal.NewFromString(c.Billing.DriftEpsilon); err != nil {
		return fmt.Errorf("BILLING_DRIFT_EPSILON must be a valid decimal: %w", err)
	}

	// Validate scheduler timezone
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetDriftEpsilon returns the reconciliation tolerance as decimal
func (c *Config) GetDriftEpsilon() decimal.Decimal {
	eps, _ := decimal.NewFromString(c.Billing.DriftEpsilon)
	return eps
}

// GetLocation returns the scheduler timezone
func (c *Config) GetLocation() *time.Location {
	loc, _ := time.LoadLocation(c.Scheduler.Timezone)
	return loc
}
