package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"SERVER_PORT"`
		Mode         string `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout  string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Organization struct {
		Name                 string `yaml:"name" env:"ORG_NAME"`
		Timezone             string `yaml:"timezone" env:"ORG_TIMEZONE"`
		PublicBaseURL        string `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
		CalendarDomain       string `yaml:"calendar_domain" env:"CALENDAR_DOMAIN"`
		CalendarRefreshHours int    `yaml:"calendar_refresh_hours" env:"CALENDAR_REFRESH_HOURS"`
	} `yaml:"organization"`

	RateLimit struct {
		Enabled           bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		RequestsPerMinute int    `yaml:"requests_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
		Burst             int    `yaml:"burst" env:"RATE_LIMIT_BURST"`
		LoginPerMinute    int    `yaml:"login_per_minute" env:"RATE_LIMIT_LOGIN_PER_MINUTE"`
		LoginPerHour      int    `yaml:"login_per_hour" env:"RATE_LIMIT_LOGIN_PER_HOUR"`
		MaxKeys           int    `yaml:"max_keys" env:"RATE_LIMIT_MAX_KEYS"`
		IdleTTL           string `yaml:"idle_ttl" env:"RATE_LIMIT_IDLE_TTL"`
	} `yaml:"rate_limit"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		DryRun    bool   `yaml:"dry_run" env:"SMTP_DRY_RUN"`
	} `yaml:"smtp"`

	Admin struct {
		Email    string `yaml:"email" env:"ADMIN_EMAIL"`
		Name     string `yaml:"name" env:"ADMIN_NAME"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	} `yaml:"admin"`
}

// LoadConfig loads configuration from a .env file, a YAML file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// .env is optional; variables already present in the environment win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "10s"
	config.Server.WriteTimeout = "30s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "sessions"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "sessions-api"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Organization.Name = "After School Club"
	config.Organization.Timezone = "Pacific/Auckland"
	config.Organization.PublicBaseURL = "http://localhost:8080"
	config.Organization.CalendarDomain = "sessions.local"
	config.Organization.CalendarRefreshHours = 24

	config.RateLimit.Enabled = true
	config.RateLimit.RequestsPerMinute = 60
	config.RateLimit.Burst = 20
	config.RateLimit.LoginPerMinute = 3
	config.RateLimit.LoginPerHour = 10
	config.RateLimit.MaxKeys = 10000
	config.RateLimit.IdleTTL = "10m"

	config.SMTP.Port = 587
	config.SMTP.FromName = "After School Club"
	config.SMTP.UseTLS = false
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.LoadLocation(config.Organization.Timezone); err != nil {
		return fmt.Errorf("invalid organization timezone %q: %w", config.Organization.Timezone, err)
	}

	if config.RateLimitActive() {
		if config.RateLimit.RequestsPerMinute <= 0 || config.RateLimit.LoginPerMinute <= 0 {
			return fmt.Errorf("rate limits must be positive when rate limiting is enabled")
		}
		if _, err := time.ParseDuration(config.RateLimit.IdleTTL); err != nil {
			return fmt.Errorf("invalid rate limit idle TTL: %w", err)
		}
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Mode, "development")
}

// RateLimitActive reports whether requests are rate limited. Limits can only
// be switched off in development mode.
func (c *Config) RateLimitActive() bool {
	return c.RateLimit.Enabled || !c.IsDevelopment()
}

// Location returns the organization's default time zone.
// validateConfig guarantees the name loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Organization.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
