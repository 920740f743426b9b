package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds everything the service reads from the environment
type Config struct {
	Port        string `env:"PORT,default=8080"`
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	OTP       OTPConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Orders    OrderConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig

	UseMemoryStore bool `env:"USE_MEMORY_STORE,default=false"`
}

// OTPConfig controls passcode lifetime and verification limits
type OTPConfig struct {
	ExpirySeconds int `env:"OTP_EXPIRY_SECONDS,default=30"`
	MaxAttempts   int `env:"OTP_MAX_ATTEMPTS,default=3"`
	HashCost      int `env:"OTP_HASH_COST,default=10"`
}

// TTL returns the passcode validity window
func (o OTPConfig) TTL() time.Duration {
	return time.Duration(o.ExpirySeconds) * time.Second
}

// DatabaseConfig locates the postgres datastore
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST,default=localhost"`
	Port     int    `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER,default=postgres"`
	Password string `env:"DB_PASS"`
	Name     string `env:"DB_NAME,default=medismart"`
	SSLMode  string `env:"DB_SSLMODE,default=disable"`

	// Cloud SQL instance; when set the connection goes through /cloudsql/<name>
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	MaxOpenConns int `env:"DB_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns int `env:"DB_MAX_IDLE_CONNS,default=5"`
}

// DSN builds the postgres connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.InstanceConnectionName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			d.InstanceConnectionName, d.User, d.Password, d.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// SessionConfig controls the login cookie
type SessionConfig struct {
	TTLMinutes   int  `env:"SESSION_TTL_MINUTES,default=30"`
	CookieSecure bool `env:"SESSION_COOKIE_SECURE,default=false"`
}

// TTL returns the session lifetime
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// OrderConfig controls order placement behaviour
type OrderConfig struct {
	// DecrementStock makes placement reserve stock with a conditional update
	DecrementStock    bool `env:"DECREMENT_STOCK,default=false"`
	LowStockThreshold int  `env:"LOW_STOCK_THRESHOLD,default=20"`
}

// RateLimitConfig limits auth requests per client IP
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"AUTH_RATE_LIMIT,default=1"`
	Burst             int     `env:"AUTH_RATE_BURST,default=5"`
}

// JobsConfig holds cron schedules
type JobsConfig struct {
	StockReportSchedule string `env:"STOCK_REPORT_SCHEDULE,default=0 8 * * *"`
}

// LoadEnvFiles loads .env for local development. Missing files are not an error.
func LoadEnvFiles() {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("environments/.env.development"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}
}

// Load decodes and validates the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.OTP.ExpirySeconds <= 0 {
		return fmt.Errorf("OTP_EXPIRY_SECONDS must be positive, got %d", c.OTP.ExpirySeconds)
	}
	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive, got %d", c.OTP.MaxAttempts)
	}
	if c.OTP.HashCost < bcrypt.MinCost || c.OTP.HashCost > bcrypt.MaxCost {
		return fmt.Errorf("OTP_HASH_COST must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.OTP.HashCost)
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.Session.TTLMinutes)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs locally
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
