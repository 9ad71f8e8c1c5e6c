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
	Backend   BackendConfig   `yaml:"backend"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Hints     HintsConfig     `yaml:"hints"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Cart      CartConfig      `yaml:"cart"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	OrdersURL   string `yaml:"orders_url"`   // where the payment-return view sends the user
	CheckoutURL string `yaml:"checkout_url"` // "try again" link on the payment-return view
}

// BackendConfig contains the remote cart/catalog REST service settings
type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the backend
type BreakerConfig struct {
	MaxConsecutiveFailures uint32 `yaml:"max_consecutive_failures"`
	OpenTimeoutSeconds     int    `yaml:"open_timeout_seconds"`
	HalfOpenMaxRequests    uint32 `yaml:"half_open_max_requests"`
}

// StripeConfig contains payment provider settings. Status lookups by client
// secret only need the publishable key.
type StripeConfig struct {
	PublishableKey string `yaml:"publishable_key"`
	APIBaseURL     string `yaml:"api_base_url"` // overrides api.stripe.com, for stripe-mock
}

// HintsConfig selects the store backing the single-use checkout hints
type HintsConfig struct {
	Type       string         `yaml:"type"` // "memory", "redis" or "postgres"
	TTLMinutes int            `yaml:"ttl_minutes"`
	Redis      RedisConfig    `yaml:"redis"`
	Database   DatabaseConfig `yaml:"database"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains the secret shared with the auth service
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RefreshConfig bounds the catalog lookups a cart refresh runs at once
type RefreshConfig struct {
	MaxConcurrentLookups int `yaml:"max_concurrent_lookups"`
}

// CartConfig controls how long an unused cart stays in memory
type CartConfig struct {
	IdleTimeoutMinutes int `yaml:"idle_timeout_minutes"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SweepExpiredHints string `yaml:"sweep_expired_hints"`
	EvictIdleCarts    string `yaml:"evict_idle_carts"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates
func Parse(data []byte) (*Config, error) {
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
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Backend
	if val := os.Getenv("BACKEND_BASE_URL"); val != "" {
		c.Backend.BaseURL = val
	}

	// Stripe
	if val := os.Getenv("STRIPE_PUBLISHABLE_KEY"); val != "" {
		c.Stripe.PublishableKey = val
	}
	if val := os.Getenv("STRIPE_API_BASE_URL"); val != "" {
		c.Stripe.APIBaseURL = val
	}

	// Hints
	if val := os.Getenv("HINTS_STORE"); val != "" {
		c.Hints.Type = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Hints.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Hints.Redis.Password = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Hints.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Hints.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Hints.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Hints.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Hints.Database.Database = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
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

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.OrdersURL == "" {
		c.Server.OrdersURL = "/borrowing"
	}
	if c.Server.CheckoutURL == "" {
		c.Server.CheckoutURL = "/checkout"
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.Backend.Breaker.MaxConsecutiveFailures == 0 {
		c.Backend.Breaker.MaxConsecutiveFailures = 5
	}
	if c.Backend.Breaker.OpenTimeoutSeconds <= 0 {
		c.Backend.Breaker.OpenTimeoutSeconds = 30
	}
	if c.Backend.Breaker.HalfOpenMaxRequests == 0 {
		c.Backend.Breaker.HalfOpenMaxRequests = 1
	}

	if c.Stripe.PublishableKey == "" {
		return fmt.Errorf("stripe publishable key is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	switch c.Hints.Type {
	case "":
		c.Hints.Type = "memory"
	case "memory":
	case "redis":
		if c.Hints.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for redis hint store")
		}
	case "postgres":
		if c.Hints.Database.Host == "" {
			return fmt.Errorf("database host is required for postgres hint store")
		}
		if c.Hints.Database.Database == "" {
			return fmt.Errorf("database name is required for postgres hint store")
		}
	default:
		return fmt.Errorf("unsupported hint store type: %q", c.Hints.Type)
	}
	if c.Hints.TTLMinutes <= 0 {
		c.Hints.TTLMinutes = 60
	}

	if c.Refresh.MaxConcurrentLookups <= 0 {
		c.Refresh.MaxConcurrentLookups = 8
	}

	if c.Cart.IdleTimeoutMinutes <= 0 {
		c.Cart.IdleTimeoutMinutes = 30
	}

	if c.Scheduler.SweepExpiredHints == "" {
		c.Scheduler.SweepExpiredHints = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.EvictIdleCarts == "" {
		c.Scheduler.EvictIdleCarts = "30 * * * * *" // every minute
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	db := c.Hints.Database
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Database,
		db.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BackendTimeout returns the per-request timeout for the cart and catalog services
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// HintTTL returns how long stashed checkout hints stay readable
func (c *Config) HintTTL() time.Duration {
	return time.Duration(c.Hints.TTLMinutes) * time.Minute
}

// CartIdleTimeout returns how long an unused cart is kept in memory
func (c *Config) CartIdleTimeout() time.Duration {
	return time.Duration(c.Cart.IdleTimeoutMinutes) * time.Minute
}
