package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/Mahir9011/Cupid-Crochy/pkg/config"
)

// Fallback store backends.
const (
	FallbackRedis  = "redis"
	FallbackMemory = "memory"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Hosted backend (PostgreSQL). When disabled or unreachable at startup the
	// service runs from the fallback cache only.
	BackendEnabled   bool   `env:"BACKEND_ENABLED" envDefault:"true"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"cupid"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"cupid_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"cupid_crochy"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart persistence
	CartTTLHours      int `env:"CART_TTL_HOURS" envDefault:"720"`
	CartSaveTimeoutMS int `env:"CART_SAVE_TIMEOUT_MS" envDefault:"500"`

	// Fallback cache backend: "redis" or "memory".
	FallbackStore string `env:"FALLBACK_STORE" envDefault:"redis"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Checkout
	ShippingFee            string  `env:"SHIPPING_FEE" envDefault:"50"`
	CheckoutRateLimitRPS   float64 `env:"CHECKOUT_RATE_LIMIT_RPS" envDefault:"1"`
	CheckoutRateLimitBurst int     `env:"CHECKOUT_RATE_LIMIT_BURST" envDefault:"5"`

	// Admin auth
	JWTSecret  string   `env:"AUTH_JWT_SECRET" envDefault:"change-me-in-production"`
	AdminRoles []string `env:"ADMIN_ROLES" envDefault:"admin" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Backend circuit breaker
	BreakerTimeoutSec int `env:"BACKEND_BREAKER_TIMEOUT_SEC" envDefault:"30"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	fee, err := decimal.NewFromString(strings.TrimSpace(c.ShippingFee))
	if err != nil {
		return fmt.Errorf("invalid SHIPPING_FEE %q: %w", c.ShippingFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("SHIPPING_FEE must not be negative, got %s", c.ShippingFee)
	}
	switch c.FallbackStore {
	case FallbackRedis, FallbackMemory:
	default:
		return fmt.Errorf("unknown FALLBACK_STORE %q", c.FallbackStore)
	}
	if c.CartTTLHours < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTLHours)
	}
	if c.CartSaveTimeoutMS <= 0 {
		return fmt.Errorf("CART_SAVE_TIMEOUT_MS must be positive, got %d", c.CartSaveTimeoutMS)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}

// CartTTL returns the cart key expiry. Zero disables expiry.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// CartSaveTimeout bounds a single cart persistence write.
func (c *Config) CartSaveTimeout() time.Duration {
	return time.Duration(c.CartSaveTimeoutMS) * time.Millisecond
}

// BreakerTimeout is how long the backend breaker stays open.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSec) * time.Second
}

// ShippingFeeAmount returns the validated flat shipping fee.
func (c *Config) ShippingFeeAmount() decimal.Decimal {
	return decimal.RequireFromString(strings.TrimSpace(c.ShippingFee))
}
