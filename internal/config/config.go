package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultSecret = "change-me"

// Config holds the application configuration.
type Config struct {
	ServerPort      int           `env:"PORT" envDefault:"8080"`
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	DatabaseDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"./calculations.db"`

	SecretKey   string        `env:"SECRET_KEY" envDefault:"change-me"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"calculations-api"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load loads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	e := strings.ToLower(c.AppEnv)
	return e == "production" || e == "prod"
}

// Validate checks values env parsing cannot.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.ServerPort)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s (supported: sqlite, postgres)", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must be set")
	}
	if c.IsProduction() && (c.SecretKey == defaultSecret || len(c.SecretKey) < 32) {
		return errors.New("SECRET_KEY must be set to at least 32 bytes in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL: %s", c.TokenTTL)
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST: %d", c.BcryptCost)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s (supported: console, json)", c.LogFormat)
	}
	return nil
}
