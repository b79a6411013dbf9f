package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// BaseURL is the trusted origin verification links point back to.
	// A missing or malformed value aborts startup; issuance never
	// constructs a link from an unvalidated origin.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080" validate:"required,url"`

	// AppHomeURL is where a freshly authenticated browser lands.
	// AppErrorURL is the client's recovery surface for failed verifications.
	AppHomeURL  string `env:"APP_HOME_URL" envDefault:"http://localhost:3000/" validate:"required,url"`
	AppErrorURL string `env:"APP_ERROR_URL" envDefault:"http://localhost:3000/auth/error" validate:"required,url"`

	MagicLinkTTLMin int `env:"MAGIC_LINK_TTL_MIN" envDefault:"15" validate:"min=10,max=30"`
	SessionTTLHours int `env:"SESSION_TTL_HOURS" envDefault:"24" validate:"min=1,max=720"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) MagicLinkTTL() time.Duration {
	return time.Duration(c.MagicLinkTTLMin) * time.Minute
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
