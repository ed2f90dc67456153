package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the demo binary's configuration.
// Tags:
//
//	env: Environment variable name
//	envDefault: Default value if not set
type Config struct {
	Host string `env:"NATSLINE_HOST" envDefault:"127.0.0.1"`
	Port int    `env:"NATSLINE_PORT" envDefault:"4222"`

	ConnectTimeout time.Duration `env:"NATSLINE_CONNECT_TIMEOUT" envDefault:"2s"`
	PingInterval   time.Duration `env:"NATSLINE_PING_INTERVAL" envDefault:"2m"`

	User     string `env:"NATSLINE_USER" envDefault:""`
	Password string `env:"NATSLINE_PASSWORD" envDefault:""`
	Token    string `env:"NATSLINE_TOKEN" envDefault:""`

	// PublishRatePerSec throttles outgoing publishes via golang.org/x/time/rate.
	PublishRatePerSec float64 `env:"NATSLINE_PUBLISH_RATE" envDefault:"50"`
	PublishBurst      int     `env:"NATSLINE_PUBLISH_BURST" envDefault:"10"`

	MetricsAddr string `env:"NATSLINE_METRICS_ADDR" envDefault:":9102"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Subject      string `env:"NATSLINE_DEMO_SUBJECT" envDefault:"odinline.demo"`
	StreamName   string `env:"NATSLINE_STREAM_NAME" envDefault:"ODINLINE_DEMO"`
	ConsumerName string `env:"NATSLINE_CONSUMER_NAME" envDefault:"odinline-demo-consumer"`
}

// LoadConfig reads configuration from a .env file (if present) and the
// environment, matching ws/config.go's LoadConfig: env vars override the
// .env file, both override the struct defaults.
func LoadConfig(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found (using environment variables only)")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration for errors, the same shape as ws/config.go's
// Validate: required fields, range checks, enum checks.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("NATSLINE_HOST is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("NATSLINE_PORT must be 1-65535, got %d", c.Port)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("NATSLINE_CONNECT_TIMEOUT must be > 0")
	}
	if c.User != "" && c.Token != "" {
		return fmt.Errorf("only one of NATSLINE_USER or NATSLINE_TOKEN may be set")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", c.LogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "text": true, "pretty": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, text, pretty (got: %s)", c.LogFormat)
	}
	return nil
}

// LogConfig logs the loaded configuration, mirroring ws/config.go's
// LogConfig (structured, Loki-compatible fields).
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Str("host", c.Host).
		Int("port", c.Port).
		Dur("connect_timeout", c.ConnectTimeout).
		Dur("ping_interval", c.PingInterval).
		Float64("publish_rate_per_sec", c.PublishRatePerSec).
		Int("publish_burst", c.PublishBurst).
		Str("metrics_addr", c.MetricsAddr).
		Str("subject", c.Subject).
		Str("stream_name", c.StreamName).
		Str("consumer_name", c.ConsumerName).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("odinline-demo configuration loaded")
}
