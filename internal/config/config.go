// Package config loads the service configuration from environment
// variables and validates it before anything starts.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Driver types selectable through the environment.
const (
	DriverDiscord  = "discord"
	DriverTelegram = "telegram"
)

// Config is the fully validated service configuration.
type Config struct {
	Driver    string `env:"HATCHWATCH_DRIVER" envDefault:"discord"`
	ChannelID string `env:"HATCHWATCH_CHANNEL_ID"`

	Port            int           `env:"HATCHWATCH_PORT" envDefault:"3000"`
	RetentionWindow time.Duration `env:"HATCHWATCH_RETENTION_WINDOW" envDefault:"30m"`
	SweepInterval   time.Duration `env:"HATCHWATCH_SWEEP_INTERVAL" envDefault:"1m"`
	ReplaySnapshot  bool          `env:"HATCHWATCH_REPLAY_SNAPSHOT" envDefault:"true"`
	RawLogLevel     string        `env:"HATCHWATCH_LOG_LEVEL" envDefault:"info"`

	DiscordToken string `env:"HATCHWATCH_DISCORD_TOKEN"`

	TelegramAPIID       int    `env:"HATCHWATCH_TELEGRAM_API_ID"`
	TelegramAPIHash     string `env:"HATCHWATCH_TELEGRAM_API_HASH"`
	TelegramPhone       string `env:"HATCHWATCH_TELEGRAM_PHONE"`
	TelegramPassword    string `env:"HATCHWATCH_TELEGRAM_PASSWORD"`
	TelegramCode        string `env:"HATCHWATCH_TELEGRAM_CODE"`
	TelegramSessionFile string `env:"HATCHWATCH_TELEGRAM_SESSION_FILE" envDefault:"session.json"`

	// LogLevel is derived from RawLogLevel during Load.
	LogLevel slog.Level
}

// Load parses and validates configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	level, err := parseLogLevel(cfg.RawLogLevel)
	if err != nil {
		return Config{}, fmt.Errorf("parse HATCHWATCH_LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ChannelID) == "" {
		return fmt.Errorf("HATCHWATCH_CHANNEL_ID is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("HATCHWATCH_PORT must be in 1..65535, got %d", c.Port)
	}
	if c.RetentionWindow <= 0 {
		return fmt.Errorf("HATCHWATCH_RETENTION_WINDOW must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("HATCHWATCH_SWEEP_INTERVAL must be > 0")
	}

	switch c.Driver {
	case DriverDiscord:
		if strings.TrimSpace(c.DiscordToken) == "" {
			return fmt.Errorf("HATCHWATCH_DISCORD_TOKEN is required for the discord driver")
		}
	case DriverTelegram:
		if c.TelegramAPIID <= 0 {
			return fmt.Errorf("HATCHWATCH_TELEGRAM_API_ID is required for the telegram driver")
		}
		if strings.TrimSpace(c.TelegramAPIHash) == "" {
			return fmt.Errorf("HATCHWATCH_TELEGRAM_API_HASH is required for the telegram driver")
		}
		if strings.TrimSpace(c.TelegramPhone) == "" {
			return fmt.Errorf("HATCHWATCH_TELEGRAM_PHONE is required for the telegram driver")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}

	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}
