package driver

import (
	"context"
	"fmt"
	"log/slog"

	"hatchwatch/internal/config"
	"hatchwatch/internal/driver/discord"
	"hatchwatch/internal/driver/telegram"
	"hatchwatch/pkg/hatchwatch"
)

// NewBuiltinRegistry constructs the registry with all built-in feed drivers.
func NewBuiltinRegistry() (*Registry, error) {
	return NewRegistry([]Descriptor{
		{
			Type: config.DriverDiscord,
			Builder: func(
				_ context.Context,
				cfg config.Config,
				builderLogger *slog.Logger,
			) (hatchwatch.Driver, error) {
				built, err := discord.New(cfg.DiscordToken, discord.WithLogger(builderLogger))
				if err != nil {
					return nil, fmt.Errorf("build discord driver: %w", err)
				}

				return built, nil
			},
		},
		{
			Type: config.DriverTelegram,
			Builder: func(
				_ context.Context,
				cfg config.Config,
				builderLogger *slog.Logger,
			) (hatchwatch.Driver, error) {
				built, err := telegram.New(telegram.Config{
					APIID:       cfg.TelegramAPIID,
					APIHash:     cfg.TelegramAPIHash,
					Phone:       cfg.TelegramPhone,
					Password:    cfg.TelegramPassword,
					Code:        cfg.TelegramCode,
					SessionFile: cfg.TelegramSessionFile,
				}, telegram.WithLogger(builderLogger))
				if err != nil {
					return nil, fmt.Errorf("build telegram driver: %w", err)
				}

				return built, nil
			},
		},
	})
}
