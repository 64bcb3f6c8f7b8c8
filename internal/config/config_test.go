package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()

	t.Setenv("HATCHWATCH_CHANNEL_ID", "channel-1")
	t.Setenv("HATCHWATCH_DISCORD_TOKEN", "token")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Driver != DriverDiscord {
		t.Fatalf("driver = %q, want discord default", cfg.Driver)
	}
	if cfg.Port != 3000 {
		t.Fatalf("port = %d, want 3000", cfg.Port)
	}
	if cfg.RetentionWindow != 30*time.Minute {
		t.Fatalf("retention window = %v, want 30m", cfg.RetentionWindow)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("sweep interval = %v, want 1m", cfg.SweepInterval)
	}
	if !cfg.ReplaySnapshot {
		t.Fatal("replay snapshot disabled, want enabled by default")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("log level = %v, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("HATCHWATCH_PORT", "8080")
	t.Setenv("HATCHWATCH_RETENTION_WINDOW", "310000ms")
	t.Setenv("HATCHWATCH_SWEEP_INTERVAL", "30s")
	t.Setenv("HATCHWATCH_REPLAY_SNAPSHOT", "false")
	t.Setenv("HATCHWATCH_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Port)
	}
	if cfg.RetentionWindow != 310000*time.Millisecond {
		t.Fatalf("retention window = %v, want 310000ms", cfg.RetentionWindow)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("sweep interval = %v, want 30s", cfg.SweepInterval)
	}
	if cfg.ReplaySnapshot {
		t.Fatal("replay snapshot enabled, want disabled")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("log level = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadTelegramCredentials(t *testing.T) {
	t.Setenv("HATCHWATCH_CHANNEL_ID", "channel-1")
	t.Setenv("HATCHWATCH_DRIVER", "telegram")
	t.Setenv("HATCHWATCH_TELEGRAM_API_ID", "12345")
	t.Setenv("HATCHWATCH_TELEGRAM_API_HASH", "hash")
	t.Setenv("HATCHWATCH_TELEGRAM_PHONE", "+15550001111")
	t.Setenv("HATCHWATCH_TELEGRAM_PASSWORD", "hunter2")
	t.Setenv("HATCHWATCH_TELEGRAM_CODE", "424242")
	t.Setenv("HATCHWATCH_TELEGRAM_SESSION_FILE", "/var/lib/hatchwatch/session.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TelegramAPIID != 12345 {
		t.Fatalf("telegram api id = %d, want 12345", cfg.TelegramAPIID)
	}
	if cfg.TelegramAPIHash != "hash" {
		t.Fatalf("telegram api hash = %q, want %q", cfg.TelegramAPIHash, "hash")
	}
	if cfg.TelegramPhone != "+15550001111" {
		t.Fatalf("telegram phone = %q, want %q", cfg.TelegramPhone, "+15550001111")
	}
	if cfg.TelegramPassword != "hunter2" {
		t.Fatalf("telegram password = %q, want %q", cfg.TelegramPassword, "hunter2")
	}
	if cfg.TelegramCode != "424242" {
		t.Fatalf("telegram code = %q, want %q", cfg.TelegramCode, "424242")
	}
	if cfg.TelegramSessionFile != "/var/lib/hatchwatch/session.json" {
		t.Fatalf("telegram session file = %q, want %q",
			cfg.TelegramSessionFile, "/var/lib/hatchwatch/session.json")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing channel id",
			env:     map[string]string{"HATCHWATCH_DISCORD_TOKEN": "token"},
			wantErr: "HATCHWATCH_CHANNEL_ID",
		},
		{
			name:    "missing discord token",
			env:     map[string]string{"HATCHWATCH_CHANNEL_ID": "channel-1"},
			wantErr: "HATCHWATCH_DISCORD_TOKEN",
		},
		{
			name: "telegram driver missing api id",
			env: map[string]string{
				"HATCHWATCH_CHANNEL_ID": "channel-1",
				"HATCHWATCH_DRIVER":     "telegram",
			},
			wantErr: "HATCHWATCH_TELEGRAM_API_ID",
		},
		{
			name: "unknown driver",
			env: map[string]string{
				"HATCHWATCH_CHANNEL_ID": "channel-1",
				"HATCHWATCH_DRIVER":     "irc",
			},
			wantErr: "unsupported driver",
		},
		{
			name: "invalid port",
			env: map[string]string{
				"HATCHWATCH_CHANNEL_ID":    "channel-1",
				"HATCHWATCH_DISCORD_TOKEN": "token",
				"HATCHWATCH_PORT":          "70000",
			},
			wantErr: "HATCHWATCH_PORT",
		},
		{
			name: "non-positive retention window",
			env: map[string]string{
				"HATCHWATCH_CHANNEL_ID":       "channel-1",
				"HATCHWATCH_DISCORD_TOKEN":    "token",
				"HATCHWATCH_RETENTION_WINDOW": "-5m",
			},
			wantErr: "HATCHWATCH_RETENTION_WINDOW",
		},
		{
			name: "unknown log level",
			env: map[string]string{
				"HATCHWATCH_CHANNEL_ID":    "channel-1",
				"HATCHWATCH_DISCORD_TOKEN": "token",
				"HATCHWATCH_LOG_LEVEL":     "loud",
			},
			wantErr: "HATCHWATCH_LOG_LEVEL",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			for key, value := range testCase.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("load succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), testCase.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, testCase.wantErr)
			}
		})
	}
}
