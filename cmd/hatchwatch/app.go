package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"hatchwatch/internal/config"
	"hatchwatch/internal/driver"
	"hatchwatch/internal/hub"
	"hatchwatch/internal/ingest"
	"hatchwatch/internal/metrics"
	"hatchwatch/internal/server"
	"hatchwatch/internal/store"
)

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	registry, err := driver.NewBuiltinRegistry()
	if err != nil {
		return fmt.Errorf("new builtin driver registry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collectors := metrics.New()
	records := store.New(
		store.WithLogger(logger),
		store.WithRetention(cfg.RetentionWindow),
	)
	fanout := hub.New(
		hub.WithLogger(logger),
		hub.WithReplay(cfg.ReplaySnapshot),
		hub.WithMetrics(collectors),
	)
	coordinator := ingest.New(cfg.ChannelID, records, fanout,
		ingest.WithLogger(logger),
		ingest.WithRecorder(collectors),
	)

	feed, err := registry.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build feed driver: %w", err)
	}

	sweeper := store.NewSweeper(records,
		store.WithSweeperLogger(logger),
		store.WithSweepInterval(cfg.SweepInterval),
		store.WithSweepObserver(collectors.RecordsEvicted),
	)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer sweeper.Stop()

	addr := net.JoinHostPort("", strconv.Itoa(cfg.Port))
	httpServer := server.New(addr, records, fanout,
		server.WithLogger(logger),
		server.WithMetricsHandler(collectors.Handler()),
	)

	logger.Info("hatchwatch starting",
		"driver", feed.Name(),
		"channel_id", cfg.ChannelID,
		"port", cfg.Port,
		"retention_window", cfg.RetentionWindow,
		"sweep_interval", cfg.SweepInterval,
	)

	errCh := make(chan error, 2)
	go func() {
		if err := feed.Start(ctx, coordinator); err != nil {
			errCh <- fmt.Errorf("feed driver: %w", err)
			return
		}
		errCh <- nil
	}()
	go func() {
		if err := httpServer.Run(ctx); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	var runErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
		stop()
	case <-ctx.Done():
	}

	shutdownCtx := context.Background()
	if err := feed.Shutdown(shutdownCtx); err != nil {
		logger.Warn("feed driver shutdown", "error", err)
	}
	if err := fanout.Close(); err != nil {
		logger.Warn("hub close", "error", err)
	}
	<-errCh

	logger.Info("hatchwatch stopped")

	return runErr
}
