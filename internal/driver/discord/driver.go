// Package discord runs the Discord feed driver: it watches guild message
// events through a gateway session and publishes every message to the
// feed sink.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"hatchwatch/pkg/hatchwatch"
)

// DriverType is the configuration token selecting this driver.
const DriverType = "discord"

const defaultPublishTimeout = 5 * time.Second

// Option mutates driver configuration.
type Option func(*Driver)

// WithLogger injects a logger for session reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(driver *Driver) {
		if logger != nil {
			driver.logger = logger
		}
	}
}

// WithPublishTimeout bounds how long one message may spend in the sink.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(driver *Driver) {
		if timeout > 0 {
			driver.publishTimeout = timeout
		}
	}
}

// Driver is the Discord gateway feed driver.
type Driver struct {
	logger         *slog.Logger
	session        *discordgo.Session
	publishTimeout time.Duration

	mu     sync.Mutex
	sink   hatchwatch.FeedSink
	runCtx context.Context
}

// New creates a driver with an unopened gateway session.
func New(token string, options ...Option) (*Driver, error) {
	if token == "" {
		return nil, fmt.Errorf("new discord driver: empty token")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("new discord driver: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	driver := &Driver{
		logger:         slog.Default(),
		session:        session,
		publishTimeout: defaultPublishTimeout,
	}
	for _, option := range options {
		option(driver)
	}

	return driver, nil
}

// Name returns the stable driver identifier.
func (d *Driver) Name() string {
	return DriverType
}

// Start opens the gateway session and blocks until ctx is cancelled.
func (d *Driver) Start(ctx context.Context, sink hatchwatch.FeedSink) error {
	if sink == nil {
		return fmt.Errorf("discord driver start: nil sink")
	}

	d.mu.Lock()
	d.sink = sink
	d.runCtx = ctx
	d.mu.Unlock()

	d.session.AddHandler(d.handleMessageCreate)

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("discord driver start: open session: %w", err)
	}
	d.logger.Info("discord session opened")

	<-ctx.Done()

	return nil
}

// Shutdown closes the gateway session.
func (d *Driver) Shutdown(_ context.Context) error {
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("discord driver shutdown: %w", err)
	}
	d.logger.Info("discord session closed")

	return nil
}

func (d *Driver) handleMessageCreate(_ *discordgo.Session, event *discordgo.MessageCreate) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("panic in discord message handler", "panic", recovered)
		}
	}()

	d.mu.Lock()
	sink := d.sink
	runCtx := d.runCtx
	d.mu.Unlock()
	if sink == nil || runCtx == nil || runCtx.Err() != nil {
		return
	}

	message := mapMessage(event)
	if message == nil {
		return
	}

	ctx, cancel := context.WithTimeout(runCtx, d.publishTimeout)
	defer cancel()
	if err := sink.Publish(ctx, message); err != nil {
		d.logger.Warn("publish feed message",
			"channel_id", message.ChannelID,
			"error", err,
		)
	}
}

var _ hatchwatch.Driver = (*Driver)(nil)
