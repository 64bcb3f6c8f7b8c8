// Package telegram runs the Telegram feed driver: a gotd userbot session
// that watches channel posts and publishes them to the feed sink.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gotdtelegram "github.com/gotd/td/telegram"

	"hatchwatch/pkg/hatchwatch"
)

// DriverType is the configuration token selecting this driver.
const DriverType = "telegram"

const (
	defaultPublishTimeout = 5 * time.Second
	defaultUpdateBuffer   = 256
	defaultAuthTimeout    = 3 * time.Minute
)

// Config holds the credentials and session settings for one userbot.
type Config struct {
	APIID       int
	APIHash     string
	Phone       string
	Password    string
	Code        string
	SessionFile string
}

func (c Config) validate() error {
	if c.APIID <= 0 {
		return fmt.Errorf("api id must be > 0")
	}
	if strings.TrimSpace(c.APIHash) == "" {
		return fmt.Errorf("api hash is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	if strings.TrimSpace(c.SessionFile) == "" {
		return fmt.Errorf("session file is required")
	}

	return nil
}

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

// WithPublishTimeout bounds how long one update may spend in the sink.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(driver *Driver) {
		if timeout > 0 {
			driver.publishTimeout = timeout
		}
	}
}

// WithUpdateBuffer sets the raw update channel capacity.
func WithUpdateBuffer(buffer int) Option {
	return func(driver *Driver) {
		if buffer > 0 {
			driver.updateBuffer = buffer
		}
	}
}

// Driver is the Telegram userbot feed driver.
type Driver struct {
	logger         *slog.Logger
	cfg            Config
	publishTimeout time.Duration
	authTimeout    time.Duration
	updateBuffer   int

	updates *updateChannel
	client  *gotdtelegram.Client
}

// New creates a driver with an unconnected gotd client.
func New(cfg Config, options ...Option) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("new telegram driver: %w", err)
	}

	driver := &Driver{
		logger:         slog.Default(),
		cfg:            cfg,
		publishTimeout: defaultPublishTimeout,
		authTimeout:    defaultAuthTimeout,
		updateBuffer:   defaultUpdateBuffer,
	}
	for _, option := range options {
		option(driver)
	}

	driver.updates = newUpdateChannel(driver.updateBuffer)

	storage, err := newSessionStorage(cfg.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("new telegram driver: %w", err)
	}
	driver.client = gotdtelegram.NewClient(cfg.APIID, cfg.APIHash, gotdtelegram.Options{
		UpdateHandler:  driver.updates,
		SessionStorage: storage,
	})

	return driver, nil
}

// Name returns the stable driver identifier.
func (d *Driver) Name() string {
	return DriverType
}

// Start runs the userbot session and forwards mapped channel posts to sink
// until ctx is cancelled.
func (d *Driver) Start(ctx context.Context, sink hatchwatch.FeedSink) error {
	if sink == nil {
		return fmt.Errorf("telegram driver start: nil sink")
	}

	err := d.client.Run(ctx, func(runCtx context.Context) error {
		if err := d.authenticate(runCtx); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		d.logger.Info("telegram session running", "session_file", d.cfg.SessionFile)

		for {
			select {
			case <-runCtx.Done():
				return nil
			case update, ok := <-d.updates.stream():
				if !ok {
					return nil
				}
				d.publish(runCtx, sink, update)
			}
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("telegram driver run: %w", err)
	}

	return nil
}

// Shutdown is a no-op: the session lifecycle is bound to the Start context.
func (d *Driver) Shutdown(_ context.Context) error {
	return nil
}

func (d *Driver) publish(ctx context.Context, sink hatchwatch.FeedSink, update rawUpdate) {
	message := mapUpdate(update)
	if message == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()
	if err := sink.Publish(publishCtx, message); err != nil {
		d.logger.Warn("publish feed message",
			"channel_id", message.ChannelID,
			"error", err,
		)
	}
}

var _ hatchwatch.Driver = (*Driver)(nil)
