package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hatchwatch/internal/extract"
	"hatchwatch/internal/metrics"
	"hatchwatch/pkg/hatchwatch"
)

const (
	jobIDFieldLabel      = "Job ID"
	serverNameFieldLabel = "Server Name"
)

// Merger folds sightings into the live record set.
type Merger interface {
	MergeInsert(candidate hatchwatch.Candidate) hatchwatch.Record
}

// Broadcaster pushes merged records to subscribers.
type Broadcaster interface {
	Broadcast(record hatchwatch.Record) int
}

// Recorder receives ingest pipeline signals.
type Recorder interface {
	MessageReceived()
	MessageIgnored(reason string)
	RecordMerged()
}

type nopRecorder struct{}

func (nopRecorder) MessageReceived()      {}
func (nopRecorder) MessageIgnored(string) {}
func (nopRecorder) RecordMerged()         {}

// Option mutates coordinator configuration.
type Option func(*Coordinator)

// WithLogger injects a logger for pipeline reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(coordinator *Coordinator) {
		if logger != nil {
			coordinator.logger = logger
		}
	}
}

// WithRecorder injects a metrics sink.
func WithRecorder(recorder Recorder) Option {
	return func(coordinator *Coordinator) {
		if recorder != nil {
			coordinator.recorder = recorder
		}
	}
}

// Coordinator is the feed sink of the service: every message a feed driver
// publishes flows through Publish exactly once.
type Coordinator struct {
	logger    *slog.Logger
	recorder  Recorder
	store     Merger
	broadcast Broadcaster
	channelID string
	clock     func() time.Time
}

// New creates a coordinator watching one feed channel.
func New(channelID string, store Merger, broadcast Broadcaster, options ...Option) *Coordinator {
	coordinator := &Coordinator{
		logger:    slog.Default(),
		recorder:  nopRecorder{},
		store:     store,
		broadcast: broadcast,
		channelID: channelID,
		clock:     time.Now,
	}
	for _, option := range options {
		option(coordinator)
	}

	return coordinator
}

// Publish ingests one feed message. Messages from other channels and
// messages without a structured payload are dropped silently; only a
// malformed message surfaces an error to the driver.
func (c *Coordinator) Publish(ctx context.Context, message *hatchwatch.FeedMessage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ingest publish: %w", err)
	}
	if err := message.Validate(); err != nil {
		c.recorder.MessageIgnored(metrics.IgnoreReasonInvalid)
		return fmt.Errorf("ingest publish: %w", err)
	}

	c.recorder.MessageReceived()

	if message.ChannelID != c.channelID {
		c.recorder.MessageIgnored(metrics.IgnoreReasonChannel)
		return nil
	}
	if !message.Embedded || message.Description == "" {
		c.recorder.MessageIgnored(metrics.IgnoreReasonStructure)
		return nil
	}

	jobID := c.fieldOrDefault(message, jobIDFieldLabel, hatchwatch.DefaultJobID)
	serverName := c.fieldOrDefault(message, serverNameFieldLabel, hatchwatch.DefaultServerName)
	observedAt := c.clock().UTC()

	merged := 0
	for _, line := range strings.Split(message.Description, "\n") {
		observation, matched := extract.Line(line)
		if !matched {
			continue
		}

		record := c.store.MergeInsert(hatchwatch.Candidate{
			PetName:    observation.PetName,
			JobID:      jobID,
			ServerName: serverName,
			Count:      observation.Count,
			Value:      extract.Rate(observation.RateToken),
			Emoji:      observation.Emoji,
			ObservedAt: observedAt,
		})
		c.recorder.RecordMerged()
		c.broadcast.Broadcast(record)
		merged++

		c.logger.Debug("merged sighting",
			"pet_name", record.PetName,
			"job_id", record.JobID,
			"count", record.Count,
			"value", record.Value,
		)
	}

	if merged > 0 {
		c.logger.Info("ingested feed message",
			"channel_id", message.ChannelID,
			"job_id", jobID,
			"server_name", serverName,
			"sightings", merged,
		)
	}

	return nil
}

// fieldOrDefault resolves one structured field, stripping the backtick
// decoration feeds wrap values in.
func (c *Coordinator) fieldOrDefault(message *hatchwatch.FeedMessage, label string, fallback string) string {
	value, found := message.Field(label)
	if !found {
		return fallback
	}

	value = strings.TrimSpace(strings.ReplaceAll(value, "`", ""))
	if value == "" {
		return fallback
	}

	return value
}

func withClock(clock func() time.Time) Option {
	return func(coordinator *Coordinator) {
		if clock != nil {
			coordinator.clock = clock
		}
	}
}

var _ hatchwatch.FeedSink = (*Coordinator)(nil)
