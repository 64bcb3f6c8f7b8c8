package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"hatchwatch/pkg/hatchwatch"
)

// Metrics receives subscriber lifecycle and delivery signals.
type Metrics interface {
	SubscriberAttached()
	SubscriberDetached()
	BroadcastDelivered(subscribers int)
	BroadcastFailed()
}

type nopMetrics struct{}

func (nopMetrics) SubscriberAttached()    {}
func (nopMetrics) SubscriberDetached()    {}
func (nopMetrics) BroadcastDelivered(int) {}
func (nopMetrics) BroadcastFailed()       {}

// Option mutates hub configuration.
type Option func(*Hub)

// WithLogger injects a logger for delivery reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(hub *Hub) {
		if logger != nil {
			hub.logger = logger
		}
	}
}

// WithReplay controls whether new subscribers receive the current snapshot
// as individual pushes before live delivery starts.
func WithReplay(replay bool) Option {
	return func(hub *Hub) {
		hub.replay = replay
	}
}

// WithMetrics injects a metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(hub *Hub) {
		if metrics != nil {
			hub.metrics = metrics
		}
	}
}

// Hub tracks live subscribers and broadcasts each merged record to all of
// them as a new_pet push.
type Hub struct {
	logger  *slog.Logger
	metrics Metrics
	replay  bool

	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	closed      bool
}

// New creates an empty hub with snapshot replay enabled.
func New(options ...Option) *Hub {
	hub := &Hub{
		logger:      slog.Default(),
		metrics:     nopMetrics{},
		replay:      true,
		subscribers: make(map[string]*Subscriber),
	}
	for _, option := range options {
		option(hub)
	}

	return hub
}

// Attach registers a new subscriber on conn. When replay is enabled the
// snapshot is delivered first, oldest record last, so the stream a
// subscriber sees is snapshot followed by live pushes. A replay write
// failure abandons the subscriber before it ever goes live.
func (h *Hub) Attach(conn Conn, snapshot []hatchwatch.Record) (*Subscriber, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, hatchwatch.ErrHubClosed
	}
	subscriber := newSubscriber(uuid.NewString(), conn)
	h.subscribers[subscriber.id] = subscriber
	h.mu.Unlock()
	h.metrics.SubscriberAttached()

	if h.replay {
		for _, record := range snapshot {
			payload, err := json.Marshal(hatchwatch.NewPetPush(record))
			if err != nil {
				h.remove(subscriber)
				return nil, fmt.Errorf("hub replay marshal push: %w", err)
			}
			if err := subscriber.send(payload); err != nil {
				h.remove(subscriber)
				return nil, fmt.Errorf("hub replay: %w", err)
			}
		}
	}

	subscriber.open()
	h.logger.Debug("subscriber attached",
		"subscriber_id", subscriber.id,
		"replayed", len(snapshot),
		"subscribers", h.Len(),
	)

	return subscriber, nil
}

// Broadcast pushes one merged record to every open subscriber and returns
// how many received it. Subscribers whose write fails are detached.
func (h *Hub) Broadcast(record hatchwatch.Record) int {
	payload, err := json.Marshal(hatchwatch.NewPetPush(record))
	if err != nil {
		h.logger.Error("marshal push payload",
			"pet_name", record.PetName,
			"job_id", record.JobID,
			"error", err,
		)
		return 0
	}

	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.subscribers))
	for _, subscriber := range h.subscribers {
		if subscriber.State() == StateOpen {
			targets = append(targets, subscriber)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, subscriber := range targets {
		if err := subscriber.send(payload); err != nil {
			h.metrics.BroadcastFailed()
			h.logger.Warn("broadcast write failed, detaching subscriber",
				"subscriber_id", subscriber.id,
				"error", err,
			)
			h.remove(subscriber)
			continue
		}
		delivered++
	}

	h.metrics.BroadcastDelivered(delivered)

	return delivered
}

// Detach removes one subscriber and closes its connection. Detaching an
// unknown subscriber is a no-op.
func (h *Hub) Detach(id string) {
	h.mu.Lock()
	subscriber, exists := h.subscribers[id]
	if exists {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if !exists {
		return
	}
	subscriber.close()
	h.metrics.SubscriberDetached()
	h.logger.Debug("subscriber detached", "subscriber_id", id)
}

// Len returns the number of attached subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

// Close detaches every subscriber and rejects further attachments.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	remaining := make([]*Subscriber, 0, len(h.subscribers))
	for _, subscriber := range h.subscribers {
		remaining = append(remaining, subscriber)
	}
	h.subscribers = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, subscriber := range remaining {
		subscriber.close()
		h.metrics.SubscriberDetached()
	}
	h.logger.Info("hub closed", "detached", len(remaining))

	return nil
}

func (h *Hub) remove(subscriber *Subscriber) {
	h.mu.Lock()
	_, exists := h.subscribers[subscriber.id]
	if exists {
		delete(h.subscribers, subscriber.id)
	}
	h.mu.Unlock()

	subscriber.close()
	if exists {
		h.metrics.SubscriberDetached()
	}
}
