package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"hatchwatch/pkg/hatchwatch"
)

const defaultRetention = 30 * time.Minute

// Option mutates store configuration.
type Option func(*Store)

// WithLogger injects a logger for eviction reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(store *Store) {
		if logger != nil {
			store.logger = logger
		}
	}
}

// WithRetention sets how long a record stays visible after its last sighting.
func WithRetention(retention time.Duration) Option {
	return func(store *Store) {
		if retention > 0 {
			store.retention = retention
		}
	}
}

// Store is a mutex-guarded map of live hatch records keyed by job and pet.
type Store struct {
	logger    *slog.Logger
	retention time.Duration
	clock     func() time.Time

	mu      sync.Mutex
	records map[hatchwatch.RecordKey]hatchwatch.Record
}

// New creates an empty store with the default retention window.
func New(options ...Option) *Store {
	store := &Store{
		logger:    slog.Default(),
		retention: defaultRetention,
		clock:     time.Now,
		records:   make(map[hatchwatch.RecordKey]hatchwatch.Record),
	}
	for _, option := range options {
		option(store)
	}

	return store
}

// MergeInsert folds one sighting into the live set and returns the record as
// it stands after the merge. A record whose last sighting already fell out of
// the window is treated as absent so the sighting starts a fresh record.
func (s *Store) MergeInsert(candidate hatchwatch.Candidate) hatchwatch.Record {
	key := candidate.Key()
	observedAt := candidate.ObservedAt.UTC()

	s.mu.Lock()
	existing, exists := s.ensureLiveLocked(key, observedAt)
	if !exists {
		record := hatchwatch.Record{
			PetName:    candidate.PetName,
			JobID:      candidate.JobID,
			ServerName: candidate.ServerName,
			Count:      candidate.Count,
			Value:      candidate.Value,
			Emoji:      candidate.Emoji,
			ObservedAt: observedAt,
		}
		s.records[key] = record
		s.mu.Unlock()

		return record
	}

	existing.Count += candidate.Count
	if candidate.Value > existing.Value {
		existing.Value = candidate.Value
	}
	if candidate.Emoji != "" {
		existing.Emoji = candidate.Emoji
	}
	if candidate.ServerName != "" && candidate.ServerName != hatchwatch.DefaultServerName {
		existing.ServerName = candidate.ServerName
	}
	if !observedAt.Before(existing.ObservedAt) {
		existing.ObservedAt = observedAt
	}
	s.records[key] = existing
	s.mu.Unlock()

	return existing
}

// Snapshot returns the records still inside the retention window, ordered by
// most recent sighting first.
func (s *Store) Snapshot() []hatchwatch.Record {
	now := s.now()

	s.mu.Lock()
	snapshot := make([]hatchwatch.Record, 0, len(s.records))
	for _, record := range s.records {
		if s.expiredAt(record, now) {
			continue
		}
		snapshot = append(snapshot, record)
	}
	s.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ObservedAt.After(snapshot[j].ObservedAt)
	})

	return snapshot
}

// Evict removes every record whose last sighting fell out of the retention
// window and returns how many were removed.
func (s *Store) Evict() int {
	now := s.now()

	s.mu.Lock()
	evicted := 0
	for key, record := range s.records {
		if s.expiredAt(record, now) {
			delete(s.records, key)
			evicted++
		}
	}
	remaining := len(s.records)
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Debug("evicted expired records",
			"evicted", evicted,
			"remaining", remaining,
		)
	}

	return evicted
}

// Len returns the number of records currently held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// ensureLiveLocked returns the record for key if it exists and is still
// inside the window at now; an expired record is dropped on the way.
func (s *Store) ensureLiveLocked(key hatchwatch.RecordKey, now time.Time) (hatchwatch.Record, bool) {
	record, exists := s.records[key]
	if !exists {
		return hatchwatch.Record{}, false
	}
	if s.expiredAt(record, now) {
		delete(s.records, key)
		return hatchwatch.Record{}, false
	}

	return record, true
}

func (s *Store) expiredAt(record hatchwatch.Record, now time.Time) bool {
	return now.Sub(record.ObservedAt) >= s.retention
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func withClock(clock func() time.Time) Option {
	return func(store *Store) {
		if clock != nil {
			store.clock = clock
		}
	}
}
