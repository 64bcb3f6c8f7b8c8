package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultSweepInterval = time.Minute

// SweeperOption mutates sweeper configuration.
type SweeperOption func(*Sweeper)

// WithSweeperLogger injects a logger for sweep reporting.
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(sweeper *Sweeper) {
		if logger != nil {
			sweeper.logger = logger
		}
	}
}

// WithSweepInterval sets how often expired records are swept out.
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(sweeper *Sweeper) {
		if interval > 0 {
			sweeper.interval = interval
		}
	}
}

// WithSweepObserver registers a callback invoked with the eviction count of
// each sweep that removed at least one record.
func WithSweepObserver(observer func(evicted int)) SweeperOption {
	return func(sweeper *Sweeper) {
		sweeper.observer = observer
	}
}

// Sweeper periodically evicts expired records from a store.
type Sweeper struct {
	logger   *slog.Logger
	store    *Store
	interval time.Duration
	observer func(evicted int)
	runner   *cron.Cron
}

// NewSweeper creates a sweeper bound to one store. It does not start sweeping
// until Start is called.
func NewSweeper(store *Store, options ...SweeperOption) *Sweeper {
	sweeper := &Sweeper{
		logger:   slog.Default(),
		store:    store,
		interval: defaultSweepInterval,
	}
	for _, option := range options {
		option(sweeper)
	}

	return sweeper
}

// Start schedules the recurring sweep.
func (s *Sweeper) Start() error {
	if s.runner != nil {
		return nil
	}

	runner := cron.New()
	if _, err := runner.AddFunc(fmt.Sprintf("@every %s", s.interval), s.sweep); err != nil {
		return fmt.Errorf("sweeper schedule interval %s: %w", s.interval, err)
	}
	runner.Start()
	s.runner = runner

	s.logger.Info("record sweeper started", "interval", s.interval)

	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.runner == nil {
		return
	}

	<-s.runner.Stop().Done()
	s.runner = nil

	s.logger.Info("record sweeper stopped")
}

func (s *Sweeper) sweep() {
	evicted := s.store.Evict()
	if evicted == 0 {
		return
	}

	if s.observer != nil {
		s.observer(evicted)
	}
	s.logger.Info("swept expired records", "evicted", evicted)
}
