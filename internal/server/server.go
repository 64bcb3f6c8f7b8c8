// Package server exposes the HTTP surface of the service: the record
// snapshot endpoint, the websocket subscription endpoint, health, and
// metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"hatchwatch/internal/hub"
	"hatchwatch/pkg/hatchwatch"
)

const defaultShutdownTimeout = 10 * time.Second

// Snapshotter supplies the records currently inside the retention window.
type Snapshotter interface {
	Snapshot() []hatchwatch.Record
}

// Registrar tracks websocket subscribers.
type Registrar interface {
	Attach(conn hub.Conn, snapshot []hatchwatch.Record) (*hub.Subscriber, error)
	Detach(id string)
}

// Option mutates server configuration.
type Option func(*Server)

// WithLogger injects a logger for request reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(server *Server) {
		if logger != nil {
			server.logger = logger
		}
	}
}

// WithMetricsHandler mounts a handler on the metrics endpoint.
func WithMetricsHandler(handler http.Handler) Option {
	return func(server *Server) {
		server.metricsHandler = handler
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests
// after the context is cancelled.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(server *Server) {
		if timeout > 0 {
			server.shutdownTimeout = timeout
		}
	}
}

// Server serves the record snapshot and websocket endpoints.
type Server struct {
	logger          *slog.Logger
	store           Snapshotter
	registrar       Registrar
	metricsHandler  http.Handler
	addr            string
	shutdownTimeout time.Duration
	upgrader        websocket.Upgrader
}

// New creates a server bound to addr.
func New(addr string, store Snapshotter, registrar Registrar, options ...Option) *Server {
	server := &Server{
		logger:          slog.Default(),
		store:           store,
		registrar:       registrar,
		addr:            addr,
		shutdownTimeout: defaultShutdownTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, option := range options {
		option(server)
	}

	return server
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/records", s.handleRecords)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", s.addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	<-errCh

	s.logger.Info("http server stopped")

	return nil
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := s.store.Snapshot()
	payloads := make([]hatchwatch.RecordPayload, 0, len(snapshot))
	for _, record := range snapshot {
		payloads = append(payloads, record.Payload())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payloads); err != nil {
		s.logger.Warn("encode records response", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		return
	}

	subscriber, err := s.registrar.Attach(conn, s.store.Snapshot())
	if err != nil {
		s.logger.Warn("subscriber attach failed",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		_ = conn.Close()
		return
	}

	// Inbound frames are ignored; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.registrar.Detach(subscriber.ID())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
