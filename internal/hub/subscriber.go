package hub

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"hatchwatch/pkg/hatchwatch"
)

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// State tracks a subscriber through its lifecycle.
type State int

const (
	// StateAttaching covers the window between upgrade and snapshot replay.
	StateAttaching State = iota
	// StateOpen means the subscriber receives live broadcasts.
	StateOpen
	// StateClosed means the connection is gone and writes are rejected.
	StateClosed
)

// Subscriber is one websocket consumer. Writes are serialized per
// subscriber; the hub may broadcast while a replay is still in flight.
type Subscriber struct {
	id   string
	conn Conn

	mu    sync.Mutex
	state State
}

func newSubscriber(id string, conn Conn) *Subscriber {
	return &Subscriber{
		id:   id,
		conn: conn,
	}
}

// ID returns the hub-assigned subscriber identifier.
func (s *Subscriber) ID() string {
	return s.id
}

// State returns the subscriber's current lifecycle state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// send writes one text frame. A closed subscriber rejects the write without
// touching the connection.
func (s *Subscriber) send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return hatchwatch.ErrSubscriberClosed
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("subscriber %s write: %w", s.id, err)
	}

	return nil
}

func (s *Subscriber) open() {
	s.mu.Lock()
	if s.state == StateAttaching {
		s.state = StateOpen
	}
	s.mu.Unlock()
}

// close transitions to StateClosed and closes the connection once.
func (s *Subscriber) close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	conn := s.conn
	s.mu.Unlock()

	_ = conn.Close()
}
