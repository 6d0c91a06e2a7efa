package connectivity

import "sync"

// Probe reports network reachability.
type Probe interface {
	// IsOnline returns the latest known state.
	IsOnline() bool

	// BecameOnline delivers one event per offline to online transition.
	BecameOnline() <-chan struct{}
}

// edgeBuffer bounds how many undelivered transitions are kept. Extra
// transitions are dropped while the consumer is behind.
const edgeBuffer = 16

// state tracks the online flag and emits rising edges.
type state struct {
	mu     sync.RWMutex
	online bool
	edges  chan struct{}
}

func newState(online bool) *state {
	return &state{online: online, edges: make(chan struct{}, edgeBuffer)}
}

func (s *state) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

func (s *state) BecameOnline() <-chan struct{} {
	return s.edges
}

// set stores online and reports whether this was an offline to online edge.
func (s *state) set(online bool) bool {
	s.mu.Lock()
	rising := online && !s.online
	s.online = online
	s.mu.Unlock()

	if rising {
		select {
		case s.edges <- struct{}{}:
		default:
		}
	}
	return rising
}

// Manual is a Probe driven by explicit calls, used by the HTTP API, the
// CLI and tests.
type Manual struct {
	*state
}

// NewManual creates a manual probe with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{state: newState(online)}
}

// SetOnline updates the state and reports whether it was a rising edge.
func (m *Manual) SetOnline(online bool) bool {
	return m.set(online)
}
