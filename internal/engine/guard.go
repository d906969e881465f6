package engine

import (
	"errors"
	"sync"
)

// State is what the engine is busy with.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateDeleting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateDeleting:
		return "deleting"
	default:
		return "unknown"
	}
}

var ErrOperationBusy = errors.New("another operation is already running")

// Guard allows at most one search or deletion at a time. There is no
// queueing: a second start fails immediately.
type Guard struct {
	mu    sync.Mutex
	state State
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// TryStart moves from Idle to s. onAccept, if set, runs inside the same
// critical section so callers can reset their own state atomically with
// acceptance. On rejection nothing runs.
func (g *Guard) TryStart(s State, onAccept func()) error {
	if s == StateIdle {
		return errors.New("cannot start the idle state")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateIdle {
		return ErrOperationBusy
	}
	g.state = s
	if onAccept != nil {
		onAccept()
	}
	return nil
}

// Finish returns to Idle if s is the active state.
func (g *Guard) Finish(s State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != s || s == StateIdle {
		return false
	}
	g.state = StateIdle
	return true
}
