package stream

import (
	"fmt"
	"sync"
)

// -----------------------------------------------------------------------------
// Connection status
// -----------------------------------------------------------------------------

const (
	StatusDisconnected = "disconnected"
	StatusConnecting   = "connecting"
	StatusConnected    = "connected"
	StatusError        = "error"
)

// -----------------------------------------------------------------------------

// StatusTracker publishes the supervisor's connection state to readers.
type StatusTracker struct {
	mu     sync.RWMutex
	state  string
	detail string
}

// -----------------------------------------------------------------------------

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{state: StatusDisconnected}
}

// -----------------------------------------------------------------------------

func (t *StatusTracker) Set(state string) {
	t.mu.Lock()
	t.state = state
	t.detail = ""
	t.mu.Unlock()
}

// -----------------------------------------------------------------------------

// SetError records the error state with its description.
func (t *StatusTracker) SetError(detail string) {
	t.mu.Lock()
	t.state = StatusError
	t.detail = detail
	t.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (t *StatusTracker) Get() (state, detail string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.detail
}

// -----------------------------------------------------------------------------

// String renders the status the way /api/status reports it.
func (t *StatusTracker) String() string {
	state, detail := t.Get()
	if state == StatusError && detail != "" {
		return fmt.Sprintf("error: %s", detail)
	}
	return state
}
