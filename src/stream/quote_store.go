package stream

import (
	"strings"
	"sync"

	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------

// QuoteStore holds the most recent tick per symbol. The stream supervisor is
// the only writer; request handlers read concurrently. Every critical
// section is a single map operation, so readers never block for long.
type QuoteStore struct {
	mu    sync.RWMutex
	ticks map[string]models.MTick
}

// -----------------------------------------------------------------------------

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{
		ticks: make(map[string]models.MTick),
	}
}

// -----------------------------------------------------------------------------

// Update overwrites the stored tick for tick.Symbol.
func (q *QuoteStore) Update(tick models.MTick) {
	if tick.Symbol == "" {
		return
	}

	q.mu.Lock()
	q.ticks[strings.ToUpper(tick.Symbol)] = tick
	q.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Get returns the latest tick for a symbol.
func (q *QuoteStore) Get(symbol string) (models.MTick, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	tick, ok := q.ticks[strings.ToUpper(symbol)]
	return tick, ok
}

// -----------------------------------------------------------------------------

// GetAll returns a point-in-time copy of the whole store, so iteration by
// the caller cannot race with concurrent writes.
func (q *QuoteStore) GetAll() map[string]models.MTick {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make(map[string]models.MTick, len(q.ticks))
	for sym, tick := range q.ticks {
		out[sym] = tick
	}
	return out
}
