package stream

import (
	"sort"
	"strings"
	"sync"
)

// -----------------------------------------------------------------------------

// SubscriptionRegistry is the set of symbols with live interest. It only
// grows during the process lifetime; there is no unsubscribe.
type SubscriptionRegistry struct {
	mu      sync.Mutex
	symbols map[string]struct{}
}

// -----------------------------------------------------------------------------

func NewSubscriptionRegistry(initial []string) *SubscriptionRegistry {
	r := &SubscriptionRegistry{
		symbols: make(map[string]struct{}),
	}
	for _, s := range initial {
		r.symbols[strings.ToUpper(s)] = struct{}{}
	}
	return r
}

// -----------------------------------------------------------------------------

// Add registers a symbol and reports whether it was newly added. Exactly one
// of any number of concurrent callers observes true for a given symbol.
func (r *SubscriptionRegistry) Add(symbol string) bool {
	symbol = strings.ToUpper(symbol)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.symbols[symbol]; exists {
		return false
	}
	r.symbols[symbol] = struct{}{}
	return true
}

// -----------------------------------------------------------------------------

func (r *SubscriptionRegistry) Contains(symbol string) bool {
	symbol = strings.ToUpper(symbol)

	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.symbols[symbol]
	return exists
}

// -----------------------------------------------------------------------------

// Snapshot returns the current symbol set, sorted for stable enumeration.
func (r *SubscriptionRegistry) Snapshot() []string {
	r.mu.Lock()
	symbols := make([]string, 0, len(r.symbols))
	for s := range r.symbols {
		symbols = append(symbols, s)
	}
	r.mu.Unlock()

	sort.Strings(symbols)
	return symbols
}
