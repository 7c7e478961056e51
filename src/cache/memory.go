package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"benchmark-server/src/interfaces"
	"benchmark-server/src/models"
)

// Compile-time interface check.
var _ interfaces.IResponseCache = (*MemoryCache)(nil)

// -----------------------------------------------------------------------------

// cacheKey builds the (symbol, period) entry key.
func cacheKey(symbol, period string) string {
	return fmt.Sprintf("%s_%s", symbol, period)
}

// -----------------------------------------------------------------------------

type memoryEntry struct {
	points    []models.MHistoricalPoint
	createdAt time.Time
}

// MemoryCache is an in-process response cache. Eviction is lazy: an entry
// older than the TTL is treated as absent on read and dropped then; there is
// no background sweep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration

	now func() time.Time // test seam
}

// -----------------------------------------------------------------------------

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// -----------------------------------------------------------------------------

func (m *MemoryCache) Get(_ context.Context, symbol, period string) ([]models.MHistoricalPoint, bool) {
	key := cacheKey(symbol, period)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if m.now().Sub(entry.createdAt) >= m.ttl {
		m.mu.Lock()
		// Re-check under the write lock; a Put may have refreshed the entry.
		if cur, ok := m.entries[key]; ok && m.now().Sub(cur.createdAt) >= m.ttl {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}

	return entry.points, true
}

// -----------------------------------------------------------------------------

func (m *MemoryCache) Put(_ context.Context, symbol, period string, points []models.MHistoricalPoint) {
	// Value copy so later mutation of the caller's slice cannot leak in.
	copied := make([]models.MHistoricalPoint, len(points))
	copy(copied, points)

	m.mu.Lock()
	m.entries[cacheKey(symbol, period)] = memoryEntry{
		points:    copied,
		createdAt: m.now(),
	}
	m.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (m *MemoryCache) Close() error {
	return nil
}
