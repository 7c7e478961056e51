package interfaces

import (
	"context"

	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------
// IResponseCache is the short-TTL cache for computed historical series.
// -----------------------------------------------------------------------------

type IResponseCache interface {

	// -----------------------------------------------------------------------------

	// Get returns the cached series for (symbol, period) or ok=false when the
	// entry is absent or older than the TTL. Eviction is lazy.
	Get(ctx context.Context, symbol, period string) ([]models.MHistoricalPoint, bool)

	// -----------------------------------------------------------------------------

	// Put stores a series under (symbol, period) with the current time.
	Put(ctx context.Context, symbol, period string, points []models.MHistoricalPoint)

	// -----------------------------------------------------------------------------

	// Close releases cache resources.
	Close() error
}
