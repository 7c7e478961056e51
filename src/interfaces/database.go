package interfaces

import (
	"time"

	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the persistent daily-bar store.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// MergeDailyBars insert-or-replaces each bar by (symbol, date) and returns
	// the number of rows written. Idempotent; a row that fails is skipped
	// without aborting the rest of the batch.
	MergeDailyBars(symbol string, bars []models.MDailyBar) (int, error)

	// -----------------------------------------------------------------------------

	// LatestDate returns the most recent stored bar date for a symbol.
	// ok is false when no bars are stored.
	LatestDate(symbol string) (date time.Time, ok bool, err error)

	// -----------------------------------------------------------------------------

	// RangeDailyBars returns stored bars ascending by date. Nil bounds mean
	// unbounded on that side.
	RangeDailyBars(symbol string, from, to *time.Time) ([]models.MDailyBar, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
