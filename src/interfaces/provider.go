package interfaces

import (
	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------
// IProviderClient abstracts the external market-data provider.
// -----------------------------------------------------------------------------

type IProviderClient interface {

	// ConnectStream opens the streaming connection for live ticks.
	ConnectStream() (IStreamConnection, error)

	// -----------------------------------------------------------------------------

	// FetchDailyBars retrieves daily bars for a symbol. The range spec selects
	// either the maximum available history or an explicit start date.
	FetchDailyBars(symbol string, spec models.MRangeSpec) ([]models.MDailyBar, error)

	// -----------------------------------------------------------------------------

	// FetchIntradayBars retrieves sub-daily bars for exactly the requested
	// period and interval. Never persisted.
	FetchIntradayBars(symbol, period, interval string) ([]models.MIntradayBar, error)

	// -----------------------------------------------------------------------------

	// FetchQuote retrieves a one-shot quote snapshot.
	FetchQuote(symbol string) (*models.MQuoteSnapshot, error)
}

// -----------------------------------------------------------------------------
// IStreamConnection is one live streaming connection. Owned by the stream
// supervisor; the dynamic-subscribe path only ever sees a stable handle.
// -----------------------------------------------------------------------------

type IStreamConnection interface {

	// Subscribe registers interest in the given symbols on the live connection.
	Subscribe(symbols []string) error

	// -----------------------------------------------------------------------------

	// Listen blocks, delivering each inbound tick to onTick, until the
	// connection errors or closes. An unexpected end-of-stream is an error.
	Listen(onTick func(models.MTick)) error

	// -----------------------------------------------------------------------------

	// Close tears the connection down.
	Close() error
}
