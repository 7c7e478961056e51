package models

import "time"

// DateLayout is the calendar-day format used for the (symbol, date) key.
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------

// MDailyBar is one calendar day's OHLCV for a symbol. Date carries no time
// component; the store keys rows by (symbol, Date).
type MDailyBar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// -----------------------------------------------------------------------------

// DateString returns the bar's date in the storage key format.
func (b MDailyBar) DateString() string {
	return b.Date.Format(DateLayout)
}

// -----------------------------------------------------------------------------

// MIntradayBar is a sub-daily bar fetched directly from the provider.
// Intraday data is never persisted.
type MIntradayBar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}
