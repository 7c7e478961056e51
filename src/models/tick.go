package models

import (
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------
// Live tick
// -----------------------------------------------------------------------------

// MTick is one real-time quote update for a symbol. Raw keeps the provider
// payload verbatim so /api/data can return exactly what the stream delivered.
type MTick struct {
	Symbol        string          `json:"symbol"`
	Price         float64         `json:"price"`
	Change        float64         `json:"change"`
	ChangePercent float64         `json:"change_percent"`
	Volume        int64           `json:"volume"`
	Bid           float64         `json:"bid"`
	Ask           float64         `json:"ask"`
	DayHigh       float64         `json:"day_high"`
	DayLow        float64         `json:"day_low"`
	Open          float64         `json:"open"`
	PreviousClose float64         `json:"previous_close"`
	MarketHours   string          `json:"market_hours"`
	ReceivedAt    time.Time       `json:"received_at"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// -----------------------------------------------------------------------------
// Market session values carried by MTick.MarketHours.
// -----------------------------------------------------------------------------

const (
	MarketHoursPre      = "PRE"
	MarketHoursRegular  = "REGULAR"
	MarketHoursPost     = "POST"
	MarketHoursExtended = "EXTENDED"
)
