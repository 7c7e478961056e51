package models

// -----------------------------------------------------------------------------

// MHistoricalPoint is the response shape served for historical series.
// ChangePercent is computed relative to the first point's close within the
// requested window; the value is recomputed on every resolve.
type MHistoricalPoint struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        int64   `json:"volume"`
	ChangePercent float64 `json:"change_percent"`
}

// -----------------------------------------------------------------------------

// MQuoteSnapshot is a one-shot quote fetched on demand, outside the live stream.
type MQuoteSnapshot struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	PreviousClose float64 `json:"previous_close"`
}

// -----------------------------------------------------------------------------

// MComparison is one symbol's entry in a /api/compare response.
type MComparison struct {
	Data        []MHistoricalPoint `json:"data"`
	StartPrice  float64            `json:"start_price"`
	EndPrice    float64            `json:"end_price"`
	TotalChange float64            `json:"total_change"`
}
