package history

import (
	"fmt"
	"time"

	"benchmark-server/src/helpers"
)

// -----------------------------------------------------------------------------

// PeriodMax requests the full available history from the provider.
const PeriodMax = "max"

var periodDays = map[string]int{
	"1d":  1,
	"5d":  5,
	"1mo": 30,
	"3mo": 90,
	"6mo": 180,
	"1y":  365,
	"2y":  730,
	"5y":  1825,
	"10y": 3650,
}

var intradayIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true,
	"30m": true, "60m": true, "90m": true, "1h": true,
}

var intradayPeriods = map[string]bool{
	"1d": true, "5d": true,
}

// -----------------------------------------------------------------------------

// StartDateForPeriod maps a period token to the inclusive start of the
// requested window, relative to now. "max" and unknown tokens are handled
// by the callers that validate periods; "ytd" anchors to January 1st of
// the current year.
func StartDateForPeriod(period string, now time.Time) (time.Time, error) {
	if period == "ytd" {
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	}
	days, ok := periodDays[period]
	if !ok {
		return time.Time{}, helpers.NewValidationError(fmt.Sprintf("invalid period: %s", period))
	}
	return now.AddDate(0, 0, -days), nil
}

// -----------------------------------------------------------------------------

// ValidatePeriod accepts any daily-history period token, including "max".
func ValidatePeriod(period string) error {
	if period == PeriodMax || period == "ytd" {
		return nil
	}
	if _, ok := periodDays[period]; !ok {
		return helpers.NewValidationError(fmt.Sprintf("invalid period: %s", period))
	}
	return nil
}

// ValidateIntraday checks the interval/period whitelist for intraday
// requests.
func ValidateIntraday(period, interval string) error {
	if !intradayIntervals[interval] {
		return helpers.NewValidationError(fmt.Sprintf("invalid interval: %s", interval))
	}
	if !intradayPeriods[period] {
		return helpers.NewValidationError(fmt.Sprintf("invalid period for intraday: %s", period))
	}
	return nil
}
