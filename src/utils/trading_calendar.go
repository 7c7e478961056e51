package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------

// TradingCalendar answers trading-day questions for a symbol's home
// exchange, backed by scmhub/calendar with a Mon-Fri fallback when no
// calendar is available for the MIC.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// Yahoo symbol suffix to MIC code (ISO 10383). Unsuffixed symbols are US.
var suffixMIC = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".MI": "xmil",
	".MC": "xmad",
	".SW": "xswx",
	".TO": "xtse",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".SS": "xshg",
	".SZ": "xshe",
}

// -----------------------------------------------------------------------------

func GetCalendar(symbol string) *TradingCalendar {
	mic := "xnys"
	for suffix, code := range suffixMIC {
		if strings.HasSuffix(symbol, suffix) {
			mic = code
			break
		}
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		log.Printf("WARNING: no calendar for MIC %q, using Mon-Fri fallback", mic)
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}
	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}
