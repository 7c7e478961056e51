package history

import (
	"context"
	"math"
	"strings"
	"time"

	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------

const intradayLayout = "2006-01-02 15:04:05"

// HistoryResolver answers historical queries by combining the response
// cache, the daily-bar store and the upstream provider. Daily requests are
// served from the store, which is topped up incrementally before each read;
// intraday requests go straight to the provider and never touch the store.
type HistoryResolver struct {
	Provider interfaces.IProviderClient
	Store    interfaces.IDatabase
	Cache    interfaces.IResponseCache
	Logger   *logger.Logger

	// Now is the clock seam used by tests; defaults to time.Now.
	Now func() time.Time
}

// -----------------------------------------------------------------------------

func NewHistoryResolver(provider interfaces.IProviderClient, store interfaces.IDatabase,
	cache interfaces.IResponseCache, log *logger.Logger) *HistoryResolver {
	return &HistoryResolver{
		Provider: provider,
		Store:    store,
		Cache:    cache,
		Logger:   log,
		Now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// Resolve returns the historical points for symbol over period. interval
// selects the daily path ("1d" or empty) or the intraday pass-through.
// The returned bool reports whether the response came from the cache.
func (r *HistoryResolver) Resolve(ctx context.Context, symbol, period, interval string) ([]models.MHistoricalPoint, bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if interval == "" {
		interval = "1d"
	}

	if interval != "1d" {
		points, err := r.resolveIntraday(symbol, period, interval)
		return points, false, err
	}

	if err := ValidatePeriod(period); err != nil {
		return nil, false, err
	}

	if points, ok := r.Cache.Get(ctx, symbol, period); ok {
		return points, true, nil
	}

	r.refreshStore(symbol)

	points, err := r.readRange(symbol, period)
	if err != nil {
		return nil, false, err
	}

	if len(points) > 0 {
		r.Cache.Put(ctx, symbol, period, points)
	}
	return points, false, nil
}

// -----------------------------------------------------------------------------

// refreshStore tops up the daily store for symbol. A symbol with no rows
// gets a full maximum-history fetch so that later requests for any period
// can be served from the store; an existing symbol is fetched from its
// latest stored date inclusive, so the provider's revised value for that
// day overwrites the stored one on merge. Provider failures are logged and
// swallowed: stale rows still beat an error response.
func (r *HistoryResolver) refreshStore(symbol string) {
	latest, found, err := r.Store.LatestDate(symbol)
	if err != nil {
		r.Logger.Error("Latest date lookup failed for %s: %v", symbol, err)
		return
	}

	var spec models.MRangeSpec
	if !found {
		spec = models.FullRange()
	} else {
		today := r.Now().UTC().Truncate(24 * time.Hour)
		if !latest.Before(today) {
			return
		}
		spec = models.RangeFrom(latest)
	}

	bars, err := r.Provider.FetchDailyBars(symbol, spec)
	if err != nil {
		r.Logger.Warning("Daily fetch failed for %s, serving stored data: %v", symbol, err)
		return
	}
	if len(bars) == 0 {
		return
	}

	merged, err := r.Store.MergeDailyBars(symbol, bars)
	if err != nil {
		r.Logger.Error("Merge failed for %s: %v", symbol, err)
		return
	}
	r.Logger.Debug("Merged %d daily bars for %s", merged, symbol)
}

// -----------------------------------------------------------------------------

// readRange reads the stored window for period and shapes it into response
// points, computing each point's percent change against the first close in
// the window. An empty window is not an error.
func (r *HistoryResolver) readRange(symbol, period string) ([]models.MHistoricalPoint, error) {
	var from *time.Time
	if period != PeriodMax {
		start, err := StartDateForPeriod(period, r.Now())
		if err != nil {
			return nil, err
		}
		day := start.UTC().Truncate(24 * time.Hour)
		from = &day
	}

	bars, err := r.Store.RangeDailyBars(symbol, from, nil)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return []models.MHistoricalPoint{}, nil
	}

	base := bars[0].Close
	points := make([]models.MHistoricalPoint, 0, len(bars))
	for _, bar := range bars {
		changePercent := 0.0
		if base != 0 {
			changePercent = (bar.Close - base) / base * 100
		}
		points = append(points, models.MHistoricalPoint{
			Date:          bar.DateString(),
			Open:          round2(bar.Open),
			High:          round2(bar.High),
			Low:           round2(bar.Low),
			Close:         round2(bar.Close),
			Volume:        bar.Volume,
			ChangePercent: round2(changePercent),
		})
	}
	return points, nil
}

// -----------------------------------------------------------------------------

// resolveIntraday fetches minute-level bars straight from the provider.
// Nothing is persisted: intraday data is too volatile to be worth merging
// into the daily store.
func (r *HistoryResolver) resolveIntraday(symbol, period, interval string) ([]models.MHistoricalPoint, error) {
	if err := ValidateIntraday(period, interval); err != nil {
		return nil, err
	}

	bars, err := r.Provider.FetchIntradayBars(symbol, period, interval)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return []models.MHistoricalPoint{}, nil
	}

	base := bars[0].Close
	points := make([]models.MHistoricalPoint, 0, len(bars))
	for _, bar := range bars {
		changePercent := 0.0
		if base != 0 {
			changePercent = (bar.Close - base) / base * 100
		}
		points = append(points, models.MHistoricalPoint{
			Date:          bar.Timestamp.UTC().Format(intradayLayout),
			Open:          round2(bar.Open),
			High:          round2(bar.High),
			Low:           round2(bar.Low),
			Close:         round2(bar.Close),
			Volume:        bar.Volume,
			ChangePercent: round2(changePercent),
		})
	}
	return points, nil
}

// -----------------------------------------------------------------------------

// Compare resolves daily history for every symbol and summarises each
// series with its start/end close and total percent change. Symbols whose
// resolution fails or yields no data are left out rather than failing the
// whole comparison.
func (r *HistoryResolver) Compare(ctx context.Context, symbols []string, period string) (map[string]models.MComparison, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	result := make(map[string]models.MComparison, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		points, _, err := r.Resolve(ctx, symbol, period, "1d")
		if err != nil {
			r.Logger.Warning("Compare skipping %s: %v", symbol, err)
			continue
		}
		if len(points) == 0 {
			continue
		}
		result[symbol] = models.MComparison{
			Data:        points,
			StartPrice:  points[0].Close,
			EndPrice:    points[len(points)-1].Close,
			TotalChange: points[len(points)-1].ChangePercent,
		}
	}
	return result, nil
}

// -----------------------------------------------------------------------------

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
