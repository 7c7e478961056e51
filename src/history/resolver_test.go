package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"benchmark-server/src/cache"
	"benchmark-server/src/helpers"
	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
	"benchmark-server/src/storage"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeProvider struct {
	dailyBars  []models.MDailyBar
	dailyErr   error
	dailySpecs []models.MRangeSpec

	intradayBars  []models.MIntradayBar
	intradayErr   error
	intradayCalls int
}

func (p *fakeProvider) ConnectStream() (interfaces.IStreamConnection, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) FetchDailyBars(symbol string, spec models.MRangeSpec) ([]models.MDailyBar, error) {
	p.dailySpecs = append(p.dailySpecs, spec)
	if p.dailyErr != nil {
		return nil, p.dailyErr
	}
	return p.dailyBars, nil
}

func (p *fakeProvider) FetchIntradayBars(symbol, period, interval string) ([]models.MIntradayBar, error) {
	p.intradayCalls++
	if p.intradayErr != nil {
		return nil, p.intradayErr
	}
	return p.intradayBars, nil
}

func (p *fakeProvider) FetchQuote(symbol string) (*models.MQuoteSnapshot, error) {
	return nil, errors.New("not implemented")
}

// -----------------------------------------------------------------------------

func dailyBar(date string, close float64) models.MDailyBar {
	d, _ := time.Parse(models.DateLayout, date)
	return models.MDailyBar{
		Date:   d,
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 1000,
	}
}

func newTestResolver(t *testing.T, provider *fakeProvider) (*HistoryResolver, interfaces.IDatabase) {
	t.Helper()

	cfg := &models.MConfig{}
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "test.db")

	db, err := storage.NewSQLiteDB(cfg, logger.NewLogger(nil, "test"))
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r := NewHistoryResolver(provider, db, cache.NewMemoryCache(time.Minute), logger.NewLogger(nil, "test"))
	r.Now = func() time.Time {
		return time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	}
	return r, db
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestResolveFullFetchOnEmptyStore(t *testing.T) {
	provider := &fakeProvider{
		dailyBars: []models.MDailyBar{
			dailyBar("2026-01-05", 100.0),
			dailyBar("2026-01-06", 105.0),
			dailyBar("2026-01-07", 95.0),
		},
	}
	r, _ := newTestResolver(t, provider)

	points, cached, err := r.Resolve(context.Background(), "qqq", "1y", "1d")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cached {
		t.Error("first resolve should not be cached")
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}

	// Percent change is against the first close in the window
	wantChange := []float64{0, 5, -5}
	for i, want := range wantChange {
		if points[i].ChangePercent != want {
			t.Errorf("points[%d].ChangePercent = %v, want %v", i, points[i].ChangePercent, want)
		}
	}

	// An empty store always seeds with the full available history,
	// whatever period the request asked for
	if len(provider.dailySpecs) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.dailySpecs))
	}
	if spec := provider.dailySpecs[0]; spec.Start != nil {
		t.Errorf("empty-store fetch start = %v, want open-ended full range", spec.Start)
	}
}

func TestResolveShortPeriodDoesNotTruncateStore(t *testing.T) {
	// A year of provider data; the first request only asks for a month.
	bars := make([]models.MDailyBar, 0, 365)
	day := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		bars = append(bars, dailyBar(day.Format(models.DateLayout), 100.0+float64(i)))
		day = day.AddDate(0, 0, 1)
	}
	provider := &fakeProvider{dailyBars: bars}
	r, _ := newTestResolver(t, provider)
	ctx := context.Background()

	monthPoints, _, err := r.Resolve(ctx, "QQQ", "1mo", "1d")
	if err != nil {
		t.Fatalf("1mo resolve: %v", err)
	}
	if len(monthPoints) >= 365 {
		t.Fatalf("1mo window returned %d points, want a trimmed window", len(monthPoints))
	}

	yearPoints, _, err := r.Resolve(ctx, "QQQ", "1y", "1d")
	if err != nil {
		t.Fatalf("1y resolve: %v", err)
	}
	if len(yearPoints) != 365 {
		t.Errorf("1y after 1mo returned %d points, want 365", len(yearPoints))
	}
	// Baseline for change is the first close of the year, not the month
	if yearPoints[0].Close != 100.0 {
		t.Errorf("1y window starts at close %v, want 100", yearPoints[0].Close)
	}
}

func TestResolveServedFromCacheSecondTime(t *testing.T) {
	provider := &fakeProvider{
		dailyBars: []models.MDailyBar{dailyBar("2026-01-05", 100.0)},
	}
	r, _ := newTestResolver(t, provider)
	ctx := context.Background()

	if _, cached, err := r.Resolve(ctx, "QQQ", "1y", "1d"); err != nil || cached {
		t.Fatalf("first resolve: cached=%v err=%v", cached, err)
	}

	points, cached, err := r.Resolve(ctx, "QQQ", "1y", "1d")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !cached {
		t.Error("second resolve should be served from cache")
	}
	if len(points) != 1 {
		t.Errorf("got %d points, want 1", len(points))
	}
	if got := len(provider.dailySpecs); got != 1 {
		t.Errorf("provider called %d times, want 1 (cache hit must not refetch)", got)
	}
}

func TestResolveIncrementalFromLatestInclusive(t *testing.T) {
	provider := &fakeProvider{
		dailyBars: []models.MDailyBar{
			dailyBar("2026-01-06", 104.0), // revised value for the boundary day
			dailyBar("2026-01-07", 95.0),
		},
	}
	r, db := newTestResolver(t, provider)

	seed := []models.MDailyBar{dailyBar("2026-01-05", 100.0), dailyBar("2026-01-06", 105.0)}
	if _, err := db.MergeDailyBars("QQQ", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	points, _, err := r.Resolve(context.Background(), "QQQ", "1y", "1d")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Fetch starts at the stored latest date, not the day after
	if len(provider.dailySpecs) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.dailySpecs))
	}
	spec := provider.dailySpecs[0]
	if spec.Start == nil || spec.Start.Format(models.DateLayout) != "2026-01-06" {
		t.Errorf("incremental fetch start = %v, want 2026-01-06", spec.Start)
	}

	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	// Boundary day was overwritten by the revised value
	if points[1].Close != 104.0 {
		t.Errorf("boundary close = %v, want revised 104.0", points[1].Close)
	}
}

func TestResolveSkipsFetchWhenStoreCurrent(t *testing.T) {
	provider := &fakeProvider{}
	r, db := newTestResolver(t, provider)

	// Latest stored bar is "today" relative to the resolver clock
	seed := []models.MDailyBar{dailyBar("2026-01-07", 100.0), dailyBar("2026-01-08", 101.0)}
	if _, err := db.MergeDailyBars("QQQ", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	points, _, err := r.Resolve(context.Background(), "QQQ", "1y", "1d")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(provider.dailySpecs) != 0 {
		t.Errorf("provider called %d times, want 0 when store is current", len(provider.dailySpecs))
	}
	if len(points) != 2 {
		t.Errorf("got %d points, want 2", len(points))
	}
}

func TestResolveServesStaleOnFetchFailure(t *testing.T) {
	provider := &fakeProvider{dailyErr: helpers.NewFetchError("upstream down", nil)}
	r, db := newTestResolver(t, provider)

	seed := []models.MDailyBar{dailyBar("2026-01-05", 100.0)}
	if _, err := db.MergeDailyBars("QQQ", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	points, _, err := r.Resolve(context.Background(), "QQQ", "1y", "1d")
	if err != nil {
		t.Fatalf("stale data should be served without error, got %v", err)
	}
	if len(points) != 1 {
		t.Errorf("got %d points, want the 1 stale point", len(points))
	}
}

func TestResolveEmptyIsNotAnError(t *testing.T) {
	provider := &fakeProvider{}
	r, _ := newTestResolver(t, provider)

	points, cached, err := r.Resolve(context.Background(), "UNKNOWN", "1y", "1d")
	if err != nil {
		t.Fatalf("empty window should not error, got %v", err)
	}
	if cached {
		t.Error("empty result should not come from cache")
	}
	if points == nil || len(points) != 0 {
		t.Errorf("want empty non-nil slice, got %v", points)
	}
}

func TestResolveRejectsUnknownPeriod(t *testing.T) {
	r, _ := newTestResolver(t, &fakeProvider{})

	_, _, err := r.Resolve(context.Background(), "QQQ", "42z", "1d")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !helpers.IsValidationError(err) {
		t.Errorf("error should be a validation error, got %T", err)
	}
}

func TestResolveIntradayBypassesStore(t *testing.T) {
	ts := time.Date(2026, 1, 8, 14, 30, 0, 0, time.UTC)
	provider := &fakeProvider{
		intradayBars: []models.MIntradayBar{
			{Timestamp: ts, Open: 99, High: 101, Low: 98, Close: 100, Volume: 10},
			{Timestamp: ts.Add(5 * time.Minute), Open: 100, High: 103, Low: 100, Close: 102, Volume: 12},
		},
	}
	r, db := newTestResolver(t, provider)

	points, cached, err := r.Resolve(context.Background(), "QQQ", "1d", "5m")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cached {
		t.Error("intraday is never cached")
	}
	if provider.intradayCalls != 1 {
		t.Errorf("intraday fetch called %d times, want 1", provider.intradayCalls)
	}
	if len(provider.dailySpecs) != 0 {
		t.Error("intraday resolve must not touch the daily fetch path")
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Date != "2026-01-08 14:30:00" {
		t.Errorf("intraday date = %q, want timestamp format", points[0].Date)
	}
	if points[1].ChangePercent != 2 {
		t.Errorf("intraday change = %v, want 2", points[1].ChangePercent)
	}

	// Nothing was persisted
	bars, err := db.RangeDailyBars("QQQ", nil, nil)
	if err != nil {
		t.Fatalf("RangeDailyBars: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("intraday resolve persisted %d bars, want 0", len(bars))
	}
}

func TestResolveIntradayRejectsBadInterval(t *testing.T) {
	r, _ := newTestResolver(t, &fakeProvider{})

	_, _, err := r.Resolve(context.Background(), "QQQ", "1d", "7m")
	if err == nil || !helpers.IsValidationError(err) {
		t.Errorf("want validation error for interval 7m, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	provider := &fakeProvider{
		dailyBars: []models.MDailyBar{
			dailyBar("2026-01-05", 100.0),
			dailyBar("2026-01-07", 110.0),
		},
	}
	r, _ := newTestResolver(t, provider)

	result, err := r.Compare(context.Background(), []string{"QQQ"}, "1y")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	entry, ok := result["QQQ"]
	if !ok {
		t.Fatal("expected an entry for QQQ")
	}
	if entry.StartPrice != 100.0 || entry.EndPrice != 110.0 {
		t.Errorf("start/end = %v/%v, want 100/110", entry.StartPrice, entry.EndPrice)
	}
	if entry.TotalChange != 10.0 {
		t.Errorf("TotalChange = %v, want 10", entry.TotalChange)
	}
}

func TestCompareRejectsBadPeriod(t *testing.T) {
	r, _ := newTestResolver(t, &fakeProvider{})

	if _, err := r.Compare(context.Background(), []string{"QQQ"}, "nope"); err == nil {
		t.Error("expected a validation error")
	}
}
