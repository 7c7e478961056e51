package refresh

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"benchmark-server/src/cache"
	"benchmark-server/src/config"
	"benchmark-server/src/history"
	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
	"benchmark-server/src/storage"
)

// -----------------------------------------------------------------------------

type fakeProvider struct {
	dailyCalls int
}

func (p *fakeProvider) ConnectStream() (interfaces.IStreamConnection, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) FetchDailyBars(symbol string, spec models.MRangeSpec) ([]models.MDailyBar, error) {
	p.dailyCalls++
	d, _ := time.Parse(models.DateLayout, "2026-01-06")
	return []models.MDailyBar{{Date: d, Open: 99, High: 101, Low: 98, Close: 100, Volume: 1000}}, nil
}

func (p *fakeProvider) FetchIntradayBars(string, string, string) ([]models.MIntradayBar, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) FetchQuote(string) (*models.MQuoteSnapshot, error) {
	return nil, errors.New("not implemented")
}

// -----------------------------------------------------------------------------

func newTestRefresher(t *testing.T, provider *fakeProvider, now time.Time) *Refresher {
	t.Helper()

	mc := &models.MConfig{
		Benchmarks: []models.MBenchmark{
			{Symbol: "QQQ"},
			{Symbol: "SPY"},
		},
	}
	mc.Storage.DBPath = filepath.Join(t.TempDir(), "test.db")
	mc.Refresh.Enabled = true
	mc.Refresh.IntervalSeconds = 3600
	mc.Refresh.Period = "1y"

	log := logger.NewLogger(nil, "test")

	db, err := storage.NewSQLiteDB(mc, log)
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	resolver := history.NewHistoryResolver(provider, db, cache.NewMemoryCache(time.Minute), log)
	resolver.Now = func() time.Time { return now }

	r := NewRefresher(&config.Config{MConfig: mc}, resolver, log)
	r.Now = func() time.Time { return now }
	return r
}

// -----------------------------------------------------------------------------

func TestRefreshAllOnTradingDay(t *testing.T) {
	// A regular Wednesday
	now := time.Date(2026, 1, 7, 15, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	r := newTestRefresher(t, provider, now)

	r.RefreshAll(context.Background())

	if provider.dailyCalls != 2 {
		t.Errorf("provider called %d times, want once per benchmark (2)", provider.dailyCalls)
	}
}

func TestRefreshAllSkipsWeekend(t *testing.T) {
	// Saturday
	now := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	r := newTestRefresher(t, provider, now)

	r.RefreshAll(context.Background())

	if provider.dailyCalls != 0 {
		t.Errorf("provider called %d times on a weekend, want 0", provider.dailyCalls)
	}
}
