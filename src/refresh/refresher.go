package refresh

import (
	"context"
	"time"

	"benchmark-server/src/config"
	"benchmark-server/src/history"
	"benchmark-server/src/logger"
	"benchmark-server/src/utils"
)

// -----------------------------------------------------------------------------

// Refresher keeps the daily-bar store warm for the configured benchmark
// symbols by re-resolving them on a fixed interval. Non-trading days are
// skipped per symbol using the exchange calendar, so weekends and holidays
// do not hammer the provider for data that cannot have changed.
type Refresher struct {
	Config   *config.Config
	Resolver *history.HistoryResolver
	Logger   *logger.Logger

	// Now is the clock seam used by tests; defaults to time.Now.
	Now func() time.Time
}

// -----------------------------------------------------------------------------

func NewRefresher(cfg *config.Config, resolver *history.HistoryResolver, log *logger.Logger) *Refresher {
	return &Refresher{
		Config:   cfg,
		Resolver: resolver,
		Logger:   log,
		Now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run refreshes once immediately, then on every interval tick until the
// context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	interval := time.Duration(r.Config.Refresh.IntervalSeconds) * time.Second
	r.Logger.Info("Background refresh every %s for %d benchmarks",
		interval, len(r.Config.Benchmarks))

	r.RefreshAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("Background refresh stopped")
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// RefreshAll resolves every benchmark symbol for the configured period,
// which tops up the store as a side effect. Per-symbol failures are logged
// and do not stop the sweep.
func (r *Refresher) RefreshAll(ctx context.Context) {
	now := r.Now()
	for _, symbol := range r.Config.BenchmarkSymbols() {
		if !utils.GetCalendar(symbol).IsTradingDay(now) {
			r.Logger.Debug("Skipping %s, not a trading day", symbol)
			continue
		}
		if _, _, err := r.Resolver.Resolve(ctx, symbol, r.Config.Refresh.Period, "1d"); err != nil {
			r.Logger.Warning("Refresh failed for %s: %v", symbol, err)
		}
	}
}
