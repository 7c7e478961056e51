package yahoo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"benchmark-server/src/helpers"
	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
)

// Compile-time interface check.
var _ interfaces.IProviderClient = (*YahooProvider)(nil)

// -----------------------------------------------------------------------------

// YahooProvider implements IProviderClient against the Yahoo Finance chart
// API and the Yahoo streamer websocket.
type YahooProvider struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewYahooProvider(cfg *models.MConfig, netMgr interfaces.INetworkManager) *YahooProvider {
	return &YahooProvider{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger(nil, "YahooProvider"),
	}
}

// -----------------------------------------------------------------------------

// FetchDailyBars retrieves daily bars: the full history when spec.Start is
// nil, otherwise from spec.Start (inclusive) to now.
func (p *YahooProvider) FetchDailyBars(symbol string, spec models.MRangeSpec) ([]models.MDailyBar, error) {
	params := map[string]string{
		"interval":       "1d",
		"includePrePost": "false",
	}

	if spec.Start == nil {
		params["range"] = "max"
	} else {
		params["period1"] = strconv.FormatInt(spec.Start.Unix(), 10)
		params["period2"] = strconv.FormatInt(time.Now().Unix(), 10)
	}

	resp, err := p.fetchChart(symbol, params)
	if err != nil {
		return nil, err
	}

	return p.parseDailyBars(symbol, resp)
}

// -----------------------------------------------------------------------------

// FetchIntradayBars retrieves sub-daily bars for exactly the requested
// period and interval.
func (p *YahooProvider) FetchIntradayBars(symbol, period, interval string) ([]models.MIntradayBar, error) {
	params := map[string]string{
		"interval":       interval,
		"range":          period,
		"includePrePost": "false",
	}

	resp, err := p.fetchChart(symbol, params)
	if err != nil {
		return nil, err
	}

	return p.parseIntradayBars(symbol, resp)
}

// -----------------------------------------------------------------------------

// FetchQuote retrieves a one-shot quote snapshot from the chart metadata.
func (p *YahooProvider) FetchQuote(symbol string) (*models.MQuoteSnapshot, error) {
	params := map[string]string{
		"interval": "1d",
		"range":    "1d",
	}

	resp, err := p.fetchChart(symbol, params)
	if err != nil {
		return nil, err
	}

	meta := resp.Chart.Result[0].Meta

	name := meta.ShortName
	if name == "" {
		name = symbol
	}

	change := meta.RegularMarketPrice - meta.ChartPreviousClose
	changePct := 0.0
	if meta.ChartPreviousClose > 0 {
		changePct = change / meta.ChartPreviousClose * 100
	}

	return &models.MQuoteSnapshot{
		Symbol:        symbol,
		Name:          name,
		Price:         meta.RegularMarketPrice,
		Change:        change,
		ChangePercent: changePct,
		Volume:        meta.RegularMarketVolume,
		PreviousClose: meta.ChartPreviousClose,
	}, nil
}

// -----------------------------------------------------------------------------

func (p *YahooProvider) fetchChart(symbol string, params map[string]string) (*YahooChartResponse, error) {
	url := fmt.Sprintf("%s/%s", p.Config.Provider.ChartBaseURL, symbol)

	respBytes, err := p.Network.Get(url, params)
	if err != nil {
		return nil, helpers.NewFetchError(fmt.Sprintf("network error for %s", symbol), err)
	}

	var resp YahooChartResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, helpers.NewFetchError("json unmarshal failed", err)
	}

	if resp.Chart.Error != nil {
		return nil, helpers.NewFetchError(
			fmt.Sprintf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description), nil)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, helpers.NewFetchError(fmt.Sprintf("no result in response for %s", symbol), nil)
	}

	return &resp, nil
}

// -----------------------------------------------------------------------------

// chartPoint is one aligned, non-null row extracted from the chart arrays.
type chartPoint struct {
	timestamp int64
	open      float64
	high      float64
	low       float64
	close     float64
	volume    int64
}

// -----------------------------------------------------------------------------

// extractPoints validates array alignment, drops null rows, and returns
// points sorted by timestamp.
func (p *YahooProvider) extractPoints(symbol string, resp *YahooChartResponse) ([]chartPoint, error) {
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, helpers.NewFetchError(fmt.Sprintf("no timestamps in response for %s", symbol), nil)
	}

	indicators := result.Indicators.Quote
	if len(indicators) == 0 {
		return nil, helpers.NewFetchError(fmt.Sprintf("no quote data in response for %s", symbol), nil)
	}

	quote := indicators[0]

	if len(result.Timestamp) != len(quote.Close) ||
		len(result.Timestamp) != len(quote.Open) ||
		len(result.Timestamp) != len(quote.High) ||
		len(result.Timestamp) != len(quote.Low) ||
		len(result.Timestamp) != len(quote.Volume) {
		p.Logger.Info("Data alignment error for %s: mismatched array lengths", symbol)
		return nil, helpers.NewFetchError(fmt.Sprintf("data alignment error for %s", symbol), nil)
	}

	var points []chartPoint

	for i := 0; i < len(result.Timestamp); i++ {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			p.Logger.Debug("Skipping null OHLCV row for %s at index %d", symbol, i)
			continue
		}

		closeVal := *quote.Close[i]
		volume := *quote.Volume[i]
		if closeVal <= 0 || volume < 0 {
			p.Logger.Debug("Skipping invalid point for %s: close=%f, volume=%f", symbol, closeVal, volume)
			continue
		}

		points = append(points, chartPoint{
			timestamp: result.Timestamp[i],
			open:      *quote.Open[i],
			high:      *quote.High[i],
			low:       *quote.Low[i],
			close:     closeVal,
			volume:    int64(volume),
		})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].timestamp < points[j].timestamp
	})

	if len(points) == 0 {
		return nil, helpers.NewFetchError(fmt.Sprintf("no valid data points for %s", symbol), nil)
	}

	return points, nil
}

// -----------------------------------------------------------------------------

func (p *YahooProvider) parseDailyBars(symbol string, resp *YahooChartResponse) ([]models.MDailyBar, error) {
	points, err := p.extractPoints(symbol, resp)
	if err != nil {
		return nil, err
	}

	// Daily timestamps sit at the exchange session open; shifting by the
	// exchange GMT offset yields the exchange calendar day.
	offset := time.Duration(resp.Chart.Result[0].Meta.Gmtoffset) * time.Second

	bars := make([]models.MDailyBar, 0, len(points))
	for _, pt := range points {
		day := time.Unix(pt.timestamp, 0).UTC().Add(offset).Truncate(24 * time.Hour)
		bars = append(bars, models.MDailyBar{
			Symbol: symbol,
			Date:   day,
			Open:   pt.open,
			High:   pt.high,
			Low:    pt.low,
			Close:  pt.close,
			Volume: pt.volume,
		})
	}

	p.Logger.Info("Fetched %s: %d daily bars [%s -> %s]",
		symbol, len(bars), bars[0].DateString(), bars[len(bars)-1].DateString())

	return bars, nil
}

// -----------------------------------------------------------------------------

func (p *YahooProvider) parseIntradayBars(symbol string, resp *YahooChartResponse) ([]models.MIntradayBar, error) {
	points, err := p.extractPoints(symbol, resp)
	if err != nil {
		return nil, err
	}

	bars := make([]models.MIntradayBar, 0, len(points))
	for _, pt := range points {
		bars = append(bars, models.MIntradayBar{
			Symbol:    symbol,
			Timestamp: time.Unix(pt.timestamp, 0).UTC(),
			Open:      pt.open,
			High:      pt.high,
			Low:       pt.low,
			Close:     pt.close,
			Volume:    pt.volume,
		})
	}

	return bars, nil
}
