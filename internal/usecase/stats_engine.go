package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"StockStats/internal/domain/models"
	domrepo "StockStats/internal/domain/repository"
	"StockStats/internal/service/cache"
	applogger "StockStats/pkg/logger"
	"StockStats/pkg/metrics"
	"StockStats/pkg/util"
)

// StatsEngine computes summary statistics for a symbol and window, memoizing
// successful results in a ResultCache.
type StatsEngine struct {
	source         domrepo.MarketDataSource
	sample         domrepo.SampleReader
	cache          *cache.ResultCache
	publisher      domrepo.EventPublisher
	metrics        domrepo.Metrics
	l              *applogger.Logger
	defaultTimeout time.Duration
	cacheDisabled  bool
}

type StatsEngineOption func(*StatsEngine)

func WithStatsPublisher(p domrepo.EventPublisher) StatsEngineOption {
	return func(e *StatsEngine) { e.publisher = p }
}

func WithStatsMetrics(m domrepo.Metrics) StatsEngineOption {
	return func(e *StatsEngine) { e.metrics = m }
}

func WithStatsLogger(l *applogger.Logger) StatsEngineOption {
	return func(e *StatsEngine) { e.l = l }
}

// WithDefaultTimeout bounds provider calls that carry no explicit timeout.
func WithDefaultTimeout(d time.Duration) StatsEngineOption {
	return func(e *StatsEngine) { e.defaultTimeout = d }
}

// WithCacheDisabled makes every fetch bypass the cache regardless of UseCache.
func WithCacheDisabled(disabled bool) StatsEngineOption {
	return func(e *StatsEngine) { e.cacheDisabled = disabled }
}

func NewStatsEngine(source domrepo.MarketDataSource, sample domrepo.SampleReader, rc *cache.ResultCache, opts ...StatsEngineOption) *StatsEngine {
	e := &StatsEngine{
		source:    source,
		sample:    sample,
		cache:     rc,
		publisher: nopPublisher{},
		metrics:   metrics.Nop{},
		l:         applogger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.NewResultCache()
	}
	return e
}

// FetchParams describes one stats request. Start and End are YYYY-MM-DD.
type FetchParams struct {
	Symbol       string
	Start        string
	End          string
	Timeout      float64 // seconds, meaningful only when HasTimeout
	HasTimeout   bool
	SampleFile   string
	UseCache     bool
	RefreshCache bool
}

// Fetch never returns an error: every failure is folded into a StatsFailure.
func (e *StatsEngine) Fetch(ctx context.Context, p FetchParams) models.StatsResult {
	began := time.Now()
	defer func() { e.metrics.RecordLatency("stats_fetch", time.Since(began).Seconds()) }()

	symbol := util.NormalizeSymbol(p.Symbol)
	period := models.Period{Start: p.Start, End: p.End}
	useCache := p.UseCache && !e.cacheDisabled

	start, end, err := e.validate(symbol, p)
	if err != nil {
		return e.fail(symbol, period, models.FailureValidation, err.Error())
	}

	var timeout *float64
	if p.HasTimeout {
		timeout = &p.Timeout
	}
	key := cache.NewCacheKey(symbol, p.Start, p.End, p.SampleFile, timeout)

	if p.RefreshCache {
		e.cache.Invalidate(key)
		e.l.Debug("cache entry invalidated", applogger.String("key", key.String()))
	}

	if useCache {
		cached, ok := e.cache.Get(key)
		e.metrics.RecordCacheLookup(ok)
		if ok {
			e.l.Debug("cache hit", applogger.String("key", key.String()))
			cached.CacheHit = true
			return cached
		}
		e.l.Debug("cache miss", applogger.String("key", key.String()))
	}

	series, err := e.retrieve(ctx, symbol, start, end, p)
	if err != nil {
		kind := models.FailureRetrieval
		if errors.Is(err, models.ErrTimeout) {
			kind = models.FailureTimeout
		}
		return e.fail(symbol, period, kind, err.Error())
	}
	if len(series) == 0 {
		return e.fail(symbol, period, models.FailureEmptyData, models.ErrEmptyData.Error())
	}

	res, err := summarize(symbol, period, series)
	if err != nil {
		kind := models.FailureRetrieval
		if errors.Is(err, models.ErrEmptyData) {
			kind = models.FailureEmptyData
		}
		return e.fail(symbol, period, kind, err.Error())
	}
	e.l.Debug("stats computed",
		applogger.String("symbol", symbol),
		applogger.Int("bars", len(series)),
		applogger.Float64("high", res.High),
		applogger.Float64("low", res.Low),
		applogger.Float64("average_close", res.AverageClose),
		applogger.Float64("last_close", res.LastClose),
	)

	if useCache {
		e.cache.Put(key, res)
	}
	e.metrics.RecordLastClose(symbol, res.LastClose)
	e.publish(ctx, domrepo.Event{
		Type:      domrepo.EventStatsComputed,
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Payload:   res,
	})
	return res
}

// ClearCache drops every memoized result and reports how many there were.
func (e *StatsEngine) ClearCache() int {
	return e.cache.ClearAll()
}

// CachedEntries reports the number of memoized results.
func (e *StatsEngine) CachedEntries() int {
	return e.cache.Len()
}

func (e *StatsEngine) validate(symbol string, p FetchParams) (time.Time, time.Time, error) {
	if symbol == "" {
		return time.Time{}, time.Time{}, models.ValidationErrorf("symbol is required")
	}
	start, err := util.ParseISODate(p.Start)
	if err != nil {
		return time.Time{}, time.Time{}, models.ValidationErrorf("start: %v", err)
	}
	end, err := util.ParseISODate(p.End)
	if err != nil {
		return time.Time{}, time.Time{}, models.ValidationErrorf("end: %v", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, models.ValidationErrorf("end %s is before start %s", p.End, p.Start)
	}
	if p.HasTimeout && p.Timeout <= 0 {
		return time.Time{}, time.Time{}, models.ValidationErrorf("timeout must be positive")
	}
	return start, end, nil
}

// Sample files are read whole; the window is not applied.
func (e *StatsEngine) retrieve(ctx context.Context, symbol string, start, end time.Time, p FetchParams) (models.Series, error) {
	if strings.TrimSpace(p.SampleFile) != "" {
		e.l.Debug("reading sample file", applogger.String("path", p.SampleFile))
		return e.sample.Read(p.SampleFile)
	}

	timeout := e.defaultTimeout
	if p.HasTimeout {
		timeout = time.Duration(p.Timeout * float64(time.Second))
	}
	e.l.Debug("fetching from provider",
		applogger.String("symbol", symbol),
		applogger.String("start", p.Start),
		applogger.String("end", p.End),
		applogger.Duration("timeout_ms", timeout),
	)
	return e.source.Get(ctx, symbol, start, end, timeout)
}

func (e *StatsEngine) fail(symbol string, period models.Period, kind models.FailureKind, reason string) models.StatsFailure {
	e.metrics.RecordError(string(kind))
	e.l.Debug("stats failed",
		applogger.String("symbol", symbol),
		applogger.String("kind", string(kind)),
		applogger.String("reason", reason),
	)
	return models.StatsFailure{Symbol: symbol, Period: period, Reason: reason, Kind: kind}
}

func (e *StatsEngine) publish(ctx context.Context, ev domrepo.Event) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.l.Warn("event publish failed",
			applogger.String("type", ev.Type),
			applogger.String("symbol", ev.Symbol),
			applogger.Error(err),
		)
	}
}

// summarize takes each figure over its own column, skipping non-finite cells.
// A column with no finite value is reported as ErrEmptyData.
func summarize(symbol string, period models.Period, s models.Series) (models.StatsSuccess, error) {
	high, low := math.Inf(-1), math.Inf(1)
	var (
		sum       float64
		closes    int
		lastClose float64
		highs     int
		lows      int
	)
	for _, b := range s {
		if finite(b.High) {
			high = math.Max(high, b.High)
			highs++
		}
		if finite(b.Low) {
			low = math.Min(low, b.Low)
			lows++
		}
		if finite(b.Close) {
			sum += b.Close
			lastClose = b.Close
			closes++
		}
	}
	switch {
	case highs == 0:
		return models.StatsSuccess{}, fmt.Errorf("%w: no valid High values", models.ErrEmptyData)
	case lows == 0:
		return models.StatsSuccess{}, fmt.Errorf("%w: no valid Low values", models.ErrEmptyData)
	case closes == 0:
		return models.StatsSuccess{}, fmt.Errorf("%w: no valid Close values", models.ErrEmptyData)
	case high < low:
		return models.StatsSuccess{}, fmt.Errorf("%w: inconsistent bars, high %.2f below low %.2f", models.ErrRetrieval, high, low)
	}
	return models.StatsSuccess{
		Symbol:       symbol,
		Period:       period,
		High:         util.Round(high, 2),
		Low:          util.Round(low, 2),
		AverageClose: util.Round(sum/float64(closes), 2),
		LastClose:    util.Round(lastClose, 2),
	}, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domrepo.Event) error { return nil }
func (nopPublisher) Close() error                                 { return nil }
