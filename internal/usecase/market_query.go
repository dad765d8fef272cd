package usecase

import (
	"context"
	"fmt"
	"sort"

	"StockStats/internal/domain/models"
	applogger "StockStats/pkg/logger"
	"StockStats/pkg/util"
)

const (
	MaxBatchTickers   = 10
	MaxCompareTickers = 5
)

// MarketQueryUseCase runs multi-symbol stats requests through the StatsEngine.
type MarketQueryUseCase struct {
	engine *StatsEngine
	l      *applogger.Logger
}

func NewMarketQueryUseCase(engine *StatsEngine, l *applogger.Logger) *MarketQueryUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &MarketQueryUseCase{engine: engine, l: l}
}

type BatchParams struct {
	Tickers    []string
	Start      string
	End        string
	Timeout    float64
	HasTimeout bool
	UseCache   bool
}

// Batch processes the first MaxBatchTickers tickers in order. Failures stay in
// the result map next to successes.
func (uc *MarketQueryUseCase) Batch(ctx context.Context, p BatchParams) models.BatchStatsResponse {
	tickers := p.Tickers
	if len(tickers) > MaxBatchTickers {
		uc.l.Debug("batch truncated",
			applogger.Int("supplied", len(tickers)),
			applogger.Int("processed", MaxBatchTickers),
		)
		tickers = tickers[:MaxBatchTickers]
	}

	results := make(map[string]models.StatsResult, len(tickers))
	for _, t := range tickers {
		res := uc.engine.Fetch(ctx, FetchParams{
			Symbol:     t,
			Start:      p.Start,
			End:        p.End,
			Timeout:    p.Timeout,
			HasTimeout: p.HasTimeout,
			UseCache:   p.UseCache,
		})
		results[res.GetSymbol()] = res
	}

	return models.BatchStatsResponse{
		Results: results,
		Count:   len(tickers),
		Period:  models.Period{Start: p.Start, End: p.End},
	}
}

type CompareParams struct {
	Tickers    string // comma separated
	Start      string
	End        string
	Timeout    float64
	HasTimeout bool
}

// Compare ranks up to MaxCompareTickers symbols by average close, highest
// first. Symbols without data are reported in Skipped; if none has data the
// error wraps models.ErrEmptyData.
func (uc *MarketQueryUseCase) Compare(ctx context.Context, p CompareParams) (*models.CompareResponse, error) {
	tickers := util.SplitSymbols(p.Tickers)
	if len(tickers) == 0 {
		return nil, models.ValidationErrorf("no tickers supplied")
	}
	if len(tickers) > MaxCompareTickers {
		tickers = tickers[:MaxCompareTickers]
	}

	period := models.Period{Start: p.Start, End: p.End}
	resp := &models.CompareResponse{Period: period, Items: make([]models.CompareItem, 0, len(tickers))}
	for _, t := range tickers {
		res := uc.engine.Fetch(ctx, FetchParams{
			Symbol:     t,
			Start:      p.Start,
			End:        p.End,
			Timeout:    p.Timeout,
			HasTimeout: p.HasTimeout,
			UseCache:   true,
		})
		switch r := res.(type) {
		case models.StatsSuccess:
			resp.Items = append(resp.Items, models.CompareItem{StatsSuccess: r, RangePercent: rangePercent(r)})
		case models.StatsFailure:
			uc.l.Warn("compare skipped symbol",
				applogger.String("symbol", r.Symbol),
				applogger.String("reason", r.Reason),
			)
			resp.Skipped = append(resp.Skipped, r.Symbol)
		}
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w for any of %v", models.ErrEmptyData, tickers)
	}

	sort.SliceStable(resp.Items, func(i, j int) bool {
		return resp.Items[i].AverageClose > resp.Items[j].AverageClose
	})
	resp.TopSymbol = resp.Items[0].Symbol
	resp.Count = len(resp.Items)
	return resp, nil
}

func rangePercent(s models.StatsSuccess) float64 {
	if s.AverageClose <= 0 {
		return 0
	}
	return util.Round((s.High-s.Low)/s.AverageClose*100, 2)
}
