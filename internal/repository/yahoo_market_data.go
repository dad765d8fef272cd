package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockStats/internal/domain/models"
	domrepo "StockStats/internal/domain/repository"
	pkghttp "StockStats/pkg/http"
	applogger "StockStats/pkg/logger"
)

var _ domrepo.MarketDataSource = (*YahooMarketData)(nil)

// YahooMarketData reads daily bars from the Yahoo Finance v8 chart API.
type YahooMarketData struct {
	client    *pkghttp.Client
	baseURL   string
	userAgent string
	l         *applogger.Logger
}

func NewYahooMarketData(client *pkghttp.Client, baseURL, userAgent string, l *applogger.Logger) *YahooMarketData {
	if l == nil {
		l = applogger.Nop()
	}
	return &YahooMarketData{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		l:         l,
	}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Get returns bars with start <= date < end. The timeout bounds the whole call.
func (y *YahooMarketData) Get(ctx context.Context, symbol string, start, end time.Time, timeout time.Duration) (models.Series, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	began := time.Now()
	var chart yahooChart
	err := y.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    y.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		Headers: map[string]string{
			"User-Agent": y.userAgent,
			"Accept":     "application/json",
		},
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(start.Unix(), 10)},
			"period2":  {strconv.FormatInt(end.Unix(), 10)},
			"interval": {"1d"},
			"events":   {"history"},
		},
	}, &chart)
	if err != nil {
		y.l.Debug("yahoo chart request failed",
			applogger.String("symbol", symbol),
			applogger.Duration("elapsed_ms", time.Since(began)),
			applogger.Error(err),
		)
		return nil, classifyYahooError(symbol, err)
	}

	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo %s: %s", models.ErrRetrieval, symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return models.Series{}, nil
	}

	series := chartToSeries(chart)
	y.l.Debug("yahoo chart fetched",
		applogger.String("symbol", symbol),
		applogger.Int("bars", len(series)),
		applogger.Duration("elapsed_ms", time.Since(began)),
	)
	return series, nil
}

func chartToSeries(chart yahooChart) models.Series {
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return models.Series{}
	}
	quote := result.Indicators.Quote[0]
	offset := time.Duration(result.Meta.GMTOffset) * time.Second

	at := func(xs []*float64, i int) (float64, bool) {
		if i >= len(xs) || xs[i] == nil {
			return 0, false
		}
		return *xs[i], true
	}

	out := make(models.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		c, ok4 := at(quote.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue // null bar (holiday or halted session)
		}
		v, _ := at(quote.Volume, i)

		// exchange-local calendar day
		local := time.Unix(ts, 0).UTC().Add(offset)
		yy, mm, dd := local.Date()
		out = append(out, models.Bar{
			Date:   time.Date(yy, mm, dd, 0, 0, 0, 0, time.UTC),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func classifyYahooError(symbol string, err error) error {
	var se *pkghttp.StatusError
	if errors.As(err, &se) {
		var body yahooChart
		if json.Unmarshal(se.Body, &body) == nil && body.Chart.Error != nil {
			return fmt.Errorf("%w: yahoo %s: %s", models.ErrRetrieval, symbol, body.Chart.Error.Description)
		}
		return fmt.Errorf("%w: yahoo %s: status %d", models.ErrRetrieval, symbol, se.StatusCode)
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: yahoo %s: %w", models.ErrTimeout, symbol, err)
	}
	return fmt.Errorf("%w: yahoo %s: %w", models.ErrRetrieval, symbol, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
