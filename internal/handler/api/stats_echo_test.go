package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockStats/internal/domain/models"
	"StockStats/internal/repository"
	"StockStats/internal/service/cache"
	"StockStats/internal/services/features"
	"StockStats/internal/usecase"
	xlogger "StockStats/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	data  map[string]models.Series
	errs  map[string]error
	calls int
}

func (f *fakeSource) Get(_ context.Context, symbol string, _, _ time.Time, _ time.Duration) (models.Series, error) {
	f.calls++
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.data[symbol], nil
}

type constEstimator float64

func (c constEstimator) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = float64(c)
	}
	return out, nil
}

func series(n int, base float64) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.Series, n)
	for i := range out {
		c := base + float64(i%7)
		out[i] = models.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000 + float64(i%3)}
	}
	return out
}

type env struct {
	e   *echo.Echo
	src *fakeSource
}

func newEnv(t *testing.T, model *usecase.Model) *env {
	t.Helper()
	src := &fakeSource{
		data: map[string]models.Series{
			"AAPL": series(90, 100),
			"MSFT": series(90, 300),
		},
		errs: map[string]error{
			"SLOW": fmt.Errorf("%w: deadline exceeded", models.ErrTimeout),
		},
	}
	l := xlogger.Nop()
	engine := usecase.NewStatsEngine(src, repository.NewCSVSampleReader(), cache.NewResultCache(), usecase.WithStatsLogger(l))
	queries := usecase.NewMarketQueryUseCase(engine, l)
	predictor := usecase.NewPredictionService(src, model)

	h := NewStatsEchoHandler(l, engine, queries, predictor)
	e := echo.New()
	h.RegisterRoutes(e)
	return &env{e: e, src: src}
}

func (v *env) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestHealth(t *testing.T) {
	v := newEnv(t, nil)
	rec := v.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["model_loaded"])
	assert.Equal(t, float64(0), body["cache_entries"])
	assert.NotContains(t, body, "market_data")
}

type fakeStore struct{ err error }

func (f fakeStore) Health(context.Context) error { return f.err }

func TestHealthChecksStore(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		code   int
		status string
		store  string
	}{
		{"reachable", nil, http.StatusOK, "healthy", "ok"},
		{"unreachable", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded", "unavailable"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l := xlogger.Nop()
			src := &fakeSource{}
			engine := usecase.NewStatsEngine(src, repository.NewCSVSampleReader(), nil)
			h := NewStatsEchoHandler(l, engine, usecase.NewMarketQueryUseCase(engine, l),
				usecase.NewPredictionService(src, nil), WithStoreHealth(fakeStore{err: tc.err}))
			e := echo.New()
			h.RegisterRoutes(e)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tc.code, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body["status"])
			assert.Equal(t, tc.store, body["market_data"])
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	v := newEnv(t, nil)

	rec := v.do(http.MethodGet, "/api/stats?ticker=aapl&start=2024-01-01&end=2024-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first models.StatsSuccess
	decode(t, rec, &first)
	assert.Equal(t, "AAPL", first.Symbol)
	assert.False(t, first.CacheHit)
	assert.GreaterOrEqual(t, first.High, first.Low)

	rec = v.do(http.MethodGet, "/api/stats?ticker=AAPL&start=2024-01-01&end=2024-03-31", "")
	var second models.StatsSuccess
	decode(t, rec, &second)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, v.src.calls)

	rec = v.do(http.MethodGet, "/api/stats?ticker=AAPL&start=2024-01-01&end=2024-03-31&use_cache=false", "")
	var third models.StatsSuccess
	decode(t, rec, &third)
	assert.False(t, third.CacheHit)
	assert.Equal(t, 2, v.src.calls)
}

func TestStatsEndpointErrors(t *testing.T) {
	v := newEnv(t, nil)

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing ticker", "/api/stats?start=2024-01-01&end=2024-03-31", http.StatusBadRequest},
		{"bad date", "/api/stats?ticker=AAPL&start=2024-13-01&end=2024-03-31", http.StatusBadRequest},
		{"bad timeout", "/api/stats?ticker=AAPL&start=2024-01-01&end=2024-03-31&timeout=0", http.StatusBadRequest},
		{"no data", "/api/stats?ticker=ZZZZ&start=2024-01-01&end=2024-03-31", http.StatusNotFound},
		{"timeout", "/api/stats?ticker=SLOW&start=2024-01-01&end=2024-03-31", http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := v.do(http.MethodGet, tc.target, "")
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	rec := v.do(http.MethodGet, "/api/stats?ticker=ZZZZ&start=2024-01-01&end=2024-03-31", "")
	assert.Contains(t, rec.Body.String(), "No data found")
}

func TestBatchStatsEndpoint(t *testing.T) {
	v := newEnv(t, nil)

	rec := v.do(http.MethodPost, "/api/batch-stats", `{"tickers":["AAPL","ZZZZ"],"start":"2024-01-01","end":"2024-03-31"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Results map[string]map[string]interface{} `json:"results"`
		Count   int                               `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Contains(t, body.Results["AAPL"], "average_close")
	assert.Equal(t, "No data found", body.Results["ZZZZ"]["error"])
	assert.NotContains(t, body.Results["ZZZZ"], "high")

	rec = v.do(http.MethodPost, "/api/batch-stats", `{"tickers":[],"start":"2024-01-01","end":"2024-03-31"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareEndpoint(t *testing.T) {
	v := newEnv(t, nil)

	rec := v.do(http.MethodGet, "/api/compare?tickers=AAPL,MSFT,ZZZZ&start=2024-01-01&end=2024-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body models.CompareResponse
	decode(t, rec, &body)
	assert.Equal(t, "MSFT", body.TopSymbol)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"ZZZZ"}, body.Skipped)

	rec = v.do(http.MethodGet, "/api/compare?tickers=ZZZZ&start=2024-01-01&end=2024-03-31", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictEndpoint(t *testing.T) {
	v := newEnv(t, &usecase.Model{Estimator: constEstimator(42.5), Features: features.FeatureColumns})

	rec := v.do(http.MethodGet, "/api/predict?ticker=AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.PredictionResult
	decode(t, rec, &res)
	assert.Equal(t, 42.5, res.Prediction)
	assert.Equal(t, 60, res.Rows)

	assert.Equal(t, http.StatusBadRequest, v.do(http.MethodGet, "/api/predict?ticker=AAPL&lookback=10", "").Code)
	assert.Equal(t, http.StatusNotFound, v.do(http.MethodGet, "/api/predict?ticker=ZZZZ", "").Code)
	assert.Equal(t, http.StatusGatewayTimeout, v.do(http.MethodGet, "/api/predict?ticker=SLOW", "").Code)
}

func TestPredictEndpointStatuses(t *testing.T) {
	v := newEnv(t, nil)
	rec := v.do(http.MethodGet, "/api/predict?ticker=AAPL&lookback=60", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, v.src.calls)

	v = newEnv(t, &usecase.Model{Estimator: constEstimator(1), Features: []string{"rsi_14"}})
	rec = v.do(http.MethodGet, "/api/predict?ticker=AAPL", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClearCacheEndpoint(t *testing.T) {
	v := newEnv(t, nil)
	v.do(http.MethodGet, "/api/stats?ticker=AAPL&start=2024-01-01&end=2024-03-31", "")
	v.do(http.MethodGet, "/api/stats?ticker=MSFT&start=2024-01-01&end=2024-03-31", "")

	rec := v.do(http.MethodDelete, "/api/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Cleared int `json:"cleared"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Cleared)
}
