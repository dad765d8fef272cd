package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockStats/internal/domain/models"
	pkghttp "StockStats/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"gmtoffset":-18000},
 "timestamp":[1704292200,1704205800,1704378600],
 "indicators":{"quote":[{
  "open":[184.22,187.15,null],
  "high":[185.88,188.44,null],
  "low":[183.43,183.89,null],
  "close":[184.25,185.64,null],
  "volume":[58414500,82488700,null]}]}}],"error":null}}`

func newYahoo(t *testing.T, h http.HandlerFunc) *YahooMarketData {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewYahooMarketData(pkghttp.NewClient(), srv.URL, "test-agent", nil)
}

func TestYahooMarketDataGet(t *testing.T) {
	var gotPath, gotP1, gotP2, gotUA string
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotP1 = r.URL.Query().Get("period1")
		gotP2 = r.URL.Query().Get("period2")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(chartBody))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	series, err := y.Get(context.Background(), "AAPL", start, end, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, "1704067200", gotP1)
	assert.Equal(t, "1704412800", gotP2)
	assert.Equal(t, "test-agent", gotUA)

	require.Len(t, series, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.Equal(t, 185.64, series[0].Close)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), series[1].Date)
	assert.Equal(t, 58414500.0, series[1].Volume)
}

func TestYahooMarketDataEmptyResult(t *testing.T) {
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{},"indicators":{"quote":[{}]}}],"error":null}}`))
	})

	series, err := y.Get(context.Background(), "AAPL", time.Now().AddDate(0, 0, -3), time.Now(), time.Second)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestYahooMarketDataProviderError(t *testing.T) {
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := y.Get(context.Background(), "ZZZZ", time.Now().AddDate(0, 0, -3), time.Now(), time.Second)
	require.ErrorIs(t, err, models.ErrRetrieval)
	assert.Contains(t, err.Error(), "symbol may be delisted")
}

func TestYahooMarketDataTimeout(t *testing.T) {
	release := make(chan struct{})
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := y.Get(context.Background(), "AAPL", time.Now().AddDate(0, 0, -3), time.Now(), 50*time.Millisecond)
	require.ErrorIs(t, err, models.ErrTimeout)
	assert.NotErrorIs(t, err, models.ErrRetrieval)
}
