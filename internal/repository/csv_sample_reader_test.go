package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockStats/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSample(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCSVSampleReaderPlain(t *testing.T) {
	path := writeSample(t, `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-03,101,103,100,102,101.5,2000
2024-01-02,100,102,99,101,100.5,1000
`)
	series, err := NewCSVSampleReader().Read(path)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.Equal(t, models.Bar{Date: series[1].Date, Open: 101, High: 103, Low: 100, Close: 102, Volume: 2000}, series[1])
}

func TestCSVSampleReaderYFinanceMultiHeader(t *testing.T) {
	path := writeSample(t, `Price,Close,High,Low,Open,Volume
Ticker,AAPL,AAPL,AAPL,AAPL,AAPL
Date,,,,,
2024-01-02,185.64,188.44,183.89,187.15,82488700
2024-01-03,184.25,185.88,183.43,184.22,58414500
2024-01-04,,,,,
`)
	series, err := NewCSVSampleReader().Read(path)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, 185.64, series[0].Close)
	assert.Equal(t, 188.44, series[0].High)
	assert.Equal(t, 187.15, series[0].Open)
	assert.Equal(t, 58414500.0, series[1].Volume)
}

func TestCSVSampleReaderErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVSampleReader().Read(filepath.Join(t.TempDir(), "none.csv"))
		assert.ErrorIs(t, err, models.ErrRetrieval)
	})
	t.Run("missing column", func(t *testing.T) {
		_, err := NewCSVSampleReader().Read(writeSample(t, "Date,Open,High,Low,Volume\n2024-01-02,1,2,0,5\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"close"`)
	})
	t.Run("bad number", func(t *testing.T) {
		_, err := NewCSVSampleReader().Read(writeSample(t, "Date,Open,High,Low,Close,Volume\n2024-01-02,1,x,0,1,5\n"))
		assert.Error(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := NewCSVSampleReader().Read(writeSample(t, ""))
		assert.Error(t, err)
	})
}

func TestParseSampleHeaderOnly(t *testing.T) {
	series, err := parseSample(strings.NewReader("Date,Open,High,Low,Close,Volume\n"))
	require.NoError(t, err)
	assert.Empty(t, series)
}
