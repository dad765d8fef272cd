package repository

import (
	"context"
	"time"

	"StockStats/internal/domain/models"
)

// MarketDataSource supplies an ordered daily series for a symbol and date range.
// timeout is advisory; implementations that enforce it return models.ErrTimeout.
type MarketDataSource interface {
	Get(ctx context.Context, symbol string, start, end time.Time, timeout time.Duration) (models.Series, error)
}

// HealthChecker is implemented by sources backed by a store that can be pinged.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SampleReader loads a whole series from a local delimited file.
type SampleReader interface {
	Read(path string) (models.Series, error)
}

// Event is a best-effort notification about a computed result.
type Event struct {
	Type      string      `json:"type"`
	Symbol    string      `json:"symbol"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

const (
	EventStatsComputed  = "stats.computed"
	EventPredictionMade = "prediction.made"
)

type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type Metrics interface {
	RecordCacheLookup(hit bool)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordPrediction(symbol string, value float64)
}
