package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockStats/internal/domain/models"
	domrepo "StockStats/internal/domain/repository"
	domsvc "StockStats/internal/domain/service"
	"StockStats/internal/services/features"
	applogger "StockStats/pkg/logger"
	"StockStats/pkg/metrics"
	"StockStats/pkg/util"
)

const (
	MinLookbackDays = 40
	MaxLookbackDays = 365

	// calendar days fetched beyond the lookback so the longest rolling
	// window is warm at the start of the lookback
	lookbackPaddingDays = 40
)

// Model is a loaded estimator with the ordered feature names it expects.
type Model struct {
	Estimator domsvc.Estimator
	Features  []string
}

// PredictionService turns recent history into a next-close estimate.
type PredictionService struct {
	source    domrepo.MarketDataSource
	model     *Model
	timeout   time.Duration
	now       func() time.Time
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

type PredictionOption func(*PredictionService)

func WithPredictionClock(now func() time.Time) PredictionOption {
	return func(s *PredictionService) { s.now = now }
}

func WithPredictionTimeout(d time.Duration) PredictionOption {
	return func(s *PredictionService) { s.timeout = d }
}

func WithPredictionPublisher(p domrepo.EventPublisher) PredictionOption {
	return func(s *PredictionService) { s.publisher = p }
}

func WithPredictionMetrics(m domrepo.Metrics) PredictionOption {
	return func(s *PredictionService) { s.metrics = m }
}

func WithPredictionLogger(l *applogger.Logger) PredictionOption {
	return func(s *PredictionService) { s.l = l }
}

// NewPredictionService accepts a nil model; Predict then fails with
// models.ErrModelUnavailable.
func NewPredictionService(source domrepo.MarketDataSource, model *Model, opts ...PredictionOption) *PredictionService {
	s := &PredictionService{
		source:    source,
		model:     model,
		timeout:   15 * time.Second,
		now:       time.Now,
		publisher: nopPublisher{},
		metrics:   metrics.Nop{},
		l:         applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModelLoaded reports whether predictions can be served.
func (s *PredictionService) ModelLoaded() bool {
	return s.model != nil && s.model.Estimator != nil
}

// Predict averages the estimator output over the last lookbackDays complete
// feature rows.
func (s *PredictionService) Predict(ctx context.Context, symbol string, lookbackDays int) (*models.PredictionResult, error) {
	if !s.ModelLoaded() {
		return nil, models.ErrModelUnavailable
	}
	began := time.Now()
	defer func() { s.metrics.RecordLatency("predict", time.Since(began).Seconds()) }()

	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, models.ValidationErrorf("symbol is required")
	}
	if lookbackDays < MinLookbackDays || lookbackDays > MaxLookbackDays {
		return nil, models.ValidationErrorf("lookback must be between %d and %d days", MinLookbackDays, MaxLookbackDays)
	}

	// providers treat end as exclusive; start of tomorrow keeps today's bar
	y, m, d := s.now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(lookbackDays + lookbackPaddingDays))
	end := today.AddDate(0, 0, 1)

	series, err := s.source.Get(ctx, symbol, start, end, s.timeout)
	if err != nil {
		s.metrics.RecordError("predict_retrieval")
		if !errors.Is(err, models.ErrRetrieval) && !errors.Is(err, models.ErrTimeout) {
			err = fmt.Errorf("%w: %w", models.ErrRetrieval, err)
		}
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w for %s between %s and %s", models.ErrEmptyData, symbol, util.FormatISODate(start), util.FormatISODate(today))
	}

	frame := features.Tail(features.Complete(features.Build(series)), lookbackDays)
	if len(frame.Rows) == 0 {
		return nil, fmt.Errorf("%w: %d bars for %s", models.ErrNoFeatureRows, len(series), symbol)
	}

	X, err := features.Select(frame, s.model.Features)
	if err != nil {
		return nil, err
	}

	preds, err := s.model.Estimator.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}
	if len(preds) != len(X) {
		return nil, fmt.Errorf("estimator returned %d predictions for %d rows", len(preds), len(X))
	}

	sum := 0.0
	for _, p := range preds {
		sum += p
	}
	res := &models.PredictionResult{
		Symbol:     symbol,
		Prediction: util.Round(sum/float64(len(preds)), 4),
		AsOf:       util.FormatISODate(frame.Rows[len(frame.Rows)-1].Date),
		Features:   append([]string(nil), s.model.Features...),
		Rows:       len(X),
	}

	s.l.Debug("prediction computed",
		applogger.String("symbol", symbol),
		applogger.Int("rows", res.Rows),
		applogger.Float64("prediction", res.Prediction),
		applogger.String("as_of", res.AsOf),
	)
	s.metrics.RecordPrediction(symbol, res.Prediction)
	if err := s.publisher.Publish(ctx, domrepo.Event{
		Type:      domrepo.EventPredictionMade,
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Payload:   res,
	}); err != nil {
		s.l.Warn("event publish failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	return res, nil
}
