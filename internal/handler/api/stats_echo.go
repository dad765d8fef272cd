package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"StockStats/internal/domain/models"
	domrepo "StockStats/internal/domain/repository"
	"StockStats/internal/usecase"
	xhttp "StockStats/pkg/http"
	xlogger "StockStats/pkg/logger"

	"github.com/labstack/echo/v4"
)

var _ xhttp.Handler = (*StatsEchoHandler)(nil)

// StatsEchoHandler exposes statistics, comparison and prediction over HTTP.
type StatsEchoHandler struct {
	logger    *xlogger.Logger
	engine    *usecase.StatsEngine
	queries   *usecase.MarketQueryUseCase
	predictor *usecase.PredictionService
	store     domrepo.HealthChecker
	now       func() time.Time
}

type HandlerOption func(*StatsEchoHandler)

// WithStoreHealth makes /health ping the market data store.
func WithStoreHealth(hc domrepo.HealthChecker) HandlerOption {
	return func(h *StatsEchoHandler) { h.store = hc }
}

func NewStatsEchoHandler(logger *xlogger.Logger, engine *usecase.StatsEngine, queries *usecase.MarketQueryUseCase, predictor *usecase.PredictionService, opts ...HandlerOption) *StatsEchoHandler {
	h := &StatsEchoHandler{
		logger:    logger,
		engine:    engine,
		queries:   queries,
		predictor: predictor,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *StatsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/stats", h.Stats)
	g.POST("/batch-stats", h.BatchStats)
	g.GET("/compare", h.Compare)
	g.GET("/predict", h.Predict)
	g.DELETE("/cache", h.ClearCache)
}

type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	ModelLoaded  bool   `json:"model_loaded"`
	CacheEntries int    `json:"cache_entries"`
	MarketData   string `json:"market_data,omitempty"`
}

const storeHealthTimeout = 2 * time.Second

// Health answers 503 with status "degraded" when the market data store is unreachable.
func (h *StatsEchoHandler) Health(c echo.Context) error {
	resp := healthResponse{
		Status:       "healthy",
		Timestamp:    h.now().UTC().Format(time.RFC3339),
		ModelLoaded:  h.predictor.ModelLoaded(),
		CacheEntries: h.engine.CachedEntries(),
	}
	code := http.StatusOK
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), storeHealthTimeout)
		defer cancel()
		resp.MarketData = "ok"
		if err := h.store.Health(ctx); err != nil {
			h.logger.Warn("market data store unhealthy", xlogger.Error(err))
			resp.Status = "degraded"
			resp.MarketData = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, resp)
}

func (h *StatsEchoHandler) Stats(c echo.Context) error {
	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.engine.Fetch(c.Request().Context(), usecase.FetchParams{
		Symbol:       req.Ticker,
		Start:        req.Start,
		End:          req.End,
		Timeout:      req.Timeout,
		HasTimeout:   true,
		SampleFile:   req.SampleFile,
		UseCache:     req.UseCache,
		RefreshCache: req.RefreshCache,
	})
	if f, ok := res.(models.StatsFailure); ok {
		h.logger.Warn("stats request failed",
			xlogger.String("symbol", f.Symbol),
			xlogger.String("kind", string(f.Kind)),
			xlogger.String("reason", f.Reason),
		)
		return xhttp.AppErrorResponse(c, failureError(f))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StatsEchoHandler) BatchStats(c echo.Context) error {
	req := &models.BatchStatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.queries.Batch(c.Request().Context(), usecase.BatchParams{
		Tickers:    req.Tickers,
		Start:      req.Start,
		End:        req.End,
		Timeout:    req.Timeout,
		HasTimeout: true,
		UseCache:   req.UseCache,
	})
	return xhttp.SuccessResponse(c, res)
}

func (h *StatsEchoHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.Compare(c.Request().Context(), usecase.CompareParams{
		Tickers:    req.Tickers,
		Start:      req.Start,
		End:        req.End,
		Timeout:    req.Timeout,
		HasTimeout: true,
	})
	if err != nil {
		h.logger.Warn("compare usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StatsEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.predictor.Predict(c.Request().Context(), req.Ticker, req.Lookback)
	if err != nil {
		h.logger.Error("predict usecase error",
			xlogger.String("symbol", req.Ticker),
			xlogger.Int("lookback", req.Lookback),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

type clearCacheResponse struct {
	Cleared int `json:"cleared"`
}

func (h *StatsEchoHandler) ClearCache(c echo.Context) error {
	n := h.engine.ClearCache()
	h.logger.Info("result cache cleared", xlogger.Int("entries", n))
	return xhttp.SuccessResponse(c, clearCacheResponse{Cleared: n})
}

func failureError(f models.StatsFailure) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch f.Kind {
	case models.FailureValidation:
		appErr = xhttp.BadRequestError(f.Reason)
	case models.FailureTimeout:
		appErr = xhttp.GatewayTimeoutError(f.Reason)
	default:
		appErr = xhttp.NotFoundError(f.Reason)
	}
	return appErr.WithParam("symbol", f.Symbol).WithError(f)
}

// domainError maps usecase errors onto HTTP errors.
func domainError(err error) *xhttp.AppError {
	var mismatch *models.FeatureMismatchError
	switch {
	case errors.Is(err, models.ErrModelUnavailable):
		return xhttp.ServiceUnavailableError("prediction model is not loaded").WithError(err)
	case errors.Is(err, models.ErrValidation):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNoFeatureRows):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrTimeout):
		return xhttp.GatewayTimeoutError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrEmptyData), errors.Is(err, models.ErrRetrieval):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.As(err, &mismatch):
		return xhttp.InternalError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
