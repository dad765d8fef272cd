package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockStats/internal/domain/models"
	"StockStats/internal/domain/repository"
	"StockStats/internal/handler/api"
	"StockStats/internal/ml"
	internalrepo "StockStats/internal/repository"
	"StockStats/internal/service/cache"
	"StockStats/internal/usecase"
	pkgch "StockStats/pkg/clickhouse"
	"StockStats/pkg/config"
	xhttp "StockStats/pkg/http"
	"StockStats/pkg/http/middleware"
	pkgkafka "StockStats/pkg/kafka"
	applogger "StockStats/pkg/logger"
	"StockStats/pkg/metrics"
	"StockStats/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Services is the non-HTTP object graph used by the command line.
type Services struct {
	Logger    *applogger.Logger
	Source    repository.MarketDataSource
	Engine    *usecase.StatsEngine
	Predictor *usecase.PredictionService
}

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry shared by all collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideMarketDataSource selects the configured provider. The cleanup closes
// any connection pool it opened.
func ProvideMarketDataSource(cfg *config.Config, l *applogger.Logger) (repository.MarketDataSource, func(), error) {
	md := cfg.MarketData
	switch md.Provider {
	case config.ProviderClickHouse:
		client, err := pkgch.NewClient(context.Background(),
			pkgch.WithHost(md.ClickHouse.Host),
			pkgch.WithPort(md.ClickHouse.Port),
			pkgch.WithDatabase(md.ClickHouse.Database),
			pkgch.WithCredentials(md.ClickHouse.User, md.ClickHouse.Password),
			pkgch.WithMaxConnections(md.ClickHouse.MaxOpenConns, md.ClickHouse.MaxIdleConns),
			pkgch.WithHTTP(md.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(md.ClickHouse.DialTimeout, md.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(md.DefaultTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		src, err := internalrepo.NewClickHouseMarketData(client, md.ClickHouse.Table, l)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
		return src, cleanup, nil
	default:
		client := xhttp.NewClient(xhttp.WithTimeout(yahooClientTimeout(md.DefaultTimeout)))
		return internalrepo.NewYahooMarketData(client, md.Yahoo.BaseURL, md.Yahoo.UserAgent, l), func() {}, nil
	}
}

// yahooClientTimeout is a backstop above every per-call context deadline, so
// the request timeout a caller may ask for is never cut short.
func yahooClientTimeout(defaultTimeout time.Duration) time.Duration {
	limit := time.Duration(models.MaxTimeoutSeconds) * time.Second
	if defaultTimeout > limit {
		limit = defaultTimeout
	}
	return limit + 5*time.Second
}

// ProvideSampleReader creates the CSV sample-file reader.
func ProvideSampleReader() repository.SampleReader {
	return internalrepo.NewCSVSampleReader()
}

// ProvideEventPublisher creates a Kafka publisher when enabled, otherwise a no-op.
func ProvideEventPublisher(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (repository.EventPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
		pkgkafka.WithAsyncErrorHandler(func(topic string, n int, err error) {
			l.Warn("kafka async delivery failed",
				applogger.String("topic", topic),
				applogger.Int("messages", n),
				applogger.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideResultCache creates the process-wide result cache.
func ProvideResultCache() *cache.ResultCache {
	return cache.NewResultCache()
}

// ProvideStatsEngine creates the stats use case.
func ProvideStatsEngine(
	cfg *config.Config,
	source repository.MarketDataSource,
	sample repository.SampleReader,
	rc *cache.ResultCache,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.StatsEngine {
	return usecase.NewStatsEngine(source, sample, rc,
		usecase.WithStatsPublisher(pub),
		usecase.WithStatsMetrics(m),
		usecase.WithStatsLogger(l),
		usecase.WithDefaultTimeout(cfg.MarketData.DefaultTimeout),
		usecase.WithCacheDisabled(!cfg.Cache.Enabled),
	)
}

// ProvideMarketQuery creates the batch/compare use case.
func ProvideMarketQuery(engine *usecase.StatsEngine, l *applogger.Logger) *usecase.MarketQueryUseCase {
	return usecase.NewMarketQueryUseCase(engine, l)
}

// ProvideModel loads the estimator artifact. A missing file disables
// prediction; a malformed one is an error.
func ProvideModel(cfg *config.Config, l *applogger.Logger) (*usecase.Model, error) {
	art, err := ml.LoadArtifact(cfg.Model.Path)
	if errors.Is(err, ml.ErrArtifactNotFound) {
		l.Warn("model artifact not found, prediction disabled", applogger.String("path", cfg.Model.Path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	l.Info("model artifact loaded",
		applogger.String("path", cfg.Model.Path),
		applogger.String("kind", art.Kind),
		applogger.Strings("features", art.Features),
		applogger.Float64("r2", art.Metrics.R2),
	)
	return &usecase.Model{Estimator: art.Estimator, Features: art.Features}, nil
}

// ProvidePredictionService creates the prediction use case.
func ProvidePredictionService(
	cfg *config.Config,
	source repository.MarketDataSource,
	model *usecase.Model,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PredictionService {
	return usecase.NewPredictionService(source, model,
		usecase.WithPredictionTimeout(cfg.MarketData.DefaultTimeout),
		usecase.WithPredictionPublisher(pub),
		usecase.WithPredictionMetrics(m),
		usecase.WithPredictionLogger(l),
	)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	engine *usecase.StatsEngine,
	queries *usecase.MarketQueryUseCase,
	predictor *usecase.PredictionService,
	source repository.MarketDataSource,
) xhttp.Handler {
	var opts []api.HandlerOption
	if hc, ok := source.(repository.HealthChecker); ok {
		opts = append(opts, api.WithStoreHealth(hc))
	}
	return api.NewStatsEchoHandler(l, engine, queries, predictor, opts...)
}

// ProvideHTTPServer creates the Echo server with the configured middleware.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		opts = append(opts, xhttp.WithCORS(cfg.Server.AllowedOrigins))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimit(middleware.NewLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, l *applogger.Logger) *server.App {
	return server.New(cfg, srv, l)
}

// ProvideServices bundles the command-line object graph.
func ProvideServices(
	l *applogger.Logger,
	source repository.MarketDataSource,
	engine *usecase.StatsEngine,
	predictor *usecase.PredictionService,
) *Services {
	return &Services{Logger: l, Source: source, Engine: engine, Predictor: predictor}
}
