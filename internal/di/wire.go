//go:build wireinject
// +build wireinject

package di

import (
	"StockStats/pkg/config"
	"StockStats/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Observability
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,

	// Repositories
	ProvideMarketDataSource,
	ProvideSampleReader,
	ProvideEventPublisher,
	ProvideResultCache,

	// Use cases
	ProvideStatsEngine,
	ProvideModel,
	ProvidePredictionService,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,
		ProvideMarketQuery,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeServices wires the graph used by the command line.
func InitializeServices(cfg *config.Config) (*Services, func(), error) {
	wire.Build(
		coreSet,
		ProvideServices,
	)
	return nil, nil, nil
}
