//go:build wireinject
// +build wireinject

package di

import (
	"RSIPulse/pkg/config"
	"RSIPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisClient,

		// Repositories
		ProvideSignalStorage,
		ProvideEventSink,
		ProvideSnapshotStore,
		ProvideNotifier,
		ProvideMarketStream,

		// Engine
		ProvideTracker,

		// Use cases
		ProvideWatchlist,
		ProvideObservationProcessor,
		ProvideObservationCollector,
		ProvideKafkaConsumer,
		ProvideObservationsHandler,
		ProvidePointsUseCase,
		ProvideSymbolOverviewUseCase,

		// HTTP
		ProvideTrackerHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
