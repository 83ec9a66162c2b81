//go:build wireinject
// +build wireinject

package di

import (
	"ArbPilot/pkg/config"
	"ArbPilot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Repositories
		ProvideStreamSource,
		ProvideCursorStore,
		ProvideIntentPublisher,
		ProvideDecisionJournal,

		// Resilience and domain services
		ProvideBreaker,
		ProvideGuard,
		ProvideEndpointPool,
		ProvideFeeCapEstimator,
		ProvideValidator,
		ProvideStrategyRouter,

		// Use cases
		ProvideSignalHandler,
		ProvideSupervisor,

		// HTTP and application server
		ProvideOpsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
