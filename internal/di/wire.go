//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideAuditStore,
		ProvidePublisher,
		ProvidePriceStream,
		ProvideStateStore,
		ProvideRetryQueue,

		// Collaborator services
		ProvideScoreProviders,
		ProvideRiskPolicy,
		ProvideAdvisor,

		// Engine state and use cases
		ProvidePatternLibrary,
		ProvideReliabilityBook,
		ProvideAggregator,
		ProvidePriceBook,
		ProvideOutcomeRecorder,
		ProvideLifecycle,
		ProvideScanScheduler,
		ProvidePriceCollector,
		ProvideKafkaOutcomesHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
