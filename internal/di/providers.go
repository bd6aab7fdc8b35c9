package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePulse/internal/domain/repository"
	dsvc "TradePulse/internal/domain/service"
	mid "TradePulse/internal/middleware"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/service/stream"
	"TradePulse/internal/services/advisor"
	"TradePulse/internal/services/providers"
	"TradePulse/internal/services/risk"
	"TradePulse/internal/usecase"
	pkgcache "TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/queue"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAuditStore creates the ClickHouse outcome archive and ensures its
// table exists.
func ProvideAuditStore(chClient *pkgch.Client, cfg *config.Config) (repository.AuditStore, error) {
	store := internalrepo.NewClickHouseAuditStore(chClient.DB(), cfg.ClickHouse.Database+".trade_outcomes")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("audit store init: %w", err)
	}
	return store, nil
}

// ProvidePublisher creates the Kafka publisher for signals and outcomes.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.SignalTopic, cfg.Kafka.OutcomeTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaOutcomesHandler lands bus outcomes in the audit store.
func ProvideKafkaOutcomesHandler(store repository.AuditStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaOutcomesHandler {
	return usecase.NewKafkaOutcomesHandler(cfg.Kafka.OutcomeTopic, store, m)
}

// ProvidePriceStream creates the exchange WebSocket stream.
func ProvidePriceStream(cfg *config.Config) repository.PriceStream {
	return stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Engine.Symbol,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideStateStore creates the Redis snapshot store, nil when Redis is off.
func ProvideStateStore(cfg *config.Config, lgr *applogger.Logger) repository.StateStore {
	if !cfg.Redis.Enabled {
		return nil
	}
	host, port := splitHostPort(cfg.Redis.Addr)
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		lgr.Warn("redis state store unavailable", applogger.Error(err))
		return nil
	}
	layered := pkgcache.NewLayeredCache(c, pkgcache.WithLayeredMemorySize(64))
	return internalrepo.NewRedisStateStore(layered)
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideRetryQueue creates the audit retry queue, nil when Redis is off.
// The queue registers the replay job and starts its workers.
func ProvideRetryQueue(cfg *config.Config, lgr *applogger.Logger, store repository.AuditStore, pub repository.Publisher) queue.QueueService {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    1,
		QueueSize:  256,
		RetryLimit: 5,
		RetryDelay: 30 * time.Second,
	}, client, queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewOutcomeRetryJob(store, pub, lgr, cfg.Backend.Type))
	if err := q.Start(); err != nil {
		lgr.Error("retry queue start failed", applogger.Error(err))
		return nil
	}
	return q
}

// ProvidePatternLibrary seeds the library and restores persisted statistics.
func ProvidePatternLibrary(cfg *config.Config, state repository.StateStore, lgr *applogger.Logger) *usecase.PatternLibrary {
	lib := usecase.NewPatternLibrary(usecase.LibraryParams{
		DemoteSample:    cfg.Engine.DemoteSample,
		DemoteThreshold: cfg.Engine.DemoteThreshold,
	}, usecase.SeedPatterns())

	if state != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if saved, err := state.LoadPatterns(ctx); err != nil {
			lgr.Warn("pattern restore failed", applogger.Error(err))
		} else if len(saved) > 0 {
			lib.Restore(saved)
			lgr.Info("patterns restored", applogger.Int("count", len(saved)))
		}
	}
	return lib
}

// ProvideReliabilityBook restores persisted provider weights.
func ProvideReliabilityBook(cfg *config.Config, state repository.StateStore, lgr *applogger.Logger) *usecase.ReliabilityBook {
	book := usecase.NewReliabilityBook(usecase.ReliabilityParams{
		Alpha:     cfg.Engine.ReliabilityAlpha,
		Floor:     cfg.Engine.ReliabilityFloor,
		WeightMin: cfg.Engine.WeightMin,
		WeightMax: cfg.Engine.WeightMax,
	})

	if state != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if saved, err := state.LoadReliability(ctx); err != nil {
			lgr.Warn("reliability restore failed", applogger.Error(err))
		} else if len(saved) > 0 {
			book.Restore(saved)
			lgr.Info("reliability restored", applogger.Int("count", len(saved)))
		}
	}
	return book
}

// ProvideAggregator creates the confidence aggregator.
func ProvideAggregator(cfg *config.Config) *usecase.Aggregator {
	return usecase.NewAggregator(usecase.AggregatorParams{
		BuyThreshold: cfg.Engine.BuyThreshold,
		MinSample:    cfg.Engine.MinSample,
		MinWinRate:   cfg.Engine.MinWinRate,
		WeightMin:    cfg.Engine.WeightMin,
		WeightMax:    cfg.Engine.WeightMax,
	})
}

// ProvideRiskPolicy creates the exit band policy.
func ProvideRiskPolicy(cfg *config.Config) dsvc.RiskPolicy {
	return risk.NewPolicy(cfg)
}

// ProvideAdvisor creates the advisory oracle client, nil when disabled.
func ProvideAdvisor(cfg *config.Config) dsvc.Advisor {
	if !cfg.Advisor.Enabled || cfg.Advisor.URL == "" {
		return nil
	}
	return advisor.NewHTTPAdvisor(cfg)
}

// ProvideScoreProviders builds the provider registry.
func ProvideScoreProviders(cfg *config.Config) []dsvc.ScoreProvider {
	return providers.All(cfg)
}

// ProvidePriceBook creates the bounded tick window.
func ProvidePriceBook(cfg *config.Config) *usecase.PriceBook {
	return usecase.NewPriceBook(cfg.Engine.Symbol, cfg.Engine.HistorySize)
}

// ProvideOutcomeRecorder creates the learning feedback step.
func ProvideOutcomeRecorder(
	patterns *usecase.PatternLibrary,
	weights *usecase.ReliabilityBook,
	pub repository.Publisher,
	store repository.AuditStore,
	state repository.StateStore,
	retry queue.QueueService,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.OutcomeRecorder {
	return usecase.NewOutcomeRecorder(patterns, weights, pub, store, state, retry, m, lgr, cfg.Backend.Type)
}

// ProvideLifecycle creates the position state machine.
func ProvideLifecycle(recorder *usecase.OutcomeRecorder, m repository.Metrics, lgr *applogger.Logger, cfg *config.Config) *usecase.Lifecycle {
	return usecase.NewLifecycle(cfg.Engine.Symbol, cfg.Engine.EntryWindow, recorder, m, lgr)
}

// ProvideScanScheduler creates the dual scan loop.
func ProvideScanScheduler(
	cfg *config.Config,
	book *usecase.PriceBook,
	scoreProviders []dsvc.ScoreProvider,
	agg *usecase.Aggregator,
	patterns *usecase.PatternLibrary,
	weights *usecase.ReliabilityBook,
	lifecycle *usecase.Lifecycle,
	riskPolicy dsvc.RiskPolicy,
	adv dsvc.Advisor,
	pub repository.Publisher,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.ScanScheduler {
	return usecase.NewScanScheduler(usecase.SchedulerParams{
		SlowInterval:         cfg.Engine.SlowInterval,
		FastInterval:         cfg.Engine.FastInterval,
		ProviderTimeout:      cfg.Engine.ProviderTimeout,
		HistorySize:          cfg.Engine.HistorySize,
		SignalHistory:        cfg.Engine.SignalHistory,
		AdvisorMinConfidence: cfg.Advisor.MinConfidence,
	}, book, scoreProviders, agg, patterns, weights, lifecycle, riskPolicy, adv, pub, m, lgr)
}

// ProvidePriceCollector creates the stream collector with its pipeline.
func ProvidePriceCollector(
	priceStream repository.PriceStream,
	book *usecase.PriceBook,
	m repository.Metrics,
) *usecase.PriceCollector {
	pipe := mid.NewTickPipeline(book, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewPriceCollector(priceStream, book, m, pipe)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.PriceCollector,
	scheduler *usecase.ScanScheduler,
	lifecycle *usecase.Lifecycle,
	patterns *usecase.PatternLibrary,
	weights *usecase.ReliabilityBook,
	book *usecase.PriceBook,
	audit repository.AuditStore,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaOutcomesHandler,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, lgr, collector, scheduler, lifecycle, patterns, weights, book, audit, consumer, kh, chClient)
}
