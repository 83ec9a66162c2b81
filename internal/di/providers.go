package di

import (
	"context"
	"fmt"
	"time"

	drepo "ArbPilot/internal/domain/repository"
	"ArbPilot/internal/handler/api"
	internalrepo "ArbPilot/internal/repository"
	"ArbPilot/internal/service/feecap"
	"ArbPilot/internal/service/strategy"
	"ArbPilot/internal/service/validator"
	"ArbPilot/internal/usecase"
	pkgch "ArbPilot/pkg/clickhouse"
	"ArbPilot/pkg/config"
	"ArbPilot/pkg/guard"
	xhttp "ArbPilot/pkg/http"
	pkgkafka "ArbPilot/pkg/kafka"
	applogger "ArbPilot/pkg/logger"
	"ArbPilot/pkg/metrics"
	"ArbPilot/pkg/rpc"
	"ArbPilot/pkg/rpcpool"
	"ArbPilot/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates the Redis client used for stream polling.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideStreamSource creates the Redis Streams entry source.
func ProvideStreamSource(rdb *redis.Client) drepo.StreamSource {
	return internalrepo.NewRedisStreamSource(rdb)
}

// ProvideCursorStore creates the in-memory cursor store, one cursor per
// configured stream, all starting at the live tail.
func ProvideCursorStore(cfg *config.Config) drepo.CursorStore {
	return internalrepo.NewMemoryCursorStore(cfg.Streams)
}

// ProvideBreaker creates the shared circuit breaker.
func ProvideBreaker(cfg *config.Config, m drepo.Metrics, l *applogger.Logger) *guard.Breaker {
	return guard.NewBreaker(cfg.Breaker.FailMax, cfg.Breaker.ResetAfter,
		guard.WithOnOpen(func(failures int, until time.Time) {
			m.RecordBreakerOpen()
			l.Warn("circuit breaker opened",
				applogger.Int("failures", failures),
				applogger.String("open_until", until.Format(time.RFC3339)))
		}),
	)
}

// ProvideGuard creates the retry guard in front of upstream calls.
func ProvideGuard(cfg *config.Config, b *guard.Breaker, m drepo.Metrics, l *applogger.Logger) *guard.Guard {
	return guard.New(cfg.Guard.Timeout, cfg.Guard.MaxRetries, cfg.Guard.BaseBackoff,
		guard.WithBreaker(b),
		guard.WithLogger(l),
		guard.WithName("feecap"),
		guard.WithOnRetry(func(int) { m.RecordError("upstream_retry") }),
	)
}

// ProvideEndpointPool builds one JSON-RPC client per configured endpoint and
// wraps them in a liveness-probing pool.
func ProvideEndpointPool(cfg *config.Config, l *applogger.Logger) (*rpcpool.Pool[*rpc.Client], error) {
	clients := make([]*rpc.Client, 0, len(cfg.RPC.Endpoints))
	for _, url := range cfg.RPC.Endpoints {
		clients = append(clients, rpc.NewClient(url,
			rpc.WithTimeout(cfg.RPC.RequestTimeout),
			rpc.WithProbeRate(cfg.RPC.ProbeRate, cfg.RPC.ProbeBurst),
		))
	}

	pool, err := rpcpool.New(clients,
		rpcpool.WithProbeTimeout[*rpc.Client](cfg.RPC.ProbeTimeout),
		rpcpool.WithRetryDelay[*rpc.Client](cfg.RPC.RetryDelay),
		rpcpool.WithProbeJitter[*rpc.Client](cfg.RPC.ProbeJitter),
		rpcpool.WithPoolLogger[*rpc.Client](l),
	)
	if err != nil {
		return nil, fmt.Errorf("endpoint pool: %w", err)
	}
	return pool, nil
}

// ProvideFeeCapEstimator creates the base-fee cap estimator over the pool.
func ProvideFeeCapEstimator(pool *rpcpool.Pool[*rpc.Client], cfg *config.Config) usecase.FeeCapEstimator {
	return feecap.New(pool,
		feecap.WithMultiplier[*rpc.Client](cfg.FeeCap.Multiplier),
		feecap.WithBlocks[*rpc.Client](cfg.FeeCap.Blocks),
	)
}

// ProvideValidator creates the trade validator.
func ProvideValidator(cfg *config.Config) *validator.Validator {
	return validator.New(validator.Thresholds{
		MinSpreadBps:   cfg.Validator.MinSpreadBps,
		MinRoiAfterGas: cfg.Validator.MinRoiAfterGas,
		MaxLegSlippage: cfg.Validator.MaxLegSlippage,
	})
}

// ProvideStrategyRouter creates the strategy router.
func ProvideStrategyRouter(cfg *config.Config) *strategy.Router {
	return strategy.New(strategy.Thresholds{
		HighMev:             cfg.Router.HighMev,
		FlashLoanProfit:     cfg.Router.FlashLoanProfit,
		HighTimeSensitivity: cfg.Router.HighTimeSensitivity,
	})
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideIntentPublisher creates the Kafka execution-intent publisher.
func ProvideIntentPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.IntentPublisher {
	return internalrepo.NewKafkaIntentPublisher(producer, cfg.Kafka.IntentTopic)
}

// ProvideClickHouseClient creates the journal's ClickHouse client, or nil
// when the journal is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.JournalSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideDecisionJournal creates the ClickHouse decision journal, or nil when
// disabled.
func ProvideDecisionJournal(chClient *pkgch.Client, cfg *config.Config) drepo.DecisionJournal {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseJournal(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
}

// ProvideSignalHandler creates the per-entry processing pipeline.
func ProvideSignalHandler(
	estimator usecase.FeeCapEstimator,
	g *guard.Guard,
	v *validator.Validator,
	router *strategy.Router,
	intents drepo.IntentPublisher,
	journal drepo.DecisionJournal,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.SignalHandler {
	return usecase.NewSignalHandler(estimator, g, v, router, intents, journal, m, l)
}

// ProvideSupervisor creates the stream polling supervisor.
func ProvideSupervisor(
	cfg *config.Config,
	source drepo.StreamSource,
	cursors drepo.CursorStore,
	handler *usecase.SignalHandler,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.Supervisor {
	return usecase.NewSupervisor(cfg.Streams, source, cursors, handler, m, l, cfg.Poll.Count, cfg.Poll.Block)
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

type journalPinger struct{ c *pkgch.Client }

func (p journalPinger) Ping(ctx context.Context) error { return p.c.Health(ctx) }

// ProvideOpsHandler creates the ops HTTP handler.
func ProvideOpsHandler(
	l *applogger.Logger,
	router *strategy.Router,
	breaker *guard.Breaker,
	rdb *redis.Client,
	chClient *pkgch.Client,
) xhttp.Handler {
	var journal api.Pinger
	if chClient != nil {
		journal = journalPinger{c: chClient}
	}
	return api.NewOpsHandler(l, router, breaker, redisPinger{c: rdb}, journal)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	supervisor *usecase.Supervisor,
	handler xhttp.Handler,
	intents drepo.IntentPublisher,
	rdb *redis.Client,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, supervisor, handler, intents, rdb, chClient)
}
