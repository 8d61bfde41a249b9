package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"RSIPulse/internal/domain/models"
	"RSIPulse/internal/domain/repository"
	"RSIPulse/internal/engine/tracker"
	"RSIPulse/internal/handler/api"
	mid "RSIPulse/internal/middleware"
	internalrepo "RSIPulse/internal/repository"
	"RSIPulse/internal/service/marketdata"
	svcmetrics "RSIPulse/internal/service/metrics"
	"RSIPulse/internal/service/notify"
	"RSIPulse/internal/usecase"
	pkgch "RSIPulse/pkg/clickhouse"
	"RSIPulse/pkg/config"
	pkgkafka "RSIPulse/pkg/kafka"
	applogger "RSIPulse/pkg/logger"
	"RSIPulse/pkg/metrics"
	"RSIPulse/pkg/server"
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
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
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

	if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS rsipulse"}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
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

// ProvideRedisClient creates a Redis client for the snapshot store.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSignalStorage creates ClickHouse-backed signal storage.
func ProvideSignalStorage(chClient *pkgch.Client, l *applogger.Logger) (repository.SignalStorage, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewCHSignalStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal storage init: %w", err)
	}
	return store, nil
}

// ProvideEventSink creates the Kafka event sink.
func ProvideEventSink(producer *pkgkafka.Producer, cfg *config.Config) repository.EventSink {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventSink(producer, cfg.Kafka.AlertsTopic, cfg.Kafka.DivergencesTopic)
}

// ProvideSnapshotStore creates the Redis snapshot store.
func ProvideSnapshotStore(client *redis.Client, l *applogger.Logger) repository.SnapshotStore {
	if client == nil {
		return nil
	}
	return internalrepo.NewRedisSnapshotStore(client, l)
}

// ProvideNotifier creates the webhook notifier.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) repository.Notifier {
	if cfg.Notify.WebhookURL == "" {
		return nil
	}
	timeout := cfg.Notify.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return notify.NewWebhookNotifier(cfg.Notify.WebhookURL, timeout, l)
}

// ProvideMarketStream creates the WebSocket market data stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	var pairs []models.Pair
	for _, entry := range cfg.Watchlist {
		tfs := entry.Timeframes
		if len(tfs) == 0 {
			tfs = []string{string(models.DefaultTimeframe())}
		}
		for _, tf := range tfs {
			pairs = append(pairs, models.Pair{Symbol: entry.Symbol, Timeframe: models.NormalizeTimeframe(tf)})
		}
	}
	return marketdata.New(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		pairs,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
	)
}

// ProvideTracker creates the pair tracker configured from the engine section.
func ProvideTracker(cfg *config.Config) *tracker.Tracker {
	opts := []tracker.Option{
		tracker.WithLookback(cfg.Engine.Lookback),
		tracker.WithPeriod(cfg.Engine.Period),
		tracker.WithSwingWindow(cfg.Engine.SwingWindow),
		tracker.WithMaxLag(cfg.Engine.MaxLag),
	}
	if rule := ruleFromConfig(cfg); rule != nil {
		opts = append(opts, tracker.WithDefaultRule(*rule))
	}
	return tracker.NewTracker(opts...)
}

func ruleFromConfig(cfg *config.Config) *models.AlertRule {
	rule, err := usecase.DefaultRule()
	if err != nil {
		return nil
	}
	if cfg.Engine.Overbought > 0 {
		rule.Overbought = cfg.Engine.Overbought
	}
	if cfg.Engine.Oversold > 0 {
		rule.Oversold = cfg.Engine.Oversold
	}
	if cfg.Engine.Hysteresis > 0 {
		rule.Hysteresis = cfg.Engine.Hysteresis
	}
	if cfg.Engine.Debounce > 0 {
		rule.Debounce = cfg.Engine.Debounce
	}
	return &rule
}

// ProvideWatchlist creates the watchlist use case.
func ProvideWatchlist(trk *tracker.Tracker, snapshots repository.SnapshotStore, l *applogger.Logger) *usecase.Watchlist {
	return usecase.NewWatchlist(trk, snapshots, l)
}

// ProvideObservationProcessor creates the observation processor use case.
func ProvideObservationProcessor(
	trk *tracker.Tracker,
	storage repository.SignalStorage,
	sink repository.EventSink,
	notifier repository.Notifier,
	snapshots repository.SnapshotStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(trk, storage, sink, notifier, snapshots, m, l)
}

// ProvideObservationCollector creates the observation collector use case.
func ProvideObservationCollector(
	stream repository.MarketStream,
	processor *usecase.ObservationProcessor,
	m repository.Metrics,
) *usecase.ObservationCollector {
	// Middleware pipeline between WebSocket and the engine
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewObservationCollector(stream, processor, m, pipe)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
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

// ProvideObservationsHandler registers the handler for the observations topic.
func ProvideObservationsHandler(proc *usecase.ObservationProcessor, m repository.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.ObservationsTopic, proc, m)
}

// ProvidePointsUseCase creates the RSI series query use case.
func ProvidePointsUseCase(trk *tracker.Tracker, storage repository.SignalStorage) *usecase.PointsUseCase {
	return usecase.NewPointsUseCase(trk, storage)
}

// ProvideSymbolOverviewUseCase creates the symbol overview use case.
func ProvideSymbolOverviewUseCase(trk *tracker.Tracker) *usecase.SymbolOverviewUseCase {
	return usecase.NewSymbolOverviewUseCase(trk)
}

// ProvideTrackerHandler creates the dashboard HTTP handler.
func ProvideTrackerHandler(
	l *applogger.Logger,
	trk *tracker.Tracker,
	watchlist *usecase.Watchlist,
	points *usecase.PointsUseCase,
	overview *usecase.SymbolOverviewUseCase,
) *api.TrackerEchoHandler {
	return api.NewTrackerEchoHandler(l, trk, watchlist, points, overview)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	producer *pkgkafka.Producer,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	chClient *pkgch.Client,
	watchlist *usecase.Watchlist,
	handler *api.TrackerEchoHandler,
	m repository.Metrics,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(svcmetrics.NewConsumeHook(m))
	}
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	app := server.New(cfg, collector, consumer, kh, chClient, watchlist)
	app.SetHTTPHandler(handler)
	app.SetLogger(l)
	if collector != nil {
		app.Proc = collector.Processor()
	}
	return app
}
