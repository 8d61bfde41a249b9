package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RSIPulse/internal/domain/models"
	"RSIPulse/internal/usecase"
	pkgch "RSIPulse/pkg/clickhouse"
	"RSIPulse/pkg/config"
	xhttp "RSIPulse/pkg/http"
	pkgkafka "RSIPulse/pkg/kafka"
	applogger "RSIPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.ObservationCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	watchlist   *usecase.Watchlist
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	logger      *applogger.Logger
	Proc        *usecase.ObservationProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	watchlist *usecase.Watchlist,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		watchlist: watchlist,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetLogger injects the shared application logger.
func (a *App) SetLogger(l *applogger.Logger) { a.logger = l }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	// Warm restart: restore tracked pairs from snapshots, then make sure every
	// configured watchlist entry is present.
	if a.watchlist != nil {
		if _, err := a.watchlist.Restore(ctx); err != nil {
			l.Warn("snapshot restore failed, starting cold", applogger.Error(err))
		}
		a.seedWatchlist(ctx, l)
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started")

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Periodic snapshot sweep
	if a.watchlist != nil {
		interval := a.cfg.Engine.SnapshotInterval
		if interval <= 0 {
			interval = time.Minute
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := a.watchlist.SnapshotAll(ctx); err != nil {
						l.Warn("snapshot sweep error", applogger.Error(err))
					}
				}
			}
		}()
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// seedWatchlist registers configured pairs that did not come back from
// snapshots.
func (a *App) seedWatchlist(ctx context.Context, l *applogger.Logger) {
	tracked := make(map[string]bool)
	for _, p := range a.watchlist.Pairs() {
		tracked[p.String()] = true
	}
	for _, entry := range a.cfg.Watchlist {
		tfs := entry.Timeframes
		if len(tfs) == 0 {
			tfs = []string{string(models.DefaultTimeframe())}
		}
		for _, tf := range tfs {
			key := entry.Symbol + "/" + string(models.NormalizeTimeframe(tf))
			if tracked[key] {
				continue
			}
			if err := a.watchlist.Add(ctx, entry.Symbol, tf, entry.Period, nil); err != nil {
				l.Warn("watchlist seed error",
					applogger.String("symbol", entry.Symbol),
					applogger.String("timeframe", tf),
					applogger.Error(err))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Final snapshot sweep so a restart resumes warm
	if a.watchlist != nil {
		if err := a.watchlist.SnapshotAll(ctx); err != nil {
			l.Warn("final snapshot sweep error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flush aggregated error logs while the producer is still open
	if a.logger != nil {
		a.logger.RemoveCollector()
	}

	// Close processor resources (sink/storage)
	if a.Proc != nil {
		a.Proc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
