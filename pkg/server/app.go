package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradePulse/internal/domain/repository"
	"TradePulse/internal/handler/api"
	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	collector *usecase.PriceCollector
	scheduler *usecase.ScanScheduler
	lifecycle *usecase.Lifecycle
	patterns  *usecase.PatternLibrary
	weights   *usecase.ReliabilityBook
	book      *usecase.PriceBook
	audit     repository.AuditStore
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	chClient  *pkgch.Client

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.PriceCollector,
	scheduler *usecase.ScanScheduler,
	lifecycle *usecase.Lifecycle,
	patterns *usecase.PatternLibrary,
	weights *usecase.ReliabilityBook,
	book *usecase.PriceBook,
	audit repository.AuditStore,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		scheduler: scheduler,
		lifecycle: lifecycle,
		patterns:  patterns,
		weights:   weights,
		book:      book,
		audit:     audit,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log

	httpHandler := a.httpHandler
	if httpHandler == nil {
		httpHandler = api.NewEngineHandler(l, a.scheduler, a.lifecycle, a.patterns, a.weights, a.book, a.audit, a.cfg.Engine.Symbol)
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(l, time.Second),
	)

	// Start stream collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.String("symbol", a.cfg.Engine.Symbol))

	// Start scan loops
	a.scheduler.Start(ctx)
	l.Info("scheduler started",
		applogger.Duration("slow_interval", a.cfg.Engine.SlowInterval),
		applogger.Duration("fast_interval", a.cfg.Engine.FastInterval))

	// When outcomes flow over the bus a consumer owns the ClickHouse landing
	if a.cfg.Backend.Type == "kafka" && a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
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

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.log

	// Stop scan loops first so no new positions open during teardown
	a.scheduler.Stop()

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			l.Warn("audit store close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
