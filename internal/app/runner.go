// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/launchpad/internal/amm"
	"github.com/rovshanmuradov/launchpad/internal/config"
	"github.com/rovshanmuradov/launchpad/internal/engine"
	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
	"github.com/rovshanmuradov/launchpad/internal/metrics"
	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/postgres"
	"github.com/rovshanmuradov/launchpad/internal/storage/sqlite"
)

// Runner wires the exchange together: ledger, DEX, engine, event bus, the
// optional storage recorder and the HTTP metrics endpoint.
type Runner struct {
	logger  *zap.Logger
	cfg     *config.Config
	engine  *engine.Engine
	bus     *events.Bus
	store   storage.Storage
	metrics *metrics.Collector

	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	collector := metrics.NewCollector()
	bus := events.NewBus(logger, cfg.EventBuffer)

	if cfg.WebhookURL != "" {
		sink := events.NewWebhookSink(cfg.WebhookURL, logger)
		bus.SubscribeAll(sink)
	}

	var store storage.Storage
	var err error
	switch cfg.StorageDriver {
	case "postgres":
		store, err = postgres.NewStorage(cfg.PostgresURL, logger)
	case "sqlite":
		store, err = sqlite.NewStorage(cfg.SQLitePath, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if store != nil {
		if err := store.RunMigrations(); err != nil {
			return nil, fmt.Errorf("run storage migrations: %w", err)
		}
		storage.NewRecorder(store, logger).Attach(bus)
	}

	led := ledger.NewMemory(logger)
	dex := amm.NewMemory(led, engine.EscrowAccount, logger)

	engineCfg := engine.DefaultGlobalConfig(cfg.Authority, cfg.FeeRecipient, cfg.SettlementAsset)
	engineCfg.PlatformFeeBps = cfg.PlatformFeeBps
	engineCfg.HighFeeBps = cfg.HighFeeBps
	engineCfg.InitialVirtualTokenReserve = cfg.InitialVirtualTokenReserve
	engineCfg.InitialVirtualSettlementReserve = cfg.InitialVirtualSettlementReserve
	engineCfg.MigrationThreshold = cfg.MigrationThreshold
	engineCfg.MinTradeSize = cfg.MinTradeSize
	engineCfg.MigrationGasReserve = cfg.MigrationGasReserve
	engineCfg.LastBuyerWait = cfg.LastBuyerWait()
	engineCfg.MigrationDeadlineOffset = cfg.MigrationDeadlineOffset()

	eng, err := engine.New(engineCfg, led, dex, logger,
		engine.WithPublisher(bus),
		engine.WithMetrics(collector),
	)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	return &Runner{
		logger:     logger,
		cfg:        cfg,
		engine:     eng,
		bus:        bus,
		store:      store,
		metrics:    collector,
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// Engine exposes the wired engine for embedding callers.
func (r *Runner) Engine() *engine.Engine { return r.engine }

// Run blocks until the context is cancelled or a termination signal
// arrives, then drains the bus and closes storage.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              r.cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		r.logger.Info("HTTP server listening", zap.String("addr", r.cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("Signal received", zap.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if busErr := r.bus.Shutdown(drainCtx); busErr != nil {
		r.logger.Warn("Event bus drain incomplete", zap.Error(busErr))
	}
	if r.store != nil {
		if closeErr := r.store.Close(); closeErr != nil {
			r.logger.Warn("Storage close failed", zap.Error(closeErr))
		}
	}
	return err
}
