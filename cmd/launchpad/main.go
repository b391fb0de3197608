// ====================================
// File: cmd/launchpad/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/app"
	"github.com/rovshanmuradov/launchpad/internal/config"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to load configuration", zap.Error(err))
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	if cfg.LogFile != "" {
		logCfg.LogFile = cfg.LogFile
	}
	log, err := logger.New(logCfg)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to build logger", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting launchpad",
		zap.String("settlement_asset", cfg.SettlementAsset),
		zap.String("listen_addr", cfg.ListenAddr))

	runner, err := app.NewRunner(cfg, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Runtime error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
