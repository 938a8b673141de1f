// cmd/esboot/main.go
package main

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/searchkit/esboot/internal/account"
	"github.com/searchkit/esboot/internal/bootstrap"
	"github.com/searchkit/esboot/internal/config"
	"github.com/searchkit/esboot/internal/ownership"
)

func main() {
	// Create logger
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	// Create config: baked-in contract, optional file, env overrides
	cfg, err := config.Load(config.GetEnvOrDefault("ESBOOT_CONFIG", "/etc/esboot/config.yaml"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	config.LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		if l, err := zapCfg.Build(); err == nil {
			logger = l
		}
	}

	// Boot id separates container restarts in aggregated logs
	logger = logger.With(zap.String("boot_id", uuid.NewString()))

	// Read the effective uid exactly once; everything branches off it
	euid := os.Geteuid()

	b := bootstrap.New(cfg, account.NewResolver(), ownership.NewRepairer(logger), logger)
	if err := b.Run(euid); err != nil {
		// Run only returns on failure; a successful handoff replaced us
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
}
