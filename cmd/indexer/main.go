package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/chain"
	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/internal/db"
	"github.com/onepostnft/marketd/internal/indexer"
	"github.com/onepostnft/marketd/pkg/config"
	"github.com/onepostnft/marketd/pkg/logging"
	"github.com/onepostnft/marketd/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting OnePost event indexer")

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 15*time.Second)
	client, err := chain.Dial(dialCtx, &cfg.Chain)
	dialCancel()
	if err != nil {
		logger.Fatal("Failed to connect to chain RPC", zap.Error(err))
	}
	defer client.Close()

	deployment, err := chain.DeploymentFor(&cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to resolve contract deployment", zap.Error(err))
	}

	contract, err := onepost.New(deployment.OnePostNFT, client.Backend())
	if err != nil {
		logger.Fatal("Failed to bind marketplace contract", zap.Error(err))
	}

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to migrate event tables", zap.Error(err))
	}

	repo := db.NewRepository(database.DB)
	sync := indexer.NewSync(
		&cfg.Indexer,
		client.Backend(),
		contract,
		db.NewEventRepository(repo),
		db.NewSyncRepository(repo),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down indexer...")
		cancel()
	}()

	if err := sync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Indexer failed", zap.Error(err))
	}

	logger.Info("Indexer exited")
}
