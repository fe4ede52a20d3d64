package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/api"
	"github.com/onepostnft/marketd/internal/cache"
	"github.com/onepostnft/marketd/internal/chain"
	"github.com/onepostnft/marketd/internal/content"
	"github.com/onepostnft/marketd/internal/contracts/basetoken"
	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/internal/db"
	"github.com/onepostnft/marketd/internal/ledger"
	"github.com/onepostnft/marketd/internal/market"
	"github.com/onepostnft/marketd/internal/notify"
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
	logger.Info("Starting OnePost marketplace API server")

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	client, err := chain.Dial(ctx, &cfg.Chain)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to chain RPC", zap.Error(err))
	}
	defer client.Close()

	deployment, err := chain.DeploymentFor(&cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to resolve contract deployment", zap.Error(err))
	}
	logger.Info("Using deployment",
		zap.String("network", cfg.Chain.Network),
		zap.String("contract", deployment.OnePostNFT.Hex()))

	contract, err := onepost.New(deployment.OnePostNFT, client.Backend())
	if err != nil {
		logger.Fatal("Failed to bind marketplace contract", zap.Error(err))
	}
	token, err := basetoken.New(deployment.BaseToken, client.Backend())
	if err != nil {
		logger.Fatal("Failed to bind payment token", zap.Error(err))
	}

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisCache != nil {
		defer redisCache.Close()
	}

	soldLog, err := ledger.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to open sold ledger", zap.Error(err))
	}
	if soldLog != nil {
		defer soldLog.Close()
	}

	var database *db.DB
	if cfg.Database.URL != "" {
		database, err = db.New(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close()
	}

	notifier := notify.New(&cfg.Notify)
	gateway := chain.NewGateway(client, contract, token, soldLog, notifier)

	resolver := content.NewChain(&cfg.Content, redisCache)
	query := market.NewQuery(gateway, market.NewMapper(resolver))

	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	router := api.NewRouter(gateway, query, database, redisCache, soldLog)
	router.SetupRoutes(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
