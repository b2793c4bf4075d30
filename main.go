package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"criadero/api"
	"criadero/internal/config"
	"criadero/internal/database"
	"criadero/internal/logger"
	"criadero/internal/metrics"
	"criadero/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires the service and blocks until SIGINT/SIGTERM. Deferred cleanup
// runs before main exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		return fmt.Errorf("error building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service", cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", zap.Error(err))
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer closeStorage()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	salesService := sales.NewService(storage, log, sales.WithTotalCheck(cfg.Sales.VerifyTotal))
	api.InitRoutes(r, salesService, log, metrics.NewHTTPMetrics(cfg.App.Name))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			log.Error("error trying to start server", zap.Error(err))
			return fmt.Errorf("error trying to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// openStorage builds the configured store and ensures its schema exists.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (sales.Storage, func(), error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn("using in-memory storage, sales will not survive a restart")
		return sales.NewLocalStorage(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(db); err != nil {
			log.Warn("error closing database", zap.Error(err))
		}
	}

	storage := sales.NewGormStorage(db, log)
	if err := storage.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	return storage, closeDB, nil
}
