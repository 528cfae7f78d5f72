package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orbas1/fixnado-backend/api/routes"
	"github.com/orbas1/fixnado-backend/internal/checkpoints"
	"github.com/orbas1/fixnado-backend/internal/inventory"
	"github.com/orbas1/fixnado-backend/internal/rentals"
	"github.com/orbas1/fixnado-backend/pkg/config"
	"github.com/orbas1/fixnado-backend/pkg/db"
	"github.com/orbas1/fixnado-backend/pkg/logger"
	"github.com/orbas1/fixnado-backend/pkg/metrics"
	"github.com/orbas1/fixnado-backend/pkg/migrate"
	"github.com/orbas1/fixnado-backend/pkg/outbox"
	"github.com/orbas1/fixnado-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	rentalMetrics := metrics.NewRentalMetrics(prometheus.DefaultRegisterer)
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		TxRunner: dbClient,
		Repo:     inventory.NewRepository(dbClient.DB()),
		Outbox:   outboxSvc,
		Metrics:  rentalMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	checkpointSvc, err := checkpoints.NewService(checkpoints.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create checkpoint service", err)
		os.Exit(1)
	}

	rentalSvc, err := rentals.NewService(rentals.ServiceParams{
		TxRunner:    dbClient,
		Repo:        rentals.NewRepository(dbClient.DB()),
		Inventory:   inventorySvc,
		Checkpoints: checkpointSvc,
		Outbox:      outboxSvc,
		Metrics:     rentalMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rental service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Rentals:   rentalSvc,
			Inventory: inventorySvc,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
