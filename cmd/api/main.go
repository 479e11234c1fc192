package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmoralesc/movilpos-backend/api/routes"
	"github.com/rmoralesc/movilpos-backend/internal/cache"
	"github.com/rmoralesc/movilpos-backend/internal/catalog"
	"github.com/rmoralesc/movilpos-backend/internal/credit"
	"github.com/rmoralesc/movilpos-backend/internal/customers"
	"github.com/rmoralesc/movilpos-backend/internal/inventory"
	"github.com/rmoralesc/movilpos-backend/internal/sales"
	"github.com/rmoralesc/movilpos-backend/internal/swaps"
	"github.com/rmoralesc/movilpos-backend/pkg/config"
	"github.com/rmoralesc/movilpos-backend/pkg/db"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/metrics"
	"github.com/rmoralesc/movilpos-backend/pkg/migrate"
	"github.com/rmoralesc/movilpos-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	posMetrics := metrics.NewPOSMetrics(registry)

	store := cache.NewStore(cfg.Cache.TTL, cache.WithMetrics(posMetrics))

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	customerSvc, err := customers.NewService(customers.NewRepository(dbClient.DB()), store)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	creditSvc, err := credit.NewService(credit.NewRepository(dbClient.DB()), redisClient, cfg.Sales, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create credit service", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())

	saleCommitter, err := sales.NewCommitter(
		sales.NewRepository(dbClient.DB()),
		inventoryRepo,
		creditSvc,
		catalogSvc,
		cfg.Sales,
		logg,
		posMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale committer", err)
		os.Exit(1)
	}

	swapCommitter, err := swaps.NewCommitter(
		swaps.NewRepository(dbClient.DB()),
		inventoryRepo,
		catalogSvc,
		creditSvc,
		logg,
		posMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create swap committer", err)
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
			Catalog:   catalogSvc,
			Customers: customerSvc,
			Credit:    creditSvc,
			Inventory: inventoryRepo,
			Sales:     saleCommitter,
			Swaps:     swapCommitter,
			Guard:     redisClient,
			Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
