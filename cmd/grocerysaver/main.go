package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/grocerysaver/grocerysaver/internal/app"
	"github.com/grocerysaver/grocerysaver/internal/catalog/categories"
	"github.com/grocerysaver/grocerysaver/internal/catalog/products"
	"github.com/grocerysaver/grocerysaver/internal/catalog/stores"
	"github.com/grocerysaver/grocerysaver/internal/codes"
	"github.com/grocerysaver/grocerysaver/internal/observability"
	"github.com/grocerysaver/grocerysaver/internal/platform/cache"
	"github.com/grocerysaver/grocerysaver/internal/platform/db"
	"github.com/grocerysaver/grocerysaver/internal/pricing"
	"github.com/grocerysaver/grocerysaver/internal/scan"
	"github.com/grocerysaver/grocerysaver/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	pricingRepo := pricing.NewPostgresRepository(dbpool)
	pricingService := pricing.NewService(pricingRepo)
	pricingCache := pricing.NewCache(redisClient, cfg.PricingCacheTTL)
	pricingHandler := pricing.NewHandler(logger, pricingService, pricingCache)

	codesRepo := codes.NewPostgresRepository(dbpool)
	codesService := codes.NewService(logger, codesRepo)
	codesHandler := codes.NewHandler(logger, codesService)

	scanRepo := scan.NewRepository(dbpool)
	scanService := scan.NewService(logger, scanRepo, pricingService, pricingCache)
	scanHandler := scan.NewHandler(logger, scanService, metrics)

	storesHandler := stores.NewHandler(logger, stores.NewService(stores.NewRepository(dbpool)))
	categoriesHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(dbpool)))
	productsHandler := products.NewHandler(logger, products.NewService(products.NewRepository(dbpool)))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              dbpool,
		ScanHandler:       scanHandler,
		PricingHandler:    pricingHandler,
		CodesHandler:      codesHandler,
		StoresHandler:     storesHandler,
		CategoriesHandler: categoriesHandler,
		ProductsHandler:   productsHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
