package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/soundbridge-av/soundbridge/internal/app"
	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/observability"
	"github.com/soundbridge-av/soundbridge/internal/platform/cache"
	"github.com/soundbridge-av/soundbridge/internal/platform/db"
	"github.com/soundbridge-av/soundbridge/internal/push"
	"github.com/soundbridge-av/soundbridge/internal/shared"
	"github.com/soundbridge-av/soundbridge/internal/suppliers"
	"github.com/soundbridge-av/soundbridge/internal/suppliers/avitech"
	"github.com/soundbridge-av/soundbridge/internal/suppliers/hifistudio"
	"github.com/soundbridge-av/soundbridge/internal/suppliers/soundwave"
	"github.com/soundbridge-av/soundbridge/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	supplierRepo := suppliers.NewRepository(pool)
	productRepo := catalog.NewRepository(pool)
	metrics := observability.NewMetrics()

	// Connectors are registered here for TestConnection and status; syncs
	// themselves run on the worker. The crawl connector gets no browser
	// session in this process since its reachability check is plain HTTP.
	registry := suppliers.NewRegistry()
	registry.Register(avitech.New(cfg.AvitechFeedURL, supplierRepo, productRepo, logger))
	registry.Register(soundwave.New(soundwave.Config{
		BaseURL:  cfg.SoundwaveAPIURL,
		APIToken: cfg.SoundwaveAPIToken,
		PageSize: 100,
		Delay:    time.Second,
	}, supplierRepo, productRepo, logger))
	registry.Register(hifistudio.New(hifistudio.Config{
		BaseURL: cfg.HifistudioBaseURL,
	}, nil, supplierRepo, productRepo, logger))

	guard := shared.NewRunGuard(redisClient, 30*time.Minute)
	syncService := suppliers.NewService(registry, supplierRepo, productRepo, guard, metrics, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	enqueuer, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SupplierHandler: suppliers.NewHandler(syncService, enqueuer, logger),
		PushHandler:     push.NewHandler(enqueuer, logger),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
