package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/soundbridge-av/soundbridge/internal/app"
	"github.com/soundbridge-av/soundbridge/internal/catalog"
	"github.com/soundbridge-av/soundbridge/internal/observability"
	"github.com/soundbridge-av/soundbridge/internal/platform/browser"
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
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	// Each crawl opens its own tab from this session, so the browser
	// timeout bounds a single sync rather than worker uptime.
	session := browser.NewSession(browser.SessionConfig{
		RemoteURL: cfg.BrowserRemoteURL,
		Headless:  true,
		Timeout:   cfg.BrowserTimeout,
	})
	defer session.Close()

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
	}, session, supplierRepo, productRepo, logger))

	guard := shared.NewRunGuard(redisClient, 30*time.Minute)
	syncService := suppliers.NewService(registry, supplierRepo, productRepo, guard, metrics, logger)

	storefront := push.NewStorefrontClient(cfg.StorefrontAPIURL, cfg.StorefrontClientID, cfg.StorefrontClientSecret)
	semantic := push.NewSemanticMatcher(cfg.CompletionAPIURL, cfg.CompletionAPIKey, cfg.CompletionModel, logger)
	pushService := push.NewService(
		productRepo,
		push.NewLedger(pool),
		storefront,
		push.NewMatcher(push.MatcherConfig{}),
		semantic,
		cfg.PushCreateDelay,
		metrics,
		logger,
	)

	cron, err := nightlyCron(registry.Names())
	if err != nil {
		logger.Error("build cron tasks", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Tasks:     jobs.NewTasks(syncService, pushService, logger),
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// nightlyCron staggers one sync per supplier, then a push run after the last
// sync has had time to finish.
func nightlyCron(supplierNames []string) ([]jobs.CronRegistration, error) {
	var cron []jobs.CronRegistration
	for i, name := range supplierNames {
		task, err := jobs.NewCatalogSyncTask(jobs.CatalogSyncPayload{Supplier: name, TriggeredBy: "cron"})
		if err != nil {
			return nil, err
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cronSpec(1, i*30),
			Task:    task,
			Options: []asynq.Option{asynq.MaxRetry(2)},
		})
	}
	pushTask, err := jobs.NewPushRunTask(jobs.PushRunPayload{})
	if err != nil {
		return nil, err
	}
	cron = append(cron, jobs.CronRegistration{
		Spec:    cronSpec(4, 0),
		Task:    pushTask,
		Options: []asynq.Option{asynq.MaxRetry(2)},
	})
	return cron, nil
}

func cronSpec(hour, minuteOffset int) string {
	hour += minuteOffset / 60
	return fmt.Sprintf("%d %d * * *", minuteOffset%60, hour)
}
