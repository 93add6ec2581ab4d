package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-site/meridian/internal/app"
	"github.com/meridian-site/meridian/internal/content"
	"github.com/meridian-site/meridian/internal/platform/cache"
	"github.com/meridian-site/meridian/internal/platform/db"
	"github.com/meridian-site/meridian/internal/welcome"
	"github.com/meridian-site/meridian/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, content cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	welcomeClient := welcome.NewClient(cfg.MailerliteAPIBase, cfg.MailerliteAPIKey)
	welcomeRepo := welcome.NewRepository(pool)
	welcomeService := welcome.NewService(welcomeClient, welcomeRepo, cfg.MailerliteWelcomeGroupID, logger)

	contentClient := content.NewClient(cfg.ContentProjectID, cfg.ContentDataset, cfg.ContentAPIVersion, cfg.ContentAPIBase)
	contentCache := content.NewCache(redisClient, cfg.ContentCacheTTL)
	contentService := content.NewService(contentClient, contentCache)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeWelcomeSync, Handler: jobs.NewWelcomeSyncHandler(welcomeService, logger)},
			{Type: jobs.TaskTypeContentWarmup, Handler: jobs.NewContentWarmupHandler(contentService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: jobs.NewContentWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
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
