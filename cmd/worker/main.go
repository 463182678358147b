package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/gymops-erp/gymops/internal/app"
	"github.com/gymops-erp/gymops/internal/boardsync"
	"github.com/gymops-erp/gymops/internal/boardsync/monday"
	jobmetrics "github.com/gymops-erp/gymops/internal/jobs"
	"github.com/gymops-erp/gymops/internal/platform/db"
	"github.com/gymops-erp/gymops/internal/webhooks"
	"github.com/gymops-erp/gymops/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, 0)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	syncRepo := boardsync.NewRepository(pool)
	mondayClient := monday.New(cfg.MondayToken, cfg.MondayEndpoint)
	syncService := boardsync.NewService(syncRepo, mondayClient, cfg.BoardIDs(), logger)
	syncJob := jobs.NewBoardSyncJob(syncService, logger, metrics)

	eventLog := webhooks.NewEventLog(pool)
	cleanupJob := jobs.NewWebhookCleanupJob(eventLog, logger, metrics)

	syncTask, err := jobs.NewBoardFullSyncTask(jobs.BoardFullSyncPayload{Trigger: "cron"})
	if err != nil {
		logger.Error("build sync task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewWebhookCleanupTask(jobs.WebhookCleanupPayload{RetentionDays: cfg.WebhookRetentionDays})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBoardFullSync, Handler: syncJob.Handle},
			{Type: jobs.TaskWebhookCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SyncCron, Task: syncTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 4 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
