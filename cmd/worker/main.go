package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/dashboard"
	"github.com/meridian-erp/meridian-erp/internal/dealers"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/settlement"
	"github.com/meridian-erp/meridian-erp/jobs"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)

	settlementRepo := settlement.NewRepository(pool)
	dealerRepo := dealers.NewRepository(pool)
	settlementService := settlement.NewService(settlementRepo, dealerRepo, logger)
	settlementService.WithInvalidator(dashboardCache)

	settleHandler := jobs.NewSettleGenerateAllHandler(settlementService, logger)

	var cron []jobs.CronRegistration
	if cfg.SettleCronSpec != "" {
		// Empty month payload: the handler settles the previous calendar
		// month at execution time.
		settleTask, err := jobs.NewSettleGenerateAllTask("")
		if err != nil {
			logger.Error("build settle task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.SettleCronSpec,
			Task:    settleTask,
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSettleGenerateAll, Handler: settleHandler},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
