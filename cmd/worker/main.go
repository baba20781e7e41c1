package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kitchenboard/kitchenboard/internal/app"
	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/inputs"
	jobmetrics "github.com/kitchenboard/kitchenboard/internal/jobs"
	"github.com/kitchenboard/kitchenboard/internal/platform/cache"
	"github.com/kitchenboard/kitchenboard/internal/platform/db"
	"github.com/kitchenboard/kitchenboard/internal/pos"
	"github.com/kitchenboard/kitchenboard/internal/revenue"
	"github.com/kitchenboard/kitchenboard/jobs"
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

	if !cfg.POS.IsConfigured() {
		logger.Error("pos vendor not configured, nothing to import", slog.Any("missing", cfg.POS.Missing()))
		os.Exit(1)
	}

	cal, err := dates.NewCalendar(cfg.Timezone)
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

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

	client := pos.NewClient(cfg.POS.Client(), nil)
	aggregator := revenue.NewAggregator(client, cal,
		revenue.WithConcurrency(cfg.POS.Concurrency),
		revenue.WithMaxChunkDays(cfg.POS.MaxChunkDays),
	)
	revenueService := revenue.NewService(aggregator, cal, cache.NewMemo[revenue.RangeResult]("pos"), cfg.POS.CacheTTL)
	inputsService := inputs.NewService(inputs.NewRepository(pool), revenueService, cal, logger)

	importJob := jobs.NewPOSImportJob(inputsService, jobs.NewRedisLocker(redisClient), cal, logger, jobmetrics.NewMetrics(nil))

	nightly, err := jobs.NewImportDayTask("")
	if err != nil {
		logger.Error("build import task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Location:  cal.Location(),
		Handlers:  importJob.Handlers(),
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ImportCron, Task: nightly},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("cron", cfg.ImportCron), slog.String("timezone", cfg.Timezone))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
