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
	"github.com/redis/go-redis/v9"

	"github.com/kitchenboard/kitchenboard/internal/app"
	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/inputs"
	"github.com/kitchenboard/kitchenboard/internal/kpi"
	kpihttp "github.com/kitchenboard/kitchenboard/internal/kpi/http"
	"github.com/kitchenboard/kitchenboard/internal/labor"
	"github.com/kitchenboard/kitchenboard/internal/observability"
	"github.com/kitchenboard/kitchenboard/internal/platform/cache"
	"github.com/kitchenboard/kitchenboard/internal/platform/db"
	"github.com/kitchenboard/kitchenboard/internal/pos"
	"github.com/kitchenboard/kitchenboard/internal/revenue"
	"github.com/kitchenboard/kitchenboard/jobs"
)

const (
	memoPurgeEvery = time.Hour
	memoKeepFor    = 24 * time.Hour
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

	cal, err := dates.NewCalendar(cfg.Timezone)
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := db.EnsureSchema(ctx, dbpool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis is optional for the API: without it there is no last-good
	// snapshot and no backfill queue.
	var redisClient *redis.Client
	if rdb, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		redisClient = rdb
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	inputsRepo := inputs.NewRepository(dbpool)

	var (
		rangeRevenue kpi.RangeRevenue
		posSource    inputs.RevenueSource
		posMemo      = cache.NewMemo[revenue.RangeResult]("pos", cache.WithObserver(metrics))
	)
	if cfg.POS.IsConfigured() {
		client := pos.NewClient(cfg.POS.Client(), metrics)
		aggregator := revenue.NewAggregator(client, cal,
			revenue.WithConcurrency(cfg.POS.Concurrency),
			revenue.WithMaxChunkDays(cfg.POS.MaxChunkDays),
		)
		revenueService := revenue.NewService(aggregator, cal, posMemo, cfg.POS.CacheTTL)
		rangeRevenue = revenueService
		posSource = revenueService
	} else {
		logger.Warn("pos vendor not configured, serving stored revenue", slog.Any("missing", cfg.POS.Missing()))
	}

	inputsService := inputs.NewService(inputsRepo, posSource, cal, logger)
	inputsHandler := inputs.NewHandler(logger, inputsService)

	engine := kpi.NewEngine(cal, rangeRevenue, inputsRepo)
	kpiMemo := cache.NewMemo[kpi.Snapshot]("kpi", cache.WithObserver(metrics))
	var kpiOpts []kpi.ServiceOption
	if redisClient != nil {
		kpiOpts = append(kpiOpts, kpi.WithSnapshotStore(kpi.NewRedisSnapshotStore(redisClient, cfg.SnapshotTTL)))
	}
	kpiService := kpi.NewService(engine, cal, kpiMemo, cfg.KPICacheTTL, logger, kpiOpts...)
	kpiHandler := kpihttp.NewHandler(logger, kpiService, cal)

	laborRepo := labor.NewRepository(dbpool)
	laborHandler := labor.NewHandler(logger,
		labor.NewImporter(laborRepo, logger),
		labor.NewCostCalculator(laborRepo, cal, cfg.LaborUpliftFactor),
		laborRepo,
		cal,
	)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, jobClient, cal, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, nil, cal, logger)
	}

	go purgeMemos(ctx, posMemo, kpiMemo)

	router := app.NewRouter(app.RouterParams{
		Logger:   logger,
		Config:   cfg,
		Metrics:  metrics,
		Handlers: []app.RouteMounter{kpiHandler, inputsHandler, laborHandler, jobHandler},
		Ready: func(r *http.Request) error {
			return dbpool.Ping(r.Context())
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", cfg.Timezone))
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

type purger interface {
	Purge(olderThan time.Duration) int
}

// purgeMemos drops entries too old to serve even as a degraded fallback.
func purgeMemos(ctx context.Context, memos ...purger) {
	ticker := time.NewTicker(memoPurgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range memos {
				m.Purge(memoKeepFor)
			}
		}
	}
}
