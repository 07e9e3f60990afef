package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/saastools-backend/internal/billing"
	"github.com/angelmondragon/saastools-backend/internal/cron"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
	"github.com/angelmondragon/saastools-backend/pkg/migrate"
	"github.com/angelmondragon/saastools-backend/pkg/redis"
)

// errCycleFailed makes -once exit non-zero when any job failed.
var errCycleFailed = errors.New("one or more cron jobs failed")

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit, for external schedulers")
	metricsAddr := flag.String("metrics-addr", ":9091", "address for the /metrics listener; empty disables it")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "cron-worker"}).Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg := logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg, *once, *metricsAddr); err != nil {
		if !errors.Is(err, errCycleFailed) {
			logg.Error(ctx, "cron worker stopped", err)
		}
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool, metricsAddr string) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeLogged(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeLogged(ctx, logg, "redis", redisClient.Close)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cronMetrics := metrics.NewCronJobMetrics(registry)

	service, jobs, err := buildService(cfg, logg, dbClient, redisClient, cronMetrics)
	if err != nil {
		return err
	}
	ctx = logg.WithFields(ctx, map[string]any{"service_kind": cfg.Service.Kind, "jobs": jobs.Names()})

	if once {
		report, err := service.RunOnce(ctx)
		if err != nil {
			return err
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"skipped": report.Skipped, "failed": report.Failed()}), "cron.once_finished")
		if report.Failed() > 0 {
			return errCycleFailed
		}
		return nil
	}

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "cron.metrics_listener_failed", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, m *metrics.CronJobMetrics) (*cron.Service, *cron.Jobs, error) {
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewLeaderLock(redisClient, redisClient.LockKey("cron-worker:"+env), cfg.Cron.Interval)
	if err != nil {
		return nil, nil, fmt.Errorf("cron lock: %w", err)
	}

	expiryJob, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: billing.NewRepository(dbClient.DB()),
		Metrics:    m,
		PendingTTL: cfg.Cron.PendingSubscriptionTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subscription expiry job: %w", err)
	}
	jobs, err := cron.NewJobs(expiryJob)
	if err != nil {
		return nil, nil, fmt.Errorf("register jobs: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Jobs:       jobs,
		Lock:       lock,
		Metrics:    m,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cron service: %w", err)
	}
	return service, jobs, nil
}

func closeLogged(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(logg.WithField(ctx, "resource", name), "close failed", err)
	}
}
