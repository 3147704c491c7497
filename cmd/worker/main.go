package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-sellerstats/internal/analytics"
	"github.com/noah-isme/backend-sellerstats/internal/app"
	"github.com/noah-isme/backend-sellerstats/internal/config"
	"github.com/noah-isme/backend-sellerstats/internal/lock"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/resilience"
)

const serviceName = "sellerstats-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := app.NewLogger(cfg, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg, serviceName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap")
	}
	defer deps.Close(context.Background())

	if cfg.Obs.MetricsEnabled && cfg.Obs.WorkerMetricsAddr != "" {
		go serveMetrics(ctx, cfg.Obs.WorkerMetricsAddr, logger)
	}

	srv := asynq.NewServer(deps.RedisOpt, asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Queues:      map[string]int{cfg.Queue.Name: 1},
		Logger:      obs.AsynqLogger{Logger: logger},
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return resilience.Backoff(cfg.Queue.RetryBase, 10*time.Minute, n+1, 0.2)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Warn().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(analytics.TaskSellerReport, analytics.JobHandler{
		Svc:     deps.AnalyticsService(),
		Locks:   lock.Locker{R: deps.Redis, Prefix: "lock:run:"},
		LockTTL: cfg.Queue.LockTTL,
		Logger:  logger,
	})

	logger.Info().Str("queue", cfg.Queue.Name).Int("concurrency", cfg.Queue.Concurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func serveMetrics(ctx context.Context, addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics listener")
	}
}
