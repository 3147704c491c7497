package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/noah-isme/backend-sellerstats/internal/analytics"
	"github.com/noah-isme/backend-sellerstats/internal/app"
	"github.com/noah-isme/backend-sellerstats/internal/config"
	"github.com/noah-isme/backend-sellerstats/internal/dataset"
	"github.com/noah-isme/backend-sellerstats/internal/health"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/ratelimit"
)

const serviceName = "sellerstats-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := app.NewLogger(cfg, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg, serviceName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap")
	}
	defer deps.Close(context.Background())

	store, err := ratelimit.NewStore(deps.Redis, ratelimit.DefaultPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limit store")
	}
	analyzeLimiter, err := ratelimit.New(store, cfg.Stats.RateLimit)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.Stats.RateLimit).Msg("parse RATE_LIMIT_ANALYZE")
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	router := newRouter(routerDeps{
		Logger: logger,
		Analytics: &analytics.Handler{
			Svc:    deps.AnalyticsService(),
			Loader: dataset.NewLoader(cfg.Stats.StrictInput),
		},
		Health: health.Handler{Checker: health.Probes{DB: deps.DB, Redis: deps.Redis}},
		AnalyzeLimit: ratelimit.Handler{
			Limiter: analyzeLimiter,
			Key:     ratelimit.ByClientIP("analyze", cfg.TrustProxy),
			OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
		},
		HTTPMetrics:     httpMetrics,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		MaxBodyBytes:    cfg.Stats.MaxBodyBytes,
		SecurityHeaders: cfg.SecurityHeaders,
		HSTS:            cfg.IsProduction(),
		Pprof:           cfg.Obs.PprofEnabled,
		PprofUser:       cfg.Obs.PprofUser,
		PprofPass:       cfg.Obs.PprofPass,
	})

	var handler http.Handler = router
	if cfg.Obs.TracingEnabled {
		handler = obs.Tracing(router, serviceName)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}
