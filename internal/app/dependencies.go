// Package app wires the process level dependencies shared by the API and the worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-sellerstats/internal/analytics"
	"github.com/noah-isme/backend-sellerstats/internal/config"
	"github.com/noah-isme/backend-sellerstats/internal/db"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/repo"
	"github.com/noah-isme/backend-sellerstats/internal/resilience"
)

// Dependencies holds the connections a process keeps for its lifetime.
type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *pgxpool.Pool
	Redis      *redis.Client
	TaskClient *asynq.Client
	RedisOpt   asynq.RedisConnOpt
	// SourceBreaker guards dataset loads in queued runs.
	SourceBreaker *resilience.Breaker

	closers []func(context.Context) error
}

// NewLogger builds the process logger tagged with env and component.
func NewLogger(cfg *config.Config, component string) zerolog.Logger {
	return obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", component).
		Logger()
}

// Bootstrap initialises tracing, metrics, Postgres, Redis and the asynq
// client. On error everything opened so far is closed again.
func Bootstrap(ctx context.Context, cfg *config.Config, service string, logger zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: logger}

	if cfg.Obs.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   service,
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			deps.closers = append(deps.closers, shutdown)
		}
	}
	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
		resilience.MustRegisterMetrics()
	}
	deps.SourceBreaker = resilience.NewBreaker("dataset_store", 5, 0.5, 30*time.Second).WithLogger(logger)

	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}

	startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := OpenPostgres(startCtx, cfg.DatabaseURL, service)
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}
	deps.DB = pool
	deps.closers = append(deps.closers, func(context.Context) error {
		pool.Close()
		return nil
	})

	rdb, err := OpenRedis(startCtx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}
	deps.Redis = rdb
	deps.closers = append(deps.closers, func(context.Context) error { return rdb.Close() })

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		deps.Close(ctx)
		return nil, fmt.Errorf("parse task queue redis url: %w", err)
	}
	deps.RedisOpt = redisOpt
	deps.TaskClient = asynq.NewClient(redisOpt)
	deps.closers = append(deps.closers, func(context.Context) error { return deps.TaskClient.Close() })

	return deps, nil
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close(ctx context.Context) {
	if d == nil {
		return
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			d.Logger.Error().Err(err).Msg("release dependency")
		}
	}
	d.closers = nil
}

// AnalyticsService assembles the analytics service over the live stores.
func (d *Dependencies) AnalyticsService() *analytics.Service {
	cfg := d.Config
	return &analytics.Service{
		Runs: repo.RunStore{DB: d.DB},
		Source: analytics.GuardedSource{
			Source:  repo.DatasetStore{DB: d.DB},
			Breaker: d.SourceBreaker,
		},
		Queue: analytics.Jobs{
			Client:   d.TaskClient,
			Queue:    cfg.Queue.Name,
			MaxRetry: cfg.Queue.MaxRetry,
		},
		R:               d.Redis,
		TTL:             cfg.Stats.CacheTTL,
		BonusPolicy:     cfg.Stats.BonusPolicy,
		RevenuePolicy:   cfg.Stats.RevenuePolicy,
		CheckReferences: cfg.Stats.CheckReferences,
		Logger:          d.Logger,
	}
}

// OpenPostgres connects a traced pgx pool and pings it.
func OpenPostgres(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is required")
	}
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects an instrumented Redis client and pings it.
func OpenRedis(ctx context.Context, redisURL string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
