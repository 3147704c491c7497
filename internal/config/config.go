package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

const defaultMaxBodyBytes = 8 << 20

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	TrustProxy         bool
	DBAutoMigrate      bool
	SecurityHeaders    bool

	Stats StatsConfig
	Queue QueueConfig
	Obs   ObsConfig
}

// StatsConfig tunes the analytics service.
type StatsConfig struct {
	CacheTTL        time.Duration
	BonusPolicy     string
	RevenuePolicy   string
	StrictInput     bool
	CheckReferences bool
	MaxBodyBytes    int64
	// RateLimit uses the ulule "<limit>-<period>" notation, e.g. "60-M".
	RateLimit string
}

// QueueConfig configures the asynq client and worker.
type QueueConfig struct {
	Name        string
	Concurrency int
	MaxRetry    int
	// LockTTL bounds how long one worker may hold a run.
	LockTTL   time.Duration
	RetryBase time.Duration
}

// ObsConfig groups logging, metrics and tracing switches.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
	// WorkerMetricsAddr is where the worker serves /metrics; "off" disables it.
	WorkerMetricsAddr string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		TrustProxy:         parseBool(k.String("TRUST_PROXY"), false),
		DBAutoMigrate:      parseBool(k.String("DB_AUTO_MIGRATE"), false),
		SecurityHeaders:    parseBool(k.String("SECURITY_HEADERS_ENABLED"), true),
		Stats: StatsConfig{
			CacheTTL:        parseDuration(k.String("STATS_CACHE_TTL"), "10m"),
			BonusPolicy:     strings.ToLower(valueOrDefault(k.String("STATS_DEFAULT_BONUS_POLICY"), sellerstats.DefaultBonusPolicy)),
			RevenuePolicy:   strings.ToLower(valueOrDefault(k.String("STATS_DEFAULT_REVENUE_POLICY"), sellerstats.DefaultRevenuePolicy)),
			StrictInput:     parseBool(k.String("STATS_STRICT_INPUT"), false),
			CheckReferences: parseBool(k.String("STATS_CHECK_REFERENCES"), false),
			MaxBodyBytes:    parseInt64(k.String("STATS_MAX_BODY_BYTES"), defaultMaxBodyBytes),
			RateLimit:       valueOrDefault(k.String("RATE_LIMIT_ANALYZE"), "60-M"),
		},
		Queue: QueueConfig{
			Name:        valueOrDefault(k.String("QUEUE_NAME"), "analytics"),
			Concurrency: int(parseInt64(k.String("QUEUE_CONCURRENCY"), 5)),
			MaxRetry:    int(parseInt64(k.String("QUEUE_MAX_RETRY"), 5)),
			LockTTL:     parseDuration(k.String("QUEUE_LOCK_TTL"), "2m"),
			RetryBase:   parseDuration(k.String("QUEUE_RETRY_BASE"), "5s"),
		},
		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "sellerstats"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			PprofEnabled:     parseBool(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:        k.String("SECURE_PPROF_BASIC_AUTH_USER"),
			PprofPass:        k.String("SECURE_PPROF_BASIC_AUTH_PASS"),

			WorkerMetricsAddr: valueOrDefault(k.String("OBS_WORKER_METRICS_ADDR"), ":9091"),
		},
	}

	if strings.EqualFold(cfg.Obs.WorkerMetricsAddr, "off") {
		cfg.Obs.WorkerMetricsAddr = ""
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if _, err := sellerstats.LookupBonusPolicy(cfg.Stats.BonusPolicy); err != nil {
		return nil, fmt.Errorf("STATS_DEFAULT_BONUS_POLICY: %w", err)
	}
	if _, err := sellerstats.LookupRevenuePolicy(cfg.Stats.RevenuePolicy); err != nil {
		return nil, fmt.Errorf("STATS_DEFAULT_REVENUE_POLICY: %w", err)
	}
	if cfg.Stats.MaxBodyBytes <= 0 {
		return nil, errors.New("STATS_MAX_BODY_BYTES must be positive")
	}
	if cfg.Queue.Concurrency <= 0 {
		return nil, errors.New("QUEUE_CONCURRENCY must be positive")
	}
	if cfg.Queue.MaxRetry < 0 {
		return nil, errors.New("QUEUE_MAX_RETRY must not be negative")
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "production" || env == "prod"
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
