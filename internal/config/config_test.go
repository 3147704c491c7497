package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":                 "postgres://localhost/sellerstats",
		"REDIS_URL":                    "redis://localhost:6379/0",
		"APP_ENV":                      "",
		"PORT":                         "",
		"STATS_CACHE_TTL":              "",
		"STATS_DEFAULT_BONUS_POLICY":   "",
		"STATS_DEFAULT_REVENUE_POLICY": "",
		"STATS_MAX_BODY_BYTES":         "",
		"QUEUE_CONCURRENCY":            "",
		"QUEUE_MAX_RETRY":              "",
		"SECURITY_HEADERS_ENABLED":     "",
		"CORS_ALLOWED_ORIGINS":         "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 10*time.Minute, cfg.Stats.CacheTTL)
	require.Equal(t, "profit-tiers", cfg.Stats.BonusPolicy)
	require.Equal(t, "simple", cfg.Stats.RevenuePolicy)
	require.Equal(t, int64(8<<20), cfg.Stats.MaxBodyBytes)
	require.Equal(t, "60-M", cfg.Stats.RateLimit)
	require.Equal(t, 5, cfg.Queue.Concurrency)
	require.Equal(t, 5, cfg.Queue.MaxRetry)
	require.Equal(t, 2*time.Minute, cfg.Queue.LockTTL)
	require.Equal(t, 5*time.Second, cfg.Queue.RetryBase)
	require.True(t, cfg.SecurityHeaders)
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "production"
	env["PORT"] = ":9000"
	env["STATS_CACHE_TTL"] = "30s"
	env["STATS_DEFAULT_BONUS_POLICY"] = "Flat-5"
	env["STATS_MAX_BODY_BYTES"] = "1024"
	env["QUEUE_CONCURRENCY"] = "12"
	env["SECURITY_HEADERS_ENABLED"] = "off"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.test, ,https://b.test"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, 30*time.Second, cfg.Stats.CacheTTL)
	require.Equal(t, "flat-5", cfg.Stats.BonusPolicy)
	require.Equal(t, int64(1024), cfg.Stats.MaxBodyBytes)
	require.Equal(t, 12, cfg.Queue.Concurrency)
	require.False(t, cfg.SecurityHeaders)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database": {"DATABASE_URL": ""},
		"missing redis":    {"REDIS_URL": ""},
		"unknown bonus":    {"STATS_DEFAULT_BONUS_POLICY": "lottery"},
		"unknown revenue":  {"STATS_DEFAULT_REVENUE_POLICY": "gross"},
		"zero body limit":  {"STATS_MAX_BODY_BYTES": "0"},
		"zero concurrency": {"QUEUE_CONCURRENCY": "0"},
	}
	for name, override := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range override {
				env[k] = v
			}
			_, err := LoadForTests(env)
			require.Error(t, err)
		})
	}
}

func TestParseHelpers(t *testing.T) {
	require.Equal(t, time.Minute, parseDuration("bogus", "1m"))
	require.True(t, parseBool("", true))
	require.False(t, parseBool("no", true))
	require.Equal(t, int64(7), parseInt64("x", 7))
	require.Equal(t, 0.5, parseFloat("0.5", 1))
}
