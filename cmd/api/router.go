package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-sellerstats/internal/analytics"
	"github.com/noah-isme/backend-sellerstats/internal/health"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/ratelimit"
	"github.com/noah-isme/backend-sellerstats/internal/security"
)

type routerDeps struct {
	Logger          zerolog.Logger
	Analytics       *analytics.Handler
	Health          health.Handler
	AnalyzeLimit    ratelimit.Handler
	HTTPMetrics     *obs.HTTPMetrics
	AllowedOrigins  []string
	MaxBodyBytes    int64
	SecurityHeaders bool
	HSTS            bool
	Pprof           bool
	PprofUser       string
	PprofPass       string
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: d.SecurityHeaders, EnableHSTS: d.HSTS, HSTSIncludeSubdomains: true}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(d.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Location", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if d.HTTPMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if d.Pprof {
		profiler := middleware.Profiler()
		if d.PprofUser != "" && d.PprofPass != "" {
			profiler = middleware.BasicAuth("pprof", map[string]string{d.PprofUser: d.PprofPass})(profiler)
		}
		r.Mount("/debug", profiler)
	}

	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	r.Route("/api/v1/analytics", func(an chi.Router) {
		an.Use(middleware.Timeout(60 * time.Second))
		an.With(
			d.AnalyzeLimit.Middleware,
			security.RequireJSON,
			security.BodyLimit{Max: d.MaxBodyBytes}.Middleware,
		).Post("/sellers", d.Analytics.Sellers)
		an.Post("/runs", d.Analytics.SubmitRun)
		an.Get("/runs", d.Analytics.ListRuns)
		an.Get("/runs/{id}", d.Analytics.GetRun)
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
