package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sellerstats/internal/analytics"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/ratelimit"
)

const payload = `{"sellers":[{"id":"s1","first_name":"A","last_name":"B"}],"products":[{"sku":"x","purchase_price":10}],"purchase_records":[{"seller_id":"s1","total_amount":100,"items":[{"sku":"x","sale_price":50,"quantity":2,"discount":0}]}]}`

func testRouter(t *testing.T, rate string) http.Handler {
	t.Helper()
	store, err := ratelimit.NewStore(nil, "")
	require.NoError(t, err)
	lim, err := ratelimit.New(store, rate)
	require.NoError(t, err)

	return newRouter(routerDeps{
		Logger:          zerolog.Nop(),
		Analytics:       &analytics.Handler{Svc: &analytics.Service{}},
		AnalyzeLimit:    ratelimit.Handler{Limiter: lim, Key: ratelimit.ByClientIP("analyze", false)},
		HTTPMetrics:     obs.NewHTTPMetrics("routertest", nil, prometheus.NewRegistry()),
		AllowedOrigins:  []string{"https://dash.example"},
		MaxBodyBytes:    1 << 20,
		SecurityHeaders: true,
	})
}

func post(router http.Handler, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/sellers", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterAnalyzeSellers(t *testing.T) {
	router := testRouter(t, "100-M")

	rr := post(router, payload, "application/json")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"seller_id":"s1"`)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))

	rr = post(router, payload, "text/plain")
	require.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestRouterBodyLimit(t *testing.T) {
	router := testRouter(t, "100-M")
	big := `{"sellers":[` + strings.Repeat(`{"id":"s"},`, 200000) + `{"id":"s"}]}`
	rr := post(router, big, "application/json")
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestRouterRateLimit(t *testing.T) {
	router := testRouter(t, "1-M")
	require.Equal(t, http.StatusOK, post(router, payload, "").Code)
	require.Equal(t, http.StatusTooManyRequests, post(router, payload, "").Code)
}

func TestRouterHealthAndCORS(t *testing.T) {
	router := testRouter(t, "100-M")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analytics/sellers", nil)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, "https://dash.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := testRouter(t, "100-M")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
