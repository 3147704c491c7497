package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sellerstats/internal/health"
)

func TestReadyReportsDraining(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	checker := &countingChecker{}
	handler := health.Handler{Checker: checker}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	health.SetReady(false)
	rec := httptest.NewRecorder()
	handler.Ready(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "draining", body["status"])
	require.Zero(t, checker.calls, "draining must not probe dependencies")

	health.SetReady(true)
	rec = httptest.NewRecorder()
	handler.Ready(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, checker.calls)
}

type countingChecker struct{ calls int }

func (c *countingChecker) PingDB(context.Context, time.Duration) error {
	c.calls++
	return nil
}

func (c *countingChecker) PingRedis(context.Context, time.Duration) error {
	c.calls++
	return nil
}
