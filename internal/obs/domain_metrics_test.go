package obs_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/noah-isme/backend-sellerstats/internal/obs"
)

func TestDomainMetrics(t *testing.T) {
	obs.MustRegisterDomainMetrics("sellerstats", prometheus.NewRegistry())

	before := testutil.ToFloat64(obs.AnalysisTotal.WithLabelValues("request", "ok"))
	obs.RecordAnalysis("request", "ok", 3*time.Millisecond)
	if got := testutil.ToFloat64(obs.AnalysisTotal.WithLabelValues("request", "ok")); got != before+1 {
		t.Fatalf("expected analysis counter to increase, got %v", got)
	}
	if testutil.CollectAndCount(obs.AnalysisDuration) == 0 {
		t.Fatalf("expected duration sample")
	}

	hits := testutil.ToFloat64(obs.AnalysisCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(obs.AnalysisCacheTotal.WithLabelValues("miss"))
	obs.RecordCache(true)
	obs.RecordCache(false)
	obs.RecordCache(false)
	if got := testutil.ToFloat64(obs.AnalysisCacheTotal.WithLabelValues("hit")); got != hits+1 {
		t.Fatalf("expected one hit, got %v", got-hits)
	}
	if got := testutil.ToFloat64(obs.AnalysisCacheTotal.WithLabelValues("miss")); got != misses+2 {
		t.Fatalf("expected two misses, got %v", got-misses)
	}

	jobs := testutil.ToFloat64(obs.ReportJobsTotal.WithLabelValues("retry"))
	obs.RecordReportJob("retry")
	if got := testutil.ToFloat64(obs.ReportJobsTotal.WithLabelValues("retry")); got != jobs+1 {
		t.Fatalf("expected retry counter to increase, got %v", got)
	}
}
