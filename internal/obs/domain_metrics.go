package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// AnalysisTotal counts seller analyses by source (request, store) and result.
	AnalysisTotal *prometheus.CounterVec
	// AnalysisDuration records analysis latency in milliseconds.
	AnalysisDuration *prometheus.HistogramVec
	// AnalysisCacheTotal counts report cache lookups by hit or miss.
	AnalysisCacheTotal *prometheus.CounterVec
	// ReportJobsTotal counts queued report runs by lifecycle outcome.
	ReportJobsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the analytics collectors.
// Only the first call has any effect.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		AnalysisTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seller_analysis_total",
			Help:      "Count of seller analyses by source and result.",
		}, []string{"source", "result"}))
		AnalysisDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "seller_analysis_duration_ms",
			Help:      "Seller analysis latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}, []string{"source"}))
		AnalysisCacheTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seller_analysis_cache_total",
			Help:      "Count of seller report cache lookups.",
		}, []string{"result"}))
		ReportJobsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seller_report_jobs_total",
			Help:      "Count of queued seller report jobs by outcome.",
		}, []string{"result"}))
	})
}

// RecordAnalysis observes one analysis. It is a no-op until the metrics are registered.
func RecordAnalysis(source, result string, d time.Duration) {
	if AnalysisTotal != nil {
		AnalysisTotal.WithLabelValues(source, result).Inc()
	}
	if AnalysisDuration != nil {
		AnalysisDuration.WithLabelValues(source).Observe(DurationMillis(d))
	}
}

// RecordCache counts a cache hit or miss.
func RecordCache(hit bool) {
	if AnalysisCacheTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	AnalysisCacheTotal.WithLabelValues(result).Inc()
}

// RecordReportJob counts a report job transition (enqueued, succeeded, retry, failed).
func RecordReportJob(result string) {
	if ReportJobsTotal != nil {
		ReportJobsTotal.WithLabelValues(result).Inc()
	}
}
