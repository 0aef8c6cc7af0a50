package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	APIFetches         *prometheus.CounterVec
	DedupedFetches     prometheus.Counter
	SaveFailures       prometheus.Counter
	SaveRollbacks      prometheus.Counter
	HydrationRuns      *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge
}
