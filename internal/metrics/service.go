package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_cache_hits_total",
			Help: "The total number of cache hits, per store.",
		}, []string{"store"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_cache_misses_total",
			Help: "The total number of cache misses, per store.",
		}, []string{"store"}),
		APIFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_api_fetches_total",
			Help: "The total number of backend fetches issued, per call kind.",
		}, []string{"kind"}),
		DedupedFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_deduped_fetches_total",
			Help: "The total number of fetches collapsed into an in-flight request.",
		}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_save_failures_total",
			Help: "The total number of attempt saves that failed server-side.",
		}),
		SaveRollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_save_rollbacks_total",
			Help: "The total number of optimistic updates rolled back after a failed save.",
		}),
		HydrationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_hydration_runs_total",
			Help: "The total number of hydration runs, per outcome.",
		}, []string{"outcome"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trivia_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.CacheHits,
		s.CacheMisses,
		s.APIFetches,
		s.DedupedFetches,
		s.SaveFailures,
		s.SaveRollbacks,
		s.HydrationRuns,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncCacheHit(store string) {
	s.CacheHits.WithLabelValues(store).Inc()
}

func (s *Service) IncCacheMiss(store string) {
	s.CacheMisses.WithLabelValues(store).Inc()
}

func (s *Service) IncAPIFetch(kind string) {
	s.APIFetches.WithLabelValues(kind).Inc()
}

func (s *Service) IncDedupedFetch() {
	s.DedupedFetches.Inc()
}

func (s *Service) IncSaveFailure() {
	s.SaveFailures.Inc()
}

func (s *Service) IncSaveRollback() {
	s.SaveRollbacks.Inc()
}

func (s *Service) IncHydrationRun(outcome string) {
	s.HydrationRuns.WithLabelValues(outcome).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
