package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncCacheHit(store string)
	IncCacheMiss(store string)
	IncAPIFetch(kind string)
	IncDedupedFetch()
	IncSaveFailure()
	IncSaveRollback()
	IncHydrationRun(outcome string)
	SetStartupTime(duration float64)
}
