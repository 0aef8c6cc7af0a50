package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu             sync.Mutex
	cacheHits      map[string]int
	cacheMisses    map[string]int
	apiFetches     map[string]int
	dedupedFetches int
	saveFailures   int
	saveRollbacks  int
	hydrationRuns  map[string]int
	startupTime    float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		cacheHits:     make(map[string]int),
		cacheMisses:   make(map[string]int),
		apiFetches:    make(map[string]int),
		hydrationRuns: make(map[string]int),
	}
}

func (m *Mock) IncCacheHit(store string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits[store]++
}

func (m *Mock) IncCacheMiss(store string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses[store]++
}

func (m *Mock) IncAPIFetch(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiFetches[kind]++
}

func (m *Mock) IncDedupedFetch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dedupedFetches++
}

func (m *Mock) IncSaveFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveFailures++
}

func (m *Mock) IncSaveRollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveRollbacks++
}

func (m *Mock) IncHydrationRun(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrationRuns[outcome]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// CacheHits returns the number of recorded hits for a store.
func (m *Mock) CacheHits(store string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits[store]
}

// CacheMisses returns the number of recorded misses for a store.
func (m *Mock) CacheMisses(store string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheMisses[store]
}

// APIFetches returns the number of recorded fetches for a call kind.
func (m *Mock) APIFetches(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiFetches[kind]
}

// DedupedFetches returns the number of collapsed fetches recorded.
func (m *Mock) DedupedFetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dedupedFetches
}

// SaveFailures returns the number of failed saves recorded.
func (m *Mock) SaveFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveFailures
}

// SaveRollbacks returns the number of rollbacks recorded.
func (m *Mock) SaveRollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRollbacks
}

// HydrationRuns returns the number of hydration runs recorded per outcome.
func (m *Mock) HydrationRuns(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hydrationRuns[outcome]
}
