package attempts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubtrivia/clubtrivia/internal/api"
	"github.com/clubtrivia/clubtrivia/internal/cache"
	"github.com/clubtrivia/clubtrivia/internal/metrics"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
	"golang.org/x/sync/singleflight"
)

// ServerStore mirrors per-club attempt bundles fetched from the backend.
// Each scope's entry moves through empty -> fetching -> fresh and back to
// empty on day rollover. Once a bulk fetch has succeeded for the day, no
// per-club read issues another network call.
type ServerStore struct {
	api     api.TriviaClient
	storage storage.Store
	metrics metrics.Metrics
	now     func() time.Time

	mu      sync.RWMutex
	entries map[trivia.ClubScope]*cache.Entry[trivia.ClubAttemptsBundle]
	// allFetchedDay is the calendar day a bulk fetch covered; the flag
	// lapses automatically at midnight.
	allFetchedDay string

	group singleflight.Group
}

var _ Store = (*ServerStore)(nil)

// NewServerStore creates a server-backed attempt store.
func NewServerStore(client api.TriviaClient, st storage.Store, m metrics.Metrics) *ServerStore {
	return &ServerStore{
		api:     client,
		storage: st,
		metrics: m,
		now:     time.Now,
		entries: make(map[trivia.ClubScope]*cache.Entry[trivia.ClubAttemptsBundle]),
	}
}

func (s *ServerStore) entryLocked(scope trivia.ClubScope) *cache.Entry[trivia.ClubAttemptsBundle] {
	e, ok := s.entries[scope]
	if !ok {
		e = &cache.Entry[trivia.ClubAttemptsBundle]{}
		s.entries[scope] = e
	}
	return e
}

// AllFetched reports whether a bulk fetch has covered every club today.
func (s *ServerStore) AllFetched() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allFetchedDay == cache.Day(s.now())
}

// Reset drops the in-memory cache. Used when a credential refresh fails
// and the cached server state can no longer be trusted.
func (s *ServerStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[trivia.ClubScope]*cache.Entry[trivia.ClubAttemptsBundle])
	s.allFetchedDay = ""
}

// SetAll replaces the cache with bulk-fetched bundles and marks the bulk
// flag so later per-club reads stay local for the rest of the day. The
// mirror is persisted as one full snapshot.
func (s *ServerStore) SetAll(bundles map[trivia.ClubScope]trivia.ClubAttemptsBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries = make(map[trivia.ClubScope]*cache.Entry[trivia.ClubAttemptsBundle], len(bundles))
	for scope, bundle := range bundles {
		e := &cache.Entry[trivia.ClubAttemptsBundle]{}
		e.Set(bundle.Clone(), now, cache.SourceAPI)
		s.entries[scope] = e
	}
	s.allFetchedDay = cache.Day(now)
	s.persistLocked()
}

// ClubData returns the bundle for a scope, fetching it when it is not
// cached-and-valid. Concurrent calls for the same scope collapse into a
// single in-flight request.
func (s *ServerStore) ClubData(ctx context.Context, scope trivia.ClubScope) (trivia.ClubAttemptsBundle, error) {
	s.mu.Lock()
	entry := s.entryLocked(scope)
	if bundle, ok := entry.Get(s.now()); ok {
		s.mu.Unlock()
		s.metrics.IncCacheHit("server_attempts")
		return bundle.Clone(), nil
	}
	allFetched := s.allFetchedDay == cache.Day(s.now())
	s.mu.Unlock()
	s.metrics.IncCacheMiss("server_attempts")

	// After a successful bulk fetch, an uncached club simply has no
	// attempts yet; no further network call is warranted today.
	if allFetched {
		return trivia.NewBundle(), nil
	}

	v, err, shared := s.group.Do(string(scope), func() (any, error) {
		s.metrics.IncAPIFetch("club_attempts")
		fetched, err := s.api.FetchClubAttempts(ctx, scope)
		if err != nil {
			// The entry stays empty; the next read retries.
			return nil, err
		}
		s.mu.Lock()
		e := s.entryLocked(scope)
		e.Set(fetched.Clone(), s.now(), cache.SourceAPI)
		s.persistLocked()
		s.mu.Unlock()
		return *fetched, nil
	})
	if shared {
		s.metrics.IncDedupedFetch()
	}
	if err != nil {
		return trivia.NewBundle(), fmt.Errorf("failed to fetch attempts for %q: %w", scope, err)
	}
	// Every collapsed caller gets its own clone; the shared singleflight
	// result must not hand out one mutable map.
	return v.(trivia.ClubAttemptsBundle).Clone(), nil
}

func (s *ServerStore) PlayedToday(ctx context.Context, scope trivia.ClubScope, gt trivia.GameType) (bool, error) {
	rec, err := s.LastAttempt(ctx, scope, gt)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.PlayedOn(s.now()), nil
}

func (s *ServerStore) LastAttempt(ctx context.Context, scope trivia.ClubScope, gt trivia.GameType) (*trivia.AttemptRecord, error) {
	bundle, err := s.ClubData(ctx, scope)
	if err != nil {
		return nil, err
	}
	rec, ok := bundle.LastAttempts[gt]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// RecordAttempt applies the recomputed record optimistically, then saves it
// server-side. A failed save restores the pre-save state exactly and
// propagates the error; the caller owns user-facing messaging.
func (s *ServerStore) RecordAttempt(ctx context.Context, scope trivia.ClubScope, rec trivia.AttemptRecord) (*trivia.AttemptRecord, error) {
	if _, err := trivia.ParseGameType(string(rec.GameType)); err != nil {
		return nil, fmt.Errorf("rejecting attempt: %w", err)
	}

	s.mu.Lock()
	now := s.now()
	entry := s.entryLocked(scope)

	// Snapshot the whole entry so a rollback restores freshness metadata
	// too, not just the bundle.
	prior := *entry

	bundle := trivia.NewBundle()
	if cached, ok := entry.Get(now); ok {
		bundle = cached.Clone()
	}
	var prev *trivia.AttemptRecord
	if p, ok := bundle.LastAttempts[rec.GameType]; ok {
		prev = &p
	}
	next := trivia.NextAttempt(prev, rec, now)

	bundle.LastAttempts[rec.GameType] = next
	bundle.TotalGames++
	bundle.LastUpdated = now
	entry.Set(bundle, now, cache.SourceAPI)
	s.mu.Unlock()

	saved, err := s.api.SaveAttempt(ctx, scope, next)
	if err != nil {
		s.mu.Lock()
		*s.entryLocked(scope) = prior
		s.mu.Unlock()
		s.metrics.IncSaveFailure()
		s.metrics.IncSaveRollback()
		log.Error("Failed to save attempt, rolled back optimistic update", "error", err, "scope", scope, "gameType", rec.GameType)
		return nil, fmt.Errorf("failed to save attempt: %w", err)
	}

	// The server's record becomes the cached one.
	s.mu.Lock()
	entry = s.entryLocked(scope)
	if cached, ok := entry.Get(s.now()); ok {
		updated := cached.Clone()
		updated.LastAttempts[saved.GameType] = *saved
		entry.Set(updated, s.now(), cache.SourceAPI)
	}
	s.persistLocked()
	s.mu.Unlock()
	return saved, nil
}
