// Package games caches the game-of-the-day bundles per club scope,
// independent of attempt results. It shares the day-scoped freshness rule
// with the attempt stores.
package games

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
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

// Store caches DailyGameBundle per ClubScope.
type Store struct {
	api     api.TriviaClient
	storage storage.Store
	metrics metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	entries map[trivia.ClubScope]*cache.Entry[trivia.DailyGameBundle]

	group singleflight.Group
}

// gamesSnapshot is the msgpack-encoded on-device mirror. The payloads are
// opaque binary blobs, which is what msgpack is for here.
type gamesSnapshot struct {
	Day   string                                      `msgpack:"day"`
	Clubs map[trivia.ClubScope]trivia.DailyGameBundle `msgpack:"clubs"`
}

// NewStore creates a daily-games store and warms it from the device
// snapshot when that snapshot belongs to today.
func NewStore(client api.TriviaClient, st storage.Store, m metrics.Metrics) *Store {
	s := &Store{
		api:     client,
		storage: st,
		metrics: m,
		now:     time.Now,
		entries: make(map[trivia.ClubScope]*cache.Entry[trivia.DailyGameBundle]),
	}
	s.loadSnapshot()
	return s
}

func (s *Store) entryLocked(scope trivia.ClubScope) *cache.Entry[trivia.DailyGameBundle] {
	e, ok := s.entries[scope]
	if !ok {
		e = &cache.Entry[trivia.DailyGameBundle]{}
		s.entries[scope] = e
	}
	return e
}

// loadSnapshot restores bundles persisted earlier today. A corrupted or
// stale snapshot is a miss, never an error.
func (s *Store) loadSnapshot() {
	raw, ok, err := s.storage.Get(storage.KeyDailyGames)
	if err != nil {
		log.Error("Failed to read daily games snapshot", "error", err)
		return
	}
	if !ok {
		return
	}

	var snap gamesSnapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		log.Warn("Corrupted daily games snapshot, ignoring", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if snap.Day != cache.Day(now) || len(snap.Clubs) == 0 {
		return
	}
	for scope, bundle := range snap.Clubs {
		e := &cache.Entry[trivia.DailyGameBundle]{}
		e.Set(bundle, now, cache.SourceLocal)
		s.entries[scope] = e
	}
	log.Info("Loaded daily games snapshot", "scopes", len(snap.Clubs))
}

// persistLocked writes the full mirror. Callers must hold s.mu.
func (s *Store) persistLocked() {
	now := s.now()
	snap := gamesSnapshot{
		Day:   cache.Day(now),
		Clubs: make(map[trivia.ClubScope]trivia.DailyGameBundle, len(s.entries)),
	}
	for scope, e := range s.entries {
		if bundle, ok := e.Get(now); ok {
			snap.Clubs[scope] = bundle
		}
	}

	raw, err := msgpack.Marshal(snap)
	if err != nil {
		log.Error("Failed to encode daily games snapshot", "error", err)
		return
	}
	if err := s.storage.Put(storage.KeyDailyGames, raw); err != nil {
		log.Error("Failed to persist daily games snapshot", "error", err)
	}
}

// ClubGames returns the daily bundle for a scope, fetching it when the
// cached one is missing or expired. Concurrent calls for the same scope
// collapse into one request.
func (s *Store) ClubGames(ctx context.Context, scope trivia.ClubScope) (trivia.DailyGameBundle, error) {
	s.mu.Lock()
	entry := s.entryLocked(scope)
	if bundle, ok := entry.Get(s.now()); ok {
		s.mu.Unlock()
		s.metrics.IncCacheHit("daily_games")
		return bundle, nil
	}
	s.mu.Unlock()
	s.metrics.IncCacheMiss("daily_games")

	v, err, shared := s.group.Do(string(scope), func() (any, error) {
		s.metrics.IncAPIFetch("daily_games")
		fetched, err := s.api.FetchDailyGames(ctx, scope)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.entryLocked(scope).Set(*fetched, s.now(), cache.SourceAPI)
		s.persistLocked()
		s.mu.Unlock()
		return *fetched, nil
	})
	if shared {
		s.metrics.IncDedupedFetch()
	}
	if err != nil {
		return trivia.DailyGameBundle{}, fmt.Errorf("failed to fetch daily games for %q: %w", scope, err)
	}
	return v.(trivia.DailyGameBundle), nil
}

// Game returns one game-of-the-day payload for the scope.
func (s *Store) Game(ctx context.Context, scope trivia.ClubScope, gt trivia.GameType) ([]byte, error) {
	bundle, err := s.ClubGames(ctx, scope)
	if err != nil {
		return nil, err
	}
	payload, ok := bundle.Game(gt)
	if !ok {
		return nil, fmt.Errorf("no daily %s game for %q", gt, scope)
	}
	return payload, nil
}

// SetClubGames stores one scope's bundle directly.
func (s *Store) SetClubGames(scope trivia.ClubScope, bundle trivia.DailyGameBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryLocked(scope).Set(bundle, s.now(), cache.SourceAPI)
	s.persistLocked()
}

// FetchAll retrieves every scope's daily bundle in one call and replaces
// the cache, so per-club reads for the rest of the day stay local. Run at
// app start; a failure leaves the cache as-is and per-club fetching takes
// over.
func (s *Store) FetchAll(ctx context.Context) error {
	s.metrics.IncAPIFetch("all_daily_games")
	bundles, err := s.api.FetchAllDailyGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch all daily games: %w", err)
	}
	s.SetAll(bundles)
	return nil
}

// SetAll replaces every scope's bundle, the bulk analog of SetClubGames.
func (s *Store) SetAll(bundles map[trivia.ClubScope]trivia.DailyGameBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.entries = make(map[trivia.ClubScope]*cache.Entry[trivia.DailyGameBundle], len(bundles))
	for scope, bundle := range bundles {
		e := &cache.Entry[trivia.DailyGameBundle]{}
		e.Set(bundle, now, cache.SourceAPI)
		s.entries[scope] = e
	}
	s.persistLocked()
}

// ForceRefresh evicts the given scopes, or every scope when called with
// none. The no-argument form runs on detected day rollover.
func (s *Store) ForceRefresh(scopes ...trivia.ClubScope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(scopes) == 0 {
		s.entries = make(map[trivia.ClubScope]*cache.Entry[trivia.DailyGameBundle])
		if err := s.storage.Delete(storage.KeyDailyGames); err != nil {
			log.Error("Failed to drop daily games snapshot", "error", err)
		}
		return
	}
	for _, scope := range scopes {
		if e, ok := s.entries[scope]; ok {
			e.Evict()
		}
	}
	s.persistLocked()
}

// CheckRollover compares the persisted last-known date against today and,
// on mismatch, evicts everything before any read can observe yesterday's
// content. It always leaves today's marker behind.
func (s *Store) CheckRollover() bool {
	today := cache.Day(s.now())

	raw, ok, err := s.storage.Get(storage.KeyLastDay)
	if err != nil {
		log.Error("Failed to read last-day marker", "error", err)
	}
	rolled := !ok || string(raw) != today
	if rolled && ok {
		log.Info("Day rollover detected, evicting daily games", "lastDay", string(raw), "today", today)
		s.ForceRefresh()
	}
	if err := s.storage.Put(storage.KeyLastDay, []byte(today)); err != nil {
		log.Error("Failed to write last-day marker", "error", err)
	}
	return rolled
}
