package attempts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubtrivia/clubtrivia/internal/metrics"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

const guestSnapshotVersion = 1

// guestSnapshot is the on-device shape for guest attempts. The version
// field exists so future shape changes go through an explicit migration
// instead of shape-sniffing.
type guestSnapshot struct {
	Version int                                            `json:"version"`
	Clubs   map[trivia.ClubScope]trivia.ClubAttemptsBundle `json:"clubs"`
}

// LocalStore tracks attempts for anonymous visitors entirely on-device.
// It gives a guest the same played-today / streak / record experience as a
// signed-in user; the data survives reloads but is not shared across
// devices. Login never touches this store.
type LocalStore struct {
	storage storage.Store
	metrics metrics.Metrics
	now     func() time.Time
	mu      sync.Mutex
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a guest attempt store backed by device storage.
func NewLocalStore(st storage.Store, m metrics.Metrics) *LocalStore {
	return &LocalStore{
		storage: st,
		metrics: m,
		now:     time.Now,
	}
}

// load reads the persisted snapshot. Unreadable or structurally invalid
// data degrades to an empty snapshot; a corrupted record is never treated
// as "played today".
func (s *LocalStore) load() guestSnapshot {
	empty := guestSnapshot{Version: guestSnapshotVersion, Clubs: make(map[trivia.ClubScope]trivia.ClubAttemptsBundle)}

	raw, ok, err := s.storage.Get(storage.KeyGuestAttempts)
	if err != nil {
		log.Error("Failed to read guest attempts snapshot", "error", err)
		return empty
	}
	if !ok {
		return empty
	}

	var snap guestSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Error("Corrupted guest attempts snapshot, degrading to empty", "error", err)
		return empty
	}
	if snap.Clubs == nil {
		log.Warn("Guest attempts snapshot has no clubs map, degrading to empty")
		return empty
	}
	return snap
}

func (s *LocalStore) persist(snap guestSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		log.Error("Failed to encode guest attempts snapshot", "error", err)
		return
	}
	if err := s.storage.Put(storage.KeyGuestAttempts, raw); err != nil {
		log.Error("Failed to persist guest attempts snapshot", "error", err)
	}
}

func (s *LocalStore) ClubData(_ context.Context, scope trivia.ClubScope) (trivia.ClubAttemptsBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.load()
	bundle, ok := snap.Clubs[scope]
	if !ok {
		s.metrics.IncCacheMiss("local_attempts")
		return trivia.NewBundle(), nil
	}
	s.metrics.IncCacheHit("local_attempts")
	return bundle.Clone(), nil
}

func (s *LocalStore) PlayedToday(ctx context.Context, scope trivia.ClubScope, gt trivia.GameType) (bool, error) {
	rec, err := s.LastAttempt(ctx, scope, gt)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.PlayedOn(s.now()), nil
}

func (s *LocalStore) LastAttempt(_ context.Context, scope trivia.ClubScope, gt trivia.GameType) (*trivia.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.load()
	bundle, ok := snap.Clubs[scope]
	if !ok {
		return nil, nil
	}
	rec, ok := bundle.LastAttempts[gt]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// RecordAttempt upserts the record and persists the full snapshot
// synchronously before returning.
func (s *LocalStore) RecordAttempt(_ context.Context, scope trivia.ClubScope, rec trivia.AttemptRecord) (*trivia.AttemptRecord, error) {
	if _, err := trivia.ParseGameType(string(rec.GameType)); err != nil {
		return nil, fmt.Errorf("rejecting attempt: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	snap := s.load()
	bundle, ok := snap.Clubs[scope]
	if !ok {
		bundle = trivia.NewBundle()
	}

	var prev *trivia.AttemptRecord
	if p, ok := bundle.LastAttempts[rec.GameType]; ok {
		prev = &p
	}
	next := trivia.NextAttempt(prev, rec, now)

	bundle.LastAttempts[rec.GameType] = next
	bundle.TotalGames++
	bundle.LastUpdated = now
	snap.Clubs[scope] = bundle

	s.persist(snap)
	log.Debug("Recorded guest attempt", "scope", scope, "gameType", next.GameType, "won", next.Won, "streak", next.Streak)
	return &next, nil
}
