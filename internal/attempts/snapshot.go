package attempts

import (
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/clubtrivia/clubtrivia/internal/cache"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

const attemptsSnapshotVersion = 1

// attemptsSnapshot is the on-device mirror of the server-backed store,
// wrapped with the bulk-fetch flag and the day it belongs to.
type attemptsSnapshot struct {
	Version    int                                            `json:"version"`
	AllFetched bool                                           `json:"allAttemptsFetched"`
	Day        string                                         `json:"day"`
	Clubs      map[trivia.ClubScope]trivia.ClubAttemptsBundle `json:"clubs"`
}

// SnapshotState describes what LoadSnapshot found on device.
type SnapshotState int

const (
	// SnapshotMissing means no snapshot exists; a bulk fetch is needed.
	SnapshotMissing SnapshotState = iota
	// SnapshotInvalid means a snapshot exists but is empty or structurally
	// broken. It is not trusted and not deleted; lazy per-club fetching
	// repairs it.
	SnapshotInvalid
	// SnapshotStale means the snapshot is from a previous day. Treated
	// like missing: a fresh bulk fetch re-establishes today's state.
	SnapshotStale
	// SnapshotLoaded means the store was populated without a network call.
	SnapshotLoaded
)

// ValidSnapshot reports whether raw parses into a usable attempts
// snapshot. Malformed input never panics; it is just not valid.
func ValidSnapshot(raw []byte) bool {
	var snap attemptsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return false
	}
	return len(snap.Clubs) > 0
}

// LoadSnapshot populates the store from the persisted mirror when it is
// usable and belongs to today.
func (s *ServerStore) LoadSnapshot() SnapshotState {
	raw, ok, err := s.storage.Get(storage.KeyAttempts)
	if err != nil {
		log.Error("Failed to read attempts snapshot", "error", err)
		return SnapshotMissing
	}
	if !ok {
		return SnapshotMissing
	}

	var snap attemptsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Warn("Corrupted attempts snapshot, leaving for lazy repair", "error", err)
		return SnapshotInvalid
	}
	if len(snap.Clubs) == 0 {
		log.Warn("Attempts snapshot has no clubs, leaving for lazy repair")
		return SnapshotInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if snap.Day != cache.Day(now) {
		log.Info("Attempts snapshot is from a previous day", "snapshotDay", snap.Day)
		return SnapshotStale
	}

	s.entries = make(map[trivia.ClubScope]*cache.Entry[trivia.ClubAttemptsBundle], len(snap.Clubs))
	for scope, bundle := range snap.Clubs {
		e := &cache.Entry[trivia.ClubAttemptsBundle]{}
		e.Set(bundle.Clone(), now, cache.SourceLocal)
		s.entries[scope] = e
	}
	if snap.AllFetched {
		s.allFetchedDay = snap.Day
	}
	log.Info("Loaded attempts snapshot", "clubs", len(snap.Clubs), "allFetched", snap.AllFetched)
	return SnapshotLoaded
}

// persistLocked writes the full mirror under the attempts key. Callers
// must hold s.mu.
func (s *ServerStore) persistLocked() {
	now := s.now()
	snap := attemptsSnapshot{
		Version:    attemptsSnapshotVersion,
		AllFetched: s.allFetchedDay == cache.Day(now),
		Day:        cache.Day(now),
		Clubs:      make(map[trivia.ClubScope]trivia.ClubAttemptsBundle, len(s.entries)),
	}
	for scope, e := range s.entries {
		if bundle, ok := e.Get(now); ok {
			snap.Clubs[scope] = bundle
		}
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		log.Error("Failed to encode attempts snapshot", "error", err)
		return
	}
	if err := s.storage.Put(storage.KeyAttempts, raw); err != nil {
		log.Error("Failed to persist attempts snapshot", "error", err)
	}
}
