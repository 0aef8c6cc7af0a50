// Package hydrate reconciles stored credentials, on-device snapshots and
// remote state into one consistent in-memory picture at application start.
package hydrate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/clubtrivia/clubtrivia/internal/api"
	"github.com/clubtrivia/clubtrivia/internal/attempts"
	"github.com/clubtrivia/clubtrivia/internal/games"
	"github.com/clubtrivia/clubtrivia/internal/metrics"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

// Hydration outcomes recorded in metrics.
const (
	outcomeGuest         = "guest"
	outcomeAuthenticated = "authenticated"
	outcomeDegraded      = "degraded"
)

// Orchestrator runs the one-shot startup procedure. It owns the session
// lifecycle: nothing else mutates the in-memory session.
type Orchestrator struct {
	api     api.TriviaClient
	storage storage.Store
	server  *attempts.ServerStore
	local   *attempts.LocalStore
	games   *games.Store
	metrics metrics.Metrics

	mu      sync.Mutex
	ran     bool
	session Session
}

// New wires the orchestrator. Stores are injected so tests and multiple
// instances (e.g. server-side rendering) get their own lifecycle.
func New(client api.TriviaClient, st storage.Store, server *attempts.ServerStore, local *attempts.LocalStore, g *games.Store, m metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		api:     client,
		storage: st,
		server:  server,
		local:   local,
		games:   g,
		metrics: m,
		session: Guest{},
	}
}

// Session returns the current resolved session (Guest before Run).
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Attempts returns the store matching the resolved session: server-backed
// when authenticated, device-local otherwise. Resolving here once keeps
// the guest/authenticated branch out of every call site.
func (o *Orchestrator) Attempts() attempts.Store {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.session.(type) {
	case Authenticated:
		return o.server
	default:
		return o.local
	}
}

// Logout clears the session and every server-derived snapshot. Guest
// progress stays.
func (o *Orchestrator) Logout() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearAuthState()
	o.ran = false
}

func (o *Orchestrator) clearAuthState() {
	o.session = Guest{}
	o.server.Reset()
	for _, key := range []string{storage.KeySession, storage.KeyAttempts, storage.KeyAccessToken, storage.KeyRefreshToken} {
		if err := o.storage.Delete(key); err != nil {
			log.Error("Failed to clear storage key", "key", key, "error", err)
		}
	}
}

// Run executes the hydration procedure exactly once; later calls return
// the already-resolved session. Any unexpected failure degrades to guest
// rather than surfacing into the render path.
func (o *Orchestrator) Run(ctx context.Context) (session Session, err error) {
	o.mu.Lock()
	if o.ran {
		s := o.session
		o.mu.Unlock()
		return s, nil
	}
	o.ran = true
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Hydration panicked, degrading to guest", "panic", r)
			o.mu.Lock()
			o.session = Guest{}
			o.server.Reset()
			o.mu.Unlock()
			o.metrics.IncHydrationRun(outcomeDegraded)
			session = Guest{}
			err = fmt.Errorf("hydration failed: %v", r)
		}
	}()

	session, err = o.run(ctx)
	o.mu.Lock()
	o.session = session
	o.mu.Unlock()

	switch {
	case err != nil:
		o.metrics.IncHydrationRun(outcomeDegraded)
	case IsGuest(session):
		o.metrics.IncHydrationRun(outcomeGuest)
	default:
		o.metrics.IncHydrationRun(outcomeAuthenticated)
	}
	return session, err
}

func (o *Orchestrator) run(ctx context.Context) (Session, error) {
	// Day rollover is handled before anything reads game content.
	o.games.CheckRollover()

	accessToken := o.readKey(storage.KeyAccessToken)
	refreshToken := o.readKey(storage.KeyRefreshToken)

	// Step 1: no credentials at all. Guest progress on-device is kept.
	if accessToken == "" && refreshToken == "" {
		log.Info("No credentials, starting as guest")
		return Guest{}, nil
	}

	// Step 2: refresh the access credential if it is missing. A failed
	// refresh means the server-backed cache can no longer be trusted.
	if accessToken == "" {
		o.metrics.IncAPIFetch("refresh_credential")
		newToken, err := o.api.RefreshCredential(ctx, refreshToken)
		if err != nil {
			log.Warn("Credential refresh failed, starting as guest", "error", err)
			o.server.Reset()
			return Guest{}, nil
		}
		accessToken = newToken
		if err := o.storage.Put(storage.KeyAccessToken, []byte(newToken)); err != nil {
			log.Error("Failed to persist refreshed access token", "error", err)
		}
	}
	o.api.SetAccessToken(accessToken)

	// Step 3: an access credential is available.
	user, haveSession := o.loadSessionSnapshot()
	if !haveSession {
		return o.coldStart(ctx)
	}

	// Step 3b: trust the persisted session, fill in attempts only if
	// genuinely missing.
	log.Info("Restored session from device snapshot", "user", user.ID)
	switch o.server.LoadSnapshot() {
	case attempts.SnapshotLoaded:
		// Warm start, zero network calls.
	case attempts.SnapshotMissing, attempts.SnapshotStale:
		o.metrics.IncAPIFetch("all_attempts")
		bundles, err := o.api.FetchAllAttempts(ctx)
		if err != nil {
			// Transient; the store stays empty and per-club reads retry.
			log.Warn("Bulk attempts fetch failed, leaving store empty", "error", err)
		} else {
			o.server.SetAll(bundles)
		}
	case attempts.SnapshotInvalid:
		// Left in place for the store's lazy per-club repair.
	}
	return Authenticated{User: user}, nil
}

// coldStart runs the combined session+attempts fetch used when no session
// snapshot exists. Failure falls back to guest semantics.
func (o *Orchestrator) coldStart(ctx context.Context) (Session, error) {
	o.metrics.IncAPIFetch("session")
	resp, err := o.api.FetchSession(ctx)
	if err != nil {
		log.Warn("Session fetch failed, starting as guest", "error", err)
		// Session and attempts are cleared; credentials are kept so the
		// next load can retry.
		o.server.Reset()
		for _, key := range []string{storage.KeySession, storage.KeyAttempts} {
			if derr := o.storage.Delete(key); derr != nil {
				log.Error("Failed to clear storage key", "key", key, "error", derr)
			}
		}
		return Guest{}, fmt.Errorf("session fetch failed: %w", err)
	}

	if raw, err := json.Marshal(resp.User); err != nil {
		log.Error("Failed to encode session snapshot", "error", err)
	} else if err := o.storage.Put(storage.KeySession, raw); err != nil {
		log.Error("Failed to persist session snapshot", "error", err)
	}

	o.server.SetAll(resp.AttemptsByClub)
	log.Info("Hydrated from combined session fetch", "user", resp.User.ID, "clubs", len(resp.AttemptsByClub))
	return Authenticated{User: resp.User}, nil
}

// loadSessionSnapshot reads the persisted user session. Corrupted data is
// a miss, not a crash.
func (o *Orchestrator) loadSessionSnapshot() (trivia.UserSession, bool) {
	raw, ok, err := o.storage.Get(storage.KeySession)
	if err != nil {
		log.Error("Failed to read session snapshot", "error", err)
		return trivia.UserSession{}, false
	}
	if !ok {
		return trivia.UserSession{}, false
	}
	var user trivia.UserSession
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		log.Warn("Corrupted session snapshot, ignoring", "error", err)
		return trivia.UserSession{}, false
	}
	return user, true
}

func (o *Orchestrator) readKey(key string) string {
	raw, ok, err := o.storage.Get(key)
	if err != nil {
		log.Error("Failed to read storage key", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return string(raw)
}
