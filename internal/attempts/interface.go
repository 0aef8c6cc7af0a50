package attempts

import (
	"context"

	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

// Store is the read/write surface shared by the guest-local and
// server-backed attempt stores. The session layer resolves one Store per
// session; callers never branch on authentication state themselves.
type Store interface {
	// ClubData returns the attempt bundle for a scope. A missing or
	// expired bundle yields an empty one for the local store, or triggers
	// a fetch for the server store.
	ClubData(ctx context.Context, scope trivia.ClubScope) (trivia.ClubAttemptsBundle, error)
	// PlayedToday reports whether the stored attempt for (scope, game
	// type) falls on today's local calendar date.
	PlayedToday(ctx context.Context, scope trivia.ClubScope, gt trivia.GameType) (bool, error)
	// LastAttempt returns the latest attempt for (scope, game type), or
	// nil when none is known.
	LastAttempt(ctx context.Context, scope trivia.ClubScope, gt trivia.GameType) (*trivia.AttemptRecord, error)
	// RecordAttempt upserts one attempt, recomputing streak and record
	// score, and returns the stored record.
	RecordAttempt(ctx context.Context, scope trivia.ClubScope, rec trivia.AttemptRecord) (*trivia.AttemptRecord, error)
}
