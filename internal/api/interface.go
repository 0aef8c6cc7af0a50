package api

import (
	"context"

	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

// TriviaClient defines the backend contracts the cache layer consumes. The
// endpoints themselves are owned externally; only these request/response
// shapes are relied upon.
type TriviaClient interface {
	// RefreshCredential exchanges a refresh token for a new access token
	// and installs it on the client.
	RefreshCredential(ctx context.Context, refreshToken string) (string, error)
	// SetAccessToken installs an access token for subsequent calls.
	SetAccessToken(token string)
	// FetchSession retrieves the profile and the full attempts-by-club map
	// in one response (cold-start only).
	FetchSession(ctx context.Context) (*SessionResponse, error)
	// FetchAllAttempts retrieves attempt bundles for every club the user
	// has played, without profile data.
	FetchAllAttempts(ctx context.Context) (map[trivia.ClubScope]trivia.ClubAttemptsBundle, error)
	// FetchClubAttempts retrieves the attempt bundle for one scope.
	FetchClubAttempts(ctx context.Context, scope trivia.ClubScope) (*trivia.ClubAttemptsBundle, error)
	// SaveAttempt persists one attempt; the response becomes the new
	// cached record.
	SaveAttempt(ctx context.Context, scope trivia.ClubScope, attempt trivia.AttemptRecord) (*trivia.AttemptRecord, error)
	// FetchDailyGames retrieves the game-of-the-day bundle for one scope.
	FetchDailyGames(ctx context.Context, scope trivia.ClubScope) (*trivia.DailyGameBundle, error)
	// FetchAllDailyGames retrieves every scope's daily bundle at once.
	FetchAllDailyGames(ctx context.Context) (map[trivia.ClubScope]trivia.DailyGameBundle, error)
}
