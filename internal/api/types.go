package api

import (
	"fmt"

	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

// SessionResponse is the combined profile + attempts payload returned by
// the session endpoint. It is only requested on a cold start, where both
// pieces are missing anyway.
type SessionResponse struct {
	User            trivia.UserSession                             `json:"user"`
	ClubMemberships []trivia.ClubScope                             `json:"clubMemberships"`
	AttemptsByClub  map[trivia.ClubScope]trivia.ClubAttemptsBundle `json:"attemptsByClub"`
}

// AllAttemptsResponse is the bulk attempts payload without profile data.
type AllAttemptsResponse struct {
	AttemptsByClub map[trivia.ClubScope]trivia.ClubAttemptsBundle `json:"attemptsByClub"`
}

// SaveAttemptRequest is the body posted when persisting one attempt.
type SaveAttemptRequest struct {
	ClubScope trivia.ClubScope     `json:"clubScope"`
	Attempt   trivia.AttemptRecord `json:"attempt"`
}

// RefreshRequest carries the refresh credential.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse carries the new access credential.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// APIError is returned for any non-2xx backend response, so callers can
// distinguish "no data yet" from "fetch failed".
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: received non-OK HTTP status %d", e.StatusCode)
}
