package api

import (
	"context"
	"sync"

	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

// Mock is a mock implementation of the TriviaClient interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	RefreshCredentialFunc  func(refreshToken string) (string, error)
	FetchSessionFunc       func() (*SessionResponse, error)
	FetchAllAttemptsFunc   func() (map[trivia.ClubScope]trivia.ClubAttemptsBundle, error)
	FetchClubAttemptsFunc  func(scope trivia.ClubScope) (*trivia.ClubAttemptsBundle, error)
	SaveAttemptFunc        func(scope trivia.ClubScope, attempt trivia.AttemptRecord) (*trivia.AttemptRecord, error)
	FetchDailyGamesFunc    func(scope trivia.ClubScope) (*trivia.DailyGameBundle, error)
	FetchAllDailyGamesFunc func() (map[trivia.ClubScope]trivia.DailyGameBundle, error)

	// Call records
	RefreshCredentialCalls  int
	FetchSessionCalls       int
	FetchAllAttemptsCalls   int
	FetchClubAttemptsCalls  []trivia.ClubScope
	SaveAttemptCalls        []SaveAttemptRequest
	FetchDailyGamesCalls    []trivia.ClubScope
	FetchAllDailyGamesCalls int
	AccessTokens            []string
}

var _ TriviaClient = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// TotalCalls returns the total number of network calls recorded.
func (m *Mock) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RefreshCredentialCalls + m.FetchSessionCalls + m.FetchAllAttemptsCalls +
		len(m.FetchClubAttemptsCalls) + len(m.SaveAttemptCalls) +
		len(m.FetchDailyGamesCalls) + m.FetchAllDailyGamesCalls
}

func (m *Mock) SetAccessToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccessTokens = append(m.AccessTokens, token)
}

func (m *Mock) RefreshCredential(_ context.Context, refreshToken string) (string, error) {
	m.mu.Lock()
	m.RefreshCredentialCalls++
	fn := m.RefreshCredentialFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(refreshToken)
	}
	return "", nil
}

func (m *Mock) FetchSession(_ context.Context) (*SessionResponse, error) {
	m.mu.Lock()
	m.FetchSessionCalls++
	fn := m.FetchSessionFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return &SessionResponse{}, nil
}

func (m *Mock) FetchAllAttempts(_ context.Context) (map[trivia.ClubScope]trivia.ClubAttemptsBundle, error) {
	m.mu.Lock()
	m.FetchAllAttemptsCalls++
	fn := m.FetchAllAttemptsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return map[trivia.ClubScope]trivia.ClubAttemptsBundle{}, nil
}

func (m *Mock) FetchClubAttempts(_ context.Context, scope trivia.ClubScope) (*trivia.ClubAttemptsBundle, error) {
	m.mu.Lock()
	m.FetchClubAttemptsCalls = append(m.FetchClubAttemptsCalls, scope)
	fn := m.FetchClubAttemptsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(scope)
	}
	bundle := trivia.NewBundle()
	return &bundle, nil
}

func (m *Mock) SaveAttempt(_ context.Context, scope trivia.ClubScope, attempt trivia.AttemptRecord) (*trivia.AttemptRecord, error) {
	m.mu.Lock()
	m.SaveAttemptCalls = append(m.SaveAttemptCalls, SaveAttemptRequest{ClubScope: scope, Attempt: attempt})
	fn := m.SaveAttemptFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(scope, attempt)
	}
	return &attempt, nil
}

func (m *Mock) FetchDailyGames(_ context.Context, scope trivia.ClubScope) (*trivia.DailyGameBundle, error) {
	m.mu.Lock()
	m.FetchDailyGamesCalls = append(m.FetchDailyGamesCalls, scope)
	fn := m.FetchDailyGamesFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(scope)
	}
	return &trivia.DailyGameBundle{}, nil
}

func (m *Mock) FetchAllDailyGames(_ context.Context) (map[trivia.ClubScope]trivia.DailyGameBundle, error) {
	m.mu.Lock()
	m.FetchAllDailyGamesCalls++
	fn := m.FetchAllDailyGamesFunc
	m.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return map[trivia.ClubScope]trivia.DailyGameBundle{}, nil
}
