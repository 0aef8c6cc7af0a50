package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubtrivia/clubtrivia/internal/api"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/games/session", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(api.SessionResponse{
			User: trivia.UserSession{ID: "u1", Points: 120},
			AttemptsByClub: map[trivia.ClubScope]trivia.ClubAttemptsBundle{
				"club123": {TotalGames: 4},
			},
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "device-1")
	client.SetAccessToken("token-1")

	resp, err := client.FetchSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, 4, resp.AttemptsByClub["club123"].TotalGames)
}

func TestDeviceIDHeaderWhenUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "device-1", r.Header.Get("X-Device-ID"))
		json.NewEncoder(w).Encode(trivia.DailyGameBundle{})
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "device-1")
	_, err := client.FetchDailyGames(context.Background(), trivia.ScopeGlobal)
	require.NoError(t, err)
}

func TestNonOKStatusIsTypedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "device-1")
	_, err := client.FetchAllAttempts(context.Background())
	require.Error(t, err)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestRefreshCredentialInstallsToken(t *testing.T) {
	var sawAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			var req api.RefreshRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "refresh-1", req.RefreshToken)
			json.NewEncoder(w).Encode(api.RefreshResponse{AccessToken: "access-2"})
		case "/api/games/attempts":
			sawAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(api.AllAttemptsResponse{})
		}
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "device-1")
	token, err := client.RefreshCredential(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)

	_, err = client.FetchAllAttempts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-2", sawAuth)
}

func TestRefreshCredentialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusForbidden)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "device-1")
	_, err := client.RefreshCredential(context.Background(), "refresh-1")
	assert.Error(t, err)
}

func TestSaveAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/games/attempt", r.URL.Path)

		var req api.SaveAttemptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, trivia.ClubScope("club123"), req.ClubScope)

		saved := req.Attempt
		saved.RecordScore = 99
		json.NewEncoder(w).Encode(saved)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "device-1")
	saved, err := client.SaveAttempt(context.Background(), "club123", trivia.AttemptRecord{
		GameType: trivia.GameShirt, Won: true, Score: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 99, saved.RecordScore)
}
