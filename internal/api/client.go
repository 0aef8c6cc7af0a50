package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
)

// Client is the HTTP client for the trivia backend.
type Client struct {
	httpClient *http.Client
	BaseURL    string

	mu          sync.RWMutex
	accessToken string
	deviceID    string
}

var _ TriviaClient = (*Client)(nil)

// NewClient creates a new backend client. deviceID identifies this install
// on unauthenticated calls.
func NewClient(baseURL, deviceID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		deviceID:   deviceID,
	}
}

// SetAccessToken installs the bearer token used on subsequent calls.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	c.mu.RLock()
	token := c.accessToken
	deviceID := c.deviceID
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}

	log.Debug("Requesting trivia backend", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		log.Error("Received non-OK HTTP status from trivia backend", "status", resp.StatusCode, "path", path)
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RefreshCredential exchanges the refresh token for a new access token.
// On success the new token is installed on the client and returned.
func (c *Client) RefreshCredential(ctx context.Context, refreshToken string) (string, error) {
	var resp RefreshResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return "", fmt.Errorf("credential refresh failed: %w", err)
	}
	c.SetAccessToken(resp.AccessToken)
	return resp.AccessToken, nil
}

func (c *Client) FetchSession(ctx context.Context) (*SessionResponse, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/games/session", nil, &resp); err != nil {
		return nil, fmt.Errorf("error fetching session: %w", err)
	}
	log.Debug("Fetched session", "user", resp.User.ID, "clubs", len(resp.AttemptsByClub))
	return &resp, nil
}

func (c *Client) FetchAllAttempts(ctx context.Context) (map[trivia.ClubScope]trivia.ClubAttemptsBundle, error) {
	var resp AllAttemptsResponse
	if err := c.do(ctx, http.MethodGet, "/api/games/attempts", nil, &resp); err != nil {
		return nil, fmt.Errorf("error fetching all attempts: %w", err)
	}
	log.Debug("Fetched all attempts", "clubs", len(resp.AttemptsByClub))
	return resp.AttemptsByClub, nil
}

func (c *Client) FetchClubAttempts(ctx context.Context, scope trivia.ClubScope) (*trivia.ClubAttemptsBundle, error) {
	var bundle trivia.ClubAttemptsBundle
	path := "/api/games/attempts/" + url.PathEscape(string(scope))
	if err := c.do(ctx, http.MethodGet, path, nil, &bundle); err != nil {
		return nil, fmt.Errorf("error fetching attempts for %q: %w", scope, err)
	}
	return &bundle, nil
}

func (c *Client) SaveAttempt(ctx context.Context, scope trivia.ClubScope, attempt trivia.AttemptRecord) (*trivia.AttemptRecord, error) {
	var saved trivia.AttemptRecord
	req := SaveAttemptRequest{ClubScope: scope, Attempt: attempt}
	if err := c.do(ctx, http.MethodPost, "/api/games/attempt", req, &saved); err != nil {
		return nil, fmt.Errorf("error saving attempt: %w", err)
	}
	log.Debug("Saved attempt", "scope", scope, "gameType", attempt.GameType, "won", attempt.Won)
	return &saved, nil
}

func (c *Client) FetchDailyGames(ctx context.Context, scope trivia.ClubScope) (*trivia.DailyGameBundle, error) {
	var bundle trivia.DailyGameBundle
	path := "/api/games/daily/" + url.PathEscape(string(scope))
	if err := c.do(ctx, http.MethodGet, path, nil, &bundle); err != nil {
		return nil, fmt.Errorf("error fetching daily games for %q: %w", scope, err)
	}
	return &bundle, nil
}

func (c *Client) FetchAllDailyGames(ctx context.Context) (map[trivia.ClubScope]trivia.DailyGameBundle, error) {
	var bundles map[trivia.ClubScope]trivia.DailyGameBundle
	if err := c.do(ctx, http.MethodGet, "/api/games/daily", nil, &bundles); err != nil {
		return nil, fmt.Errorf("error fetching all daily games: %w", err)
	}
	log.Debug("Fetched all daily games", "scopes", len(bundles))
	return bundles, nil
}
