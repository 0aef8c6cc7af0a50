package trivia

import (
	"encoding/json"
	"fmt"
	"time"
)

// GameType identifies one of the daily trivia game variants.
type GameType string

const (
	GameNational    GameType = "national"
	GameLeague      GameType = "league"
	GameShirt       GameType = "shirt"
	GamePlayer      GameType = "player"
	GameHistory     GameType = "history"
	GameVideo       GameType = "video"
	GameCareer      GameType = "career"
	GameAppearances GameType = "appearances"
	GameGoals       GameType = "goals"
	GameSong        GameType = "song"
)

// GameTypes lists every known game type.
var GameTypes = []GameType{
	GameNational, GameLeague, GameShirt, GamePlayer, GameHistory,
	GameVideo, GameCareer, GameAppearances, GameGoals, GameSong,
}

// ParseGameType validates a raw game-type string.
func ParseGameType(s string) (GameType, error) {
	for _, gt := range GameTypes {
		if string(gt) == s {
			return gt, nil
		}
	}
	return "", fmt.Errorf("unknown game type %q", s)
}

// ClubScope keys every cache: a club identifier, or ScopeGlobal for
// cross-club games.
type ClubScope string

// ScopeGlobal is the sentinel scope for games not tied to a club.
const ScopeGlobal ClubScope = "global"

// AttemptRecord is one play result for a (club, game type, day).
type AttemptRecord struct {
	GameType       GameType       `json:"gameType"`
	Won            bool           `json:"won"`
	Score          int            `json:"score"`
	TimeUsed       int            `json:"timeUsed"`
	LivesRemaining int            `json:"livesRemaining"`
	GameMode       string         `json:"gameMode"`
	Streak         int            `json:"streak"`
	RecordScore    int            `json:"recordScore"`
	GameData       map[string]any `json:"gameData,omitempty"`
	Date           time.Time      `json:"date"`
}

// ClubAttemptsBundle holds the latest attempt per game type for one scope.
type ClubAttemptsBundle struct {
	LastAttempts map[GameType]AttemptRecord `json:"lastAttempts"`
	TotalGames   int                        `json:"totalGames"`
	LastUpdated  time.Time                  `json:"lastUpdated"`
}

// NewBundle returns an empty bundle with an allocated attempts map.
func NewBundle() ClubAttemptsBundle {
	return ClubAttemptsBundle{LastAttempts: make(map[GameType]AttemptRecord)}
}

// Clone deep-copies the bundle so callers can snapshot it before an
// optimistic mutation.
func (b ClubAttemptsBundle) Clone() ClubAttemptsBundle {
	out := ClubAttemptsBundle{
		LastAttempts: make(map[GameType]AttemptRecord, len(b.LastAttempts)),
		TotalGames:   b.TotalGames,
		LastUpdated:  b.LastUpdated,
	}
	for gt, rec := range b.LastAttempts {
		if rec.GameData != nil {
			data := make(map[string]any, len(rec.GameData))
			for k, v := range rec.GameData {
				data[k] = v
			}
			rec.GameData = data
		}
		out.LastAttempts[gt] = rec
	}
	return out
}

// DailyGameBundle is the set of game-of-the-day definitions for one scope.
// The payloads are opaque to the cache layer; they are content to play, not
// results.
type DailyGameBundle struct {
	ShirtGame   json.RawMessage `json:"shirtGame,omitempty"`
	CareerGame  json.RawMessage `json:"careerGame,omitempty"`
	PlayerGame  json.RawMessage `json:"playerGame,omitempty"`
	VideoGame   json.RawMessage `json:"videoGame,omitempty"`
	SongGame    json.RawMessage `json:"songGame,omitempty"`
	HistoryGame json.RawMessage `json:"historyGame,omitempty"`
}

// Game returns the daily payload for the given game type. Not every game
// type has daily content; ok is false for those.
func (b DailyGameBundle) Game(gt GameType) (json.RawMessage, bool) {
	var payload json.RawMessage
	switch gt {
	case GameShirt:
		payload = b.ShirtGame
	case GameCareer:
		payload = b.CareerGame
	case GamePlayer:
		payload = b.PlayerGame
	case GameVideo:
		payload = b.VideoGame
	case GameSong:
		payload = b.SongGame
	case GameHistory:
		payload = b.HistoryGame
	default:
		return nil, false
	}
	return payload, len(payload) > 0
}

// Empty reports whether the bundle carries no daily content at all.
func (b DailyGameBundle) Empty() bool {
	for _, gt := range GameTypes {
		if _, ok := b.Game(gt); ok {
			return false
		}
	}
	return true
}

// UserSession is the authenticated user's profile as the cache layer sees
// it. It is created on successful authentication or session fetch and
// cleared on logout or failed token refresh.
type UserSession struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Points      int             `json:"points"`
	ClubMembers []ClubScope     `json:"clubMembers"`
	RawProfile  json.RawMessage `json:"rawProfile,omitempty"`
}
