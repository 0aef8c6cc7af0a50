package games

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clubtrivia/clubtrivia/internal/api"
	"github.com/clubtrivia/clubtrivia/internal/cache"
	"github.com/clubtrivia/clubtrivia/internal/metrics"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreForTest(t *testing.T) (*Store, *api.Mock, *storage.Memory) {
	t.Helper()
	mock := api.NewMock()
	mem := storage.NewMemory()
	store := NewStore(mock, mem, metrics.NewMock())
	return store, mock, mem
}

func shirtBundle(payload string) trivia.DailyGameBundle {
	return trivia.DailyGameBundle{ShirtGame: json.RawMessage(payload)}
}

func TestClubGamesCachesFetch(t *testing.T) {
	store, mock, _ := newStoreForTest(t)
	ctx := context.Background()

	mock.FetchDailyGamesFunc = func(scope trivia.ClubScope) (*trivia.DailyGameBundle, error) {
		b := shirtBundle(`{"answer":"home-1987"}`)
		return &b, nil
	}

	bundle, err := store.ClubGames(ctx, "club123")
	require.NoError(t, err)
	payload, ok := bundle.Game(trivia.GameShirt)
	require.True(t, ok)
	assert.JSONEq(t, `{"answer":"home-1987"}`, string(payload))

	_, err = store.ClubGames(ctx, "club123")
	require.NoError(t, err)
	assert.Len(t, mock.FetchDailyGamesCalls, 1)
}

func TestConcurrentClubGamesIssueOneFetch(t *testing.T) {
	store, mock, _ := newStoreForTest(t)

	gate := make(chan struct{})
	mock.FetchDailyGamesFunc = func(scope trivia.ClubScope) (*trivia.DailyGameBundle, error) {
		<-gate
		b := shirtBundle(`{}`)
		return &b, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ClubGames(context.Background(), trivia.ScopeGlobal)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Len(t, mock.FetchDailyGamesCalls, 1)
}

func TestGame(t *testing.T) {
	store, _, _ := newStoreForTest(t)
	store.SetClubGames("club123", trivia.DailyGameBundle{
		SongGame: json.RawMessage(`{"clip":"anthem.mp3"}`),
	})

	payload, err := store.Game(context.Background(), "club123", trivia.GameSong)
	require.NoError(t, err)
	assert.JSONEq(t, `{"clip":"anthem.mp3"}`, string(payload))

	t.Run("game types without daily content error", func(t *testing.T) {
		_, err := store.Game(context.Background(), "club123", trivia.GameLeague)
		assert.Error(t, err)
	})
}

func TestForceRefresh(t *testing.T) {
	t.Run("single scope", func(t *testing.T) {
		store, mock, _ := newStoreForTest(t)
		store.SetClubGames("club123", shirtBundle(`{}`))
		store.SetClubGames("club456", shirtBundle(`{}`))

		store.ForceRefresh("club123")

		_, err := store.ClubGames(context.Background(), "club456")
		require.NoError(t, err)
		assert.Empty(t, mock.FetchDailyGamesCalls)

		_, err = store.ClubGames(context.Background(), "club123")
		require.NoError(t, err)
		assert.Equal(t, []trivia.ClubScope{"club123"}, mock.FetchDailyGamesCalls)
	})

	t.Run("all scopes", func(t *testing.T) {
		store, mock, mem := newStoreForTest(t)
		store.SetClubGames("club123", shirtBundle(`{}`))
		store.SetClubGames("club456", shirtBundle(`{}`))

		store.ForceRefresh()

		_, ok, err := mem.Get(storage.KeyDailyGames)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.ClubGames(context.Background(), "club123")
		require.NoError(t, err)
		assert.Len(t, mock.FetchDailyGamesCalls, 1)
	})
}

func TestSetAll(t *testing.T) {
	store, mock, _ := newStoreForTest(t)

	store.SetAll(map[trivia.ClubScope]trivia.DailyGameBundle{
		"club123":          shirtBundle(`{"a":1}`),
		trivia.ScopeGlobal: {HistoryGame: json.RawMessage(`{"year":1954}`)},
	})

	bundle, err := store.ClubGames(context.Background(), trivia.ScopeGlobal)
	require.NoError(t, err)
	_, ok := bundle.Game(trivia.GameHistory)
	assert.True(t, ok)
	assert.Empty(t, mock.FetchDailyGamesCalls)
}

func TestFetchAll(t *testing.T) {
	store, mock, _ := newStoreForTest(t)

	mock.FetchAllDailyGamesFunc = func() (map[trivia.ClubScope]trivia.DailyGameBundle, error) {
		return map[trivia.ClubScope]trivia.DailyGameBundle{
			"club123":          shirtBundle(`{"a":1}`),
			trivia.ScopeGlobal: {HistoryGame: json.RawMessage(`{"year":1954}`)},
		}, nil
	}

	require.NoError(t, store.FetchAll(context.Background()))
	assert.Equal(t, 1, mock.FetchAllDailyGamesCalls)

	// Every warmed scope is served without a per-club fetch.
	for _, scope := range []trivia.ClubScope{"club123", trivia.ScopeGlobal} {
		bundle, err := store.ClubGames(context.Background(), scope)
		require.NoError(t, err)
		assert.False(t, bundle.Empty())
	}
	assert.Empty(t, mock.FetchDailyGamesCalls)

	t.Run("failure leaves the cache untouched", func(t *testing.T) {
		store, mock, _ := newStoreForTest(t)
		store.SetClubGames("club123", shirtBundle(`{}`))

		mock.FetchAllDailyGamesFunc = func() (map[trivia.ClubScope]trivia.DailyGameBundle, error) {
			return nil, errors.New("boom")
		}
		require.Error(t, store.FetchAll(context.Background()))

		_, err := store.ClubGames(context.Background(), "club123")
		require.NoError(t, err)
		assert.Empty(t, mock.FetchDailyGamesCalls)
	})
}

func TestSnapshotWarmLoad(t *testing.T) {
	mock := api.NewMock()
	mem := storage.NewMemory()
	first := NewStore(mock, mem, metrics.NewMock())
	first.SetClubGames("club123", shirtBundle(`{"a":1}`))

	// A second store on the same device serves today's bundle without a fetch.
	mock2 := api.NewMock()
	second := NewStore(mock2, mem, metrics.NewMock())
	bundle, err := second.ClubGames(context.Background(), "club123")
	require.NoError(t, err)
	_, ok := bundle.Game(trivia.GameShirt)
	assert.True(t, ok)
	assert.Zero(t, mock.TotalCalls())
	assert.Zero(t, mock2.TotalCalls())
}

func TestCorruptedSnapshotIsIgnored(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Put(storage.KeyDailyGames, []byte("definitely not msgpack")))

	mock := api.NewMock()
	store := NewStore(mock, mem, metrics.NewMock())

	mock.FetchDailyGamesFunc = func(scope trivia.ClubScope) (*trivia.DailyGameBundle, error) {
		b := shirtBundle(`{}`)
		return &b, nil
	}
	_, err := store.ClubGames(context.Background(), "club123")
	require.NoError(t, err)
	assert.Len(t, mock.FetchDailyGamesCalls, 1)
}

func TestCheckRollover(t *testing.T) {
	t.Run("mismatch evicts everything before any read", func(t *testing.T) {
		store, mock, mem := newStoreForTest(t)
		store.SetClubGames("club123", shirtBundle(`{}`))
		require.NoError(t, mem.Put(storage.KeyLastDay, []byte("2020-01-01")))

		assert.True(t, store.CheckRollover())

		raw, ok, err := mem.Get(storage.KeyLastDay)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, cache.Day(time.Now()), string(raw))

		_, err = store.ClubGames(context.Background(), "club123")
		require.NoError(t, err)
		assert.Len(t, mock.FetchDailyGamesCalls, 1)
	})

	t.Run("same day leaves the cache alone", func(t *testing.T) {
		store, mock, mem := newStoreForTest(t)
		store.SetClubGames("club123", shirtBundle(`{}`))
		require.NoError(t, mem.Put(storage.KeyLastDay, []byte(cache.Day(time.Now()))))

		assert.False(t, store.CheckRollover())

		_, err := store.ClubGames(context.Background(), "club123")
		require.NoError(t, err)
		assert.Empty(t, mock.FetchDailyGamesCalls)
	})

	t.Run("first run stamps the marker without eviction", func(t *testing.T) {
		store, _, mem := newStoreForTest(t)
		assert.True(t, store.CheckRollover())

		_, ok, err := mem.Get(storage.KeyLastDay)
		require.NoError(t, err)
		assert.True(t, ok)

		// The cache was empty anyway; nothing to evict.
		_ = store
	})
}

func TestFailedFetchPropagates(t *testing.T) {
	store, mock, _ := newStoreForTest(t)
	mock.FetchDailyGamesFunc = func(scope trivia.ClubScope) (*trivia.DailyGameBundle, error) {
		return nil, errors.New("boom")
	}
	_, err := store.ClubGames(context.Background(), "club123")
	assert.Error(t, err)
}
