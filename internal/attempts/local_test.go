package attempts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clubtrivia/clubtrivia/internal/metrics"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/clubtrivia/clubtrivia/internal/trivia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalForTest(t *testing.T) (*LocalStore, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	store := NewLocalStore(mem, metrics.NewMock())
	return store, mem
}

func TestLocalEmptyBundleWhenAbsent(t *testing.T) {
	store, _ := newLocalForTest(t)

	bundle, err := store.ClubData(context.Background(), "club123")
	require.NoError(t, err)
	assert.Equal(t, 0, bundle.TotalGames)
	assert.Empty(t, bundle.LastAttempts)
}

func TestLocalCorruptedSnapshotDegradesToEmpty(t *testing.T) {
	store, mem := newLocalForTest(t)
	ctx := context.Background()

	for _, raw := range []string{"not json", "null", `{"clubs":[]}`, `[1,2,3]`} {
		require.NoError(t, mem.Put(storage.KeyGuestAttempts, []byte(raw)))

		bundle, err := store.ClubData(ctx, "club123")
		require.NoError(t, err, "raw=%s", raw)
		assert.Equal(t, 0, bundle.TotalGames, "raw=%s", raw)

		// Corrupted data is never read as "played today".
		played, err := store.PlayedToday(ctx, "club123", trivia.GameShirt)
		require.NoError(t, err)
		assert.False(t, played, "raw=%s", raw)
	}
}

func TestLocalUnreadableStorageDegradesToEmpty(t *testing.T) {
	mem := storage.NewMemory()
	mem.FailReads = errors.New("disk gone")
	store := NewLocalStore(mem, metrics.NewMock())

	bundle, err := store.ClubData(context.Background(), "club123")
	require.NoError(t, err)
	assert.Equal(t, 0, bundle.TotalGames)
}

func TestLocalRecordAttempt(t *testing.T) {
	store, mem := newLocalForTest(t)
	ctx := context.Background()

	rec, err := store.RecordAttempt(ctx, "club123", trivia.AttemptRecord{
		GameType: trivia.GameShirt, Won: true, Score: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Streak)
	assert.Equal(t, 40, rec.RecordScore)

	played, err := store.PlayedToday(ctx, "club123", trivia.GameShirt)
	require.NoError(t, err)
	assert.True(t, played)

	t.Run("persists synchronously across instances", func(t *testing.T) {
		fresh := NewLocalStore(mem, metrics.NewMock())
		bundle, err := fresh.ClubData(ctx, "club123")
		require.NoError(t, err)
		assert.Equal(t, 1, bundle.TotalGames)
		assert.Equal(t, 40, bundle.LastAttempts[trivia.GameShirt].RecordScore)
	})

	t.Run("rejects unknown game types before mutating", func(t *testing.T) {
		_, err := store.RecordAttempt(ctx, "club123", trivia.AttemptRecord{GameType: "sudoku", Won: true})
		require.Error(t, err)

		bundle, err := store.ClubData(ctx, "club123")
		require.NoError(t, err)
		assert.Equal(t, 1, bundle.TotalGames)
	})
}

func TestLocalStreakAcrossDays(t *testing.T) {
	store, _ := newLocalForTest(t)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2025, 6, d, 21, 0, 0, 0, time.Local) }

	store.now = func() time.Time { return day(1) }
	rec, err := store.RecordAttempt(ctx, "club123", trivia.AttemptRecord{GameType: trivia.GameSong, Won: true, Score: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Streak)

	store.now = func() time.Time { return day(2) }
	rec, err = store.RecordAttempt(ctx, "club123", trivia.AttemptRecord{GameType: trivia.GameSong, Won: true, Score: 8})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Streak)
	assert.Equal(t, 10, rec.RecordScore)

	// Yesterday's win is no longer "played today".
	played, err := store.PlayedToday(ctx, "club123", trivia.GameSong)
	require.NoError(t, err)
	assert.True(t, played)

	t.Run("missed day resets the streak", func(t *testing.T) {
		store.now = func() time.Time { return day(5) }
		rec, err := store.RecordAttempt(ctx, "club123", trivia.AttemptRecord{GameType: trivia.GameSong, Won: true, Score: 3})
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Streak)
	})

	t.Run("loss resets the streak to zero", func(t *testing.T) {
		store.now = func() time.Time { return day(6) }
		rec, err := store.RecordAttempt(ctx, "club123", trivia.AttemptRecord{GameType: trivia.GameSong, Won: false, Score: 0})
		require.NoError(t, err)
		assert.Equal(t, 0, rec.Streak)
		assert.Equal(t, 10, rec.RecordScore)
	})
}
