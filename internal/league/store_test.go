package league_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/pingpong-league/internal/database"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (league.Store, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := league.New(db)
	return store, db, dbTeardown
}

func TestCreateAndListPlayers(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.CreatePlayer(ctx, league.Player{Name: "Zoe", Hand: "left"})
	require.NoError(t, err)
	created, err := store.CreatePlayer(ctx, league.Player{Name: "Alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	players, err := store.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Alice", players[0].Name, "players should be ordered by name")
	assert.Equal(t, "Zoe", players[1].Name)
	assert.Equal(t, "left", players[1].Hand)
	assert.Empty(t, players[0].History)
	assert.Nil(t, players[0].BestRank)

	_, err = store.CreatePlayer(ctx, league.Player{Name: "Alice"})
	assert.Error(t, err, "duplicate names must be rejected")
}

func TestGetPlayerByName(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.CreatePlayer(ctx, league.Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	player, err := store.GetPlayerByName(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "p1", player.ID)

	_, err = store.GetPlayerByName(ctx, "Nobody")
	assert.ErrorIs(t, err, league.ErrPlayerNotFound)
}

func TestSavePlayerAggregate(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.CreatePlayer(ctx, league.Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	rank := 2
	saved, err := store.SavePlayerAggregate(ctx, "p1", league.Aggregate{
		Wins:     2,
		Losses:   1,
		Points:   22.5,
		History:  []league.Outcome{league.Win, league.Loss, league.Win},
		BestRank: &rank,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Wins)
	assert.Equal(t, 1, saved.Losses)
	assert.Equal(t, 22.5, saved.Points)
	assert.Equal(t, []league.Outcome{"W", "L", "W"}, saved.History)
	require.NotNil(t, saved.BestRank)
	assert.Equal(t, 2, *saved.BestRank)

	t.Run("missing player fails loudly", func(t *testing.T) {
		_, err := store.SavePlayerAggregate(ctx, "ghost", league.Aggregate{})
		assert.ErrorIs(t, err, league.ErrPlayerNotFound)
	})
}

func TestMatchLifecycle(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	later := time.Date(2025, 3, 2, 18, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	_, err := store.CreateMatch(ctx, league.Match{ID: "m2", Team1: []string{"Alice"}, Team2: []string{"Bob"}, Score1: 21, Score2: 15, PlayedAt: later})
	require.NoError(t, err)
	_, err = store.CreateMatch(ctx, league.Match{ID: "m1", Team1: []string{"Alice", "Bob"}, Team2: []string{"Carl", "Dana"}, Score1: 19, Score2: 21, IsDouble: true, PlayedAt: earlier})
	require.NoError(t, err)

	matches, err := store.ListMatches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m1", matches[0].ID, "matches should be ordered by played_at")
	assert.True(t, matches[0].IsDouble)
	assert.Equal(t, []string{"Carl", "Dana"}, matches[0].Team2)
	assert.True(t, matches[0].PlayedAt.Equal(earlier))

	updated := matches[1]
	updated.Score2 = 23
	updated.Score1 = 21
	_, err = store.UpdateMatch(ctx, updated)
	require.NoError(t, err)

	got, err := store.GetMatch(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, 23, got.Score2)

	require.NoError(t, store.DeleteMatch(ctx, "m2"))
	_, err = store.GetMatch(ctx, "m2")
	assert.ErrorIs(t, err, league.ErrMatchNotFound)
	assert.ErrorIs(t, store.DeleteMatch(ctx, "m2"), league.ErrMatchNotFound)
}

func TestIncrementLeaderDays(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.CreatePlayer(ctx, league.Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	player, err := store.IncrementLeaderDays(ctx, "p1", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, player.DaysAsLeader)
	assert.Equal(t, "2025-03-01", player.FirstLeaderDate)

	player, err = store.IncrementLeaderDays(ctx, "p1", "2025-03-02")
	require.NoError(t, err)
	assert.Equal(t, 2, player.DaysAsLeader)
	assert.Equal(t, "2025-03-01", player.FirstLeaderDate, "first leader date is only set once")
}

func TestReports(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, err := store.CreateReport(ctx, league.Report{Author: "Alice", Content: "Bob owes me a rematch", CreatedAt: time.Unix(100, 0)})
	require.NoError(t, err)
	second, err := store.CreateReport(ctx, league.Report{Author: "Bob", Content: "No", CreatedAt: time.Unix(200, 0)})
	require.NoError(t, err)

	reports, err := store.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "Bob", reports[0].Author, "newest report first")

	require.NoError(t, store.DeleteReport(ctx, second.ID))
	reports, err = store.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestMetadata(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	_, ok, err := store.GetMetadata(ctx, "last_leader_increment_date")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetMetadata(ctx, "last_leader_increment_date", "2025-03-01"))
	require.NoError(t, store.SetMetadata(ctx, "last_leader_increment_date", "2025-03-02"))

	value, ok, err := store.GetMetadata(ctx, "last_leader_increment_date")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-03-02", value)
}
