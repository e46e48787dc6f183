package main

import (
	"context"
	"math/rand"
	"testing"

	"github.com/mauv0809/pingpong-league/internal/database"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomMatchIsValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		match := randomMatch(rng, 30)
		assert.NoError(t, processor.ValidateMatch(match), "match %d: %+v", i, match)
		assert.NotEmpty(t, match.ID)
	}
}

func TestSeedLeague(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)
	store := league.New(db)
	ctx := context.Background()

	require.NoError(t, seedLeague(ctx, store, rand.New(rand.NewSource(7)), 40, 10))
	// a second run reuses the demo players
	require.NoError(t, seedLeague(ctx, store, rand.New(rand.NewSource(8)), 10, 10))

	players, err := store.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, players, len(seedPlayers))

	matches, err := store.ListMatches(ctx)
	require.NoError(t, err)
	assert.Len(t, matches, 50)

	wins, losses := 0, 0
	for _, p := range players {
		wins += p.Wins
		losses += p.Losses
	}
	assert.Equal(t, wins, losses, "every match has as many winners as losers")
	assert.Positive(t, wins)
}

func TestSeederFlags(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{"--matches", "25", "--days", "3", "--seed", "99"}))
	assert.Equal(t, 25, numMatches)
	assert.Equal(t, 3, days)
	assert.Equal(t, int64(99), seed)
}
