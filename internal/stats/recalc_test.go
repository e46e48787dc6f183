package stats

import (
	"testing"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byName(updates []PlayerUpdate) map[string]PlayerUpdate {
	out := make(map[string]PlayerUpdate, len(updates))
	for _, u := range updates {
		out[u.Name] = u
	}
	return out
}

func TestRecalculate_Scenarios(t *testing.T) {
	t.Run("singles win with bonus", func(t *testing.T) {
		updates := byName(Recalculate(players("Alice", "Bob"), []league.Match{
			singles("Alice", "Bob", 21, 15, 0),
		}, Options{}))

		alice, bob := updates["Alice"].Aggregate, updates["Bob"].Aggregate
		assert.Equal(t, 1, alice.Wins)
		assert.Equal(t, 12.0, alice.Points)
		assert.Equal(t, []league.Outcome{league.Win}, alice.History)
		assert.Equal(t, 1, bob.Losses)
		assert.Equal(t, 0.0, bob.Points)
		assert.Equal(t, []league.Outcome{league.Loss}, bob.History)
	})

	t.Run("overtime split", func(t *testing.T) {
		updates := byName(Recalculate(players("Charlie", "Diana"), []league.Match{
			singles("Charlie", "Diana", 21, 20, 0),
		}, Options{}))
		assert.Equal(t, 7.0, updates["Charlie"].Aggregate.Points)
		assert.Equal(t, 3.0, updates["Diana"].Aggregate.Points)
	})

	t.Run("doubles credits both teammates", func(t *testing.T) {
		updates := byName(Recalculate(players("Alice", "Bob", "Charlie", "Diana"), []league.Match{
			doubles("Alice", "Bob", "Charlie", "Diana", 21, 19, 0),
		}, Options{}))
		assert.Equal(t, 10.0, updates["Alice"].Aggregate.Points)
		assert.Equal(t, 10.0, updates["Bob"].Aggregate.Points)
		assert.Equal(t, 0.0, updates["Charlie"].Aggregate.Points)
		assert.Equal(t, 0.0, updates["Diana"].Aggregate.Points)
		assert.Equal(t, 1, updates["Diana"].Aggregate.Losses)
	})
}

func TestRecalculate_Invariants(t *testing.T) {
	roster := players("Alice", "Bob", "Carl", "Dana")
	matches := []league.Match{
		singles("Alice", "Bob", 21, 15, 3),
		singles("Bob", "Carl", 21, 20, 1),
		doubles("Alice", "Dana", "Bob", "Carl", 25, 23, 2),
		singles("Carl", "Alice", 21, 2, 0),
		singles("Dana", "Ghost", 21, 9, 4), // unknown player is skipped
	}

	first := Recalculate(roster, matches, Options{})
	for _, u := range first {
		wins, losses := 0, 0
		for _, o := range u.Aggregate.History {
			if o == league.Win {
				wins++
			} else {
				losses++
			}
		}
		assert.Equal(t, u.Aggregate.Wins, wins, u.Name)
		assert.Equal(t, u.Aggregate.Losses, losses, u.Name)
	}

	t.Run("history is chronological", func(t *testing.T) {
		alice := byName(first)["Alice"].Aggregate
		assert.Equal(t, []league.Outcome{"L", "W", "W"}, alice.History)
	})

	t.Run("idempotent", func(t *testing.T) {
		// Feed the computed best ranks back in, as a store would.
		again := make([]league.Player, len(roster))
		copy(again, roster)
		for i := range again {
			again[i].BestRank = byName(first)[again[i].Name].Aggregate.BestRank
		}
		second := Recalculate(again, matches, Options{})
		assert.Equal(t, first, second)
	})

	t.Run("unknown names are ignored", func(t *testing.T) {
		assert.Len(t, first, 4)
		assert.NotContains(t, byName(first), "Ghost")
		assert.Equal(t, 2, byName(first)["Dana"].Aggregate.Wins)
	})
}

func TestRecalculate_Ranking(t *testing.T) {
	roster := []league.Player{
		{ID: "1", Name: "Dave"},
		{ID: "2", Name: "Anna"},
		{ID: "3", Name: "Cleo"},
		{ID: "4", Name: "Bert"},
	}
	matches := []league.Match{
		singles("Dave", "Anna", 21, 0, 0),  // Dave 19.5
		singles("Anna", "Bert", 21, 19, 1), // Anna 10
		singles("Cleo", "Bert", 21, 19, 2), // Cleo 10
		singles("Cleo", "Anna", 21, 20, 3), // Cleo 17, Anna 13
	}

	updates := Recalculate(roster, matches, Options{})
	require.Len(t, updates, 4)
	assert.Equal(t, []string{"Dave", "Cleo", "Anna", "Bert"}, []string{updates[0].Name, updates[1].Name, updates[2].Name, updates[3].Name})
	for i, u := range updates {
		assert.Equal(t, i+1, u.Rank)
	}

	t.Run("wins break point ties", func(t *testing.T) {
		tied := Recalculate(players("Anna", "Bert", "Cleo"), []league.Match{
			singles("Bert", "Cleo", 21, 20, 0), // Bert 7, Cleo 3
			singles("Bert", "Cleo", 21, 20, 1), // Bert 14 from 2 wins
			singles("Anna", "Cleo", 21, 11, 2), // Anna 14 from 1 win
		}, Options{})
		assert.Equal(t, "Bert", tied[0].Name)
		assert.Equal(t, "Anna", tied[1].Name)
		assert.Equal(t, tied[0].Aggregate.Points, tied[1].Aggregate.Points)
	})

	t.Run("equal standings keep name order", func(t *testing.T) {
		equal := Recalculate([]league.Player{{ID: "z", Name: "Zed"}, {ID: "a", Name: "Amy"}}, nil, Options{})
		assert.Equal(t, "Amy", equal[0].Name)
		assert.Equal(t, "Zed", equal[1].Name)
	})
}

func TestRecalculate_BestRank(t *testing.T) {
	two, five := 2, 5
	roster := []league.Player{
		{ID: "a", Name: "Alice", BestRank: &two},
		{ID: "b", Name: "Bob", BestRank: &five},
		{ID: "c", Name: "Carl", BestRank: &two},
		{ID: "d", Name: "Dana"},
	}
	matches := []league.Match{
		singles("Bob", "Alice", 21, 10, 0),
		singles("Dana", "Alice", 21, 15, 1),
	}
	updates := byName(Recalculate(roster, matches, Options{}))

	// Bob is first with 14.5 points, Dana second, Alice third, Carl fourth.
	assert.Equal(t, 1, *updates["Bob"].Aggregate.BestRank, "improved rank tightens the best")
	assert.Equal(t, 2, *updates["Dana"].Aggregate.BestRank, "no previous best takes the current rank")
	assert.Equal(t, 2, *updates["Alice"].Aggregate.BestRank, "a worse rank keeps the previous best")
	assert.Equal(t, 4, *updates["Carl"].Aggregate.BestRank, "players without matches have no memory")
}

func TestRecalculate_RollingWindow(t *testing.T) {
	var matches []league.Match
	// Alice loses the first 5, then wins the next 20.
	for i := 0; i < 5; i++ {
		matches = append(matches, singles("Bob", "Alice", 21, 19, i))
	}
	for i := 5; i < 25; i++ {
		matches = append(matches, singles("Alice", "Bob", 21, 19, i))
	}

	full := byName(Recalculate(players("Alice", "Bob"), matches, Options{Strategy: FullHistory}))
	assert.Equal(t, 20, full["Alice"].Aggregate.Wins)
	assert.Equal(t, 5, full["Alice"].Aggregate.Losses)
	assert.Len(t, full["Alice"].Aggregate.History, 25)

	rolling := byName(Recalculate(players("Alice", "Bob"), matches, Options{Strategy: RollingWindow}))
	assert.Equal(t, 20, rolling["Alice"].Aggregate.Wins)
	assert.Equal(t, 0, rolling["Alice"].Aggregate.Losses)
	assert.Len(t, rolling["Alice"].Aggregate.History, DefaultWindowSize)
	assert.Equal(t, 200.0, rolling["Alice"].Aggregate.Points)

	small := byName(Recalculate(players("Alice", "Bob"), matches, Options{Strategy: RollingWindow, WindowSize: 3}))
	assert.Equal(t, []league.Outcome{"W", "W", "W"}, small["Alice"].Aggregate.History)
	assert.Equal(t, []league.Outcome{"L", "L", "L"}, small["Bob"].Aggregate.History)
}

func TestRecalculate_PointsCap(t *testing.T) {
	updates := byName(Recalculate(players("Alice", "Bob"), []league.Match{
		singles("Alice", "Bob", 21, 0, 0),
	}, Options{Scoring: scoring.Policy{Cap: 14}}))
	assert.Equal(t, 14.0, updates["Alice"].Aggregate.Points)
}

func TestRecalculate_Empty(t *testing.T) {
	assert.Empty(t, Recalculate(nil, nil, Options{}))

	updates := Recalculate(players("Alice"), nil, Options{})
	require.Len(t, updates, 1)
	assert.Zero(t, updates[0].Aggregate.Wins)
	assert.Empty(t, updates[0].Aggregate.History)
	assert.Equal(t, 1, *updates[0].Aggregate.BestRank)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("rolling")
	require.NoError(t, err)
	assert.Equal(t, RollingWindow, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, FullHistory, s)

	_, err = ParseStrategy("weekly")
	assert.Error(t, err)
}

func TestRankAndLeader(t *testing.T) {
	roster := []league.Player{
		{Name: "Bert", Points: 10, Wins: 1},
		{Name: "Anna", Points: 22, Wins: 2},
		{Name: "Cleo", Points: 10, Wins: 2},
		{Name: "Dave", Points: 3},
	}
	ranked := Rank(roster)
	assert.Equal(t, "Anna", ranked[0].Name)
	assert.Equal(t, "Cleo", ranked[1].Name)
	assert.Equal(t, "Bert", ranked[2].Name)
	assert.Equal(t, "Dave", ranked[3].Name)
	assert.Equal(t, "Bert", roster[0].Name, "input is not modified")

	leader, ok := Leader(roster)
	require.True(t, ok)
	assert.Equal(t, "Anna", leader.Name)

	_, ok = Leader(nil)
	assert.False(t, ok)
}
