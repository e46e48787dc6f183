package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/metrics"
	"github.com/mauv0809/pingpong-league/internal/notifier"
	"github.com/mauv0809/pingpong-league/internal/pubsub"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchDay = time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	store  *league.MockStore
	notif  *notifier.Mock
	metr   *metrics.Mock
	pubsub *pubsub.MockPubSubClient
}

func newTestProcessor(players []league.Player, matches []league.Match) (*Processor, testDeps) {
	deps := testDeps{
		store:  league.NewMock(),
		notif:  notifier.NewMock(),
		metr:   metrics.NewMock(),
		pubsub: pubsub.NewMock("TEST"),
	}
	deps.store.ListPlayersFunc = func(ctx context.Context) ([]league.Player, error) {
		return players, nil
	}
	deps.store.ListMatchesFunc = func(ctx context.Context) ([]league.Match, error) {
		return matches, nil
	}
	p := New(deps.store, deps.notif, deps.metr, deps.pubsub, Config{LeaderCheckHour: 14, Location: time.UTC})
	p.now = func() time.Time { return matchDay.Add(6 * time.Hour) }
	return p, deps
}

func aliceAndBob() []league.Player {
	return []league.Player{
		{ID: "id-alice", Name: "Alice"},
		{ID: "id-bob", Name: "Bob"},
	}
}

func singlesMatch(id string, score1, score2 int) league.Match {
	return league.Match{
		ID:       id,
		Team1:    []string{"Alice"},
		Team2:    []string{"Bob"},
		Score1:   score1,
		Score2:   score2,
		PlayedAt: matchDay,
	}
}

func savedAggregate(t *testing.T, store *league.MockStore, id string) league.Aggregate {
	t.Helper()
	for _, call := range store.SavePlayerAggregateCalls {
		if call.ID == id {
			return call.Aggregate
		}
	}
	t.Fatalf("no aggregate saved for %s", id)
	return league.Aggregate{}
}

func TestProcessor_RecalculateAllStats(t *testing.T) {
	t.Run("persists every player's aggregate", func(t *testing.T) {
		p, deps := newTestProcessor(aliceAndBob(), []league.Match{singlesMatch("m1", 21, 15)})

		updates, err := p.RecalculateAllStats(context.Background())
		require.NoError(t, err)
		require.Len(t, updates, 2)
		assert.Equal(t, "Alice", updates[0].Name)

		require.Len(t, deps.store.SavePlayerAggregateCalls, 2)
		alice := savedAggregate(t, deps.store, "id-alice")
		assert.Equal(t, 1, alice.Wins)
		assert.Equal(t, 12.0, alice.Points)
		assert.Equal(t, []league.Outcome{league.Win}, alice.History)
		bob := savedAggregate(t, deps.store, "id-bob")
		assert.Equal(t, 1, bob.Losses)
		assert.Equal(t, 0.0, bob.Points)

		assert.Equal(t, 1, deps.metr.Recalculations())
		assert.Len(t, deps.metr.RecalculationDurations(), 1)
	})

	t.Run("one failed save does not stop the others", func(t *testing.T) {
		p, deps := newTestProcessor(aliceAndBob(), []league.Match{singlesMatch("m1", 21, 15)})
		deps.store.SavePlayerAggregateFunc = func(ctx context.Context, id string, agg league.Aggregate) (*league.Player, error) {
			if id == "id-bob" {
				return nil, league.ErrPlayerNotFound
			}
			return &league.Player{ID: id}, nil
		}

		updates, err := p.RecalculateAllStats(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPartialWriteBack)
		assert.ErrorIs(t, err, league.ErrPlayerNotFound)
		assert.Contains(t, err.Error(), "player Bob")
		assert.Len(t, updates, 2)
		assert.Len(t, deps.store.SavePlayerAggregateCalls, 2)
		assert.Equal(t, 1, deps.metr.PlayerSaveFailures())
	})

	t.Run("load failure saves nothing", func(t *testing.T) {
		p, deps := newTestProcessor(aliceAndBob(), nil)
		boom := errors.New("db down")
		deps.store.ListMatchesFunc = func(ctx context.Context) ([]league.Match, error) {
			return nil, boom
		}

		_, err := p.RecalculateAllStats(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, deps.store.SavePlayerAggregateCalls)
		assert.Equal(t, 0, deps.metr.Recalculations())
	})

	t.Run("rolling window strategy is applied", func(t *testing.T) {
		var matches []league.Match
		for i := 0; i < 3; i++ {
			m := singlesMatch("m", 21, 15)
			m.PlayedAt = matchDay.Add(time.Duration(i) * time.Hour)
			matches = append(matches, m)
		}
		p, deps := newTestProcessor(aliceAndBob(), matches)
		p.config.Stats = stats.Options{Strategy: stats.RollingWindow, WindowSize: 2}

		_, err := p.RecalculateAllStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, savedAggregate(t, deps.store, "id-alice").Wins)
	})
}

func TestValidateMatch(t *testing.T) {
	tests := []struct {
		name    string
		match   league.Match
		wantErr error
	}{
		{"valid singles", league.Match{Team1: []string{"A"}, Team2: []string{"B"}, Score1: 21, Score2: 19}, nil},
		{"valid doubles", league.Match{Team1: []string{"A", "B"}, Team2: []string{"C", "D"}, Score1: 18, Score2: 21, IsDouble: true}, nil},
		{"singles with two players", league.Match{Team1: []string{"A", "B"}, Team2: []string{"C"}, Score1: 21, Score2: 19}, ErrInvalidTeams},
		{"doubles with one player", league.Match{Team1: []string{"A"}, Team2: []string{"C"}, Score1: 21, Score2: 19, IsDouble: true}, ErrInvalidTeams},
		{"player on both teams", league.Match{Team1: []string{"A", "B"}, Team2: []string{"A", "D"}, Score1: 21, Score2: 19, IsDouble: true}, ErrInvalidTeams},
		{"blank name", league.Match{Team1: []string{" "}, Team2: []string{"B"}, Score1: 21, Score2: 19}, ErrInvalidTeams},
		{"equal scores", league.Match{Team1: []string{"A"}, Team2: []string{"B"}, Score1: 21, Score2: 21}, scoring.ErrInvalidScore},
		{"nobody reached 21", league.Match{Team1: []string{"A"}, Team2: []string{"B"}, Score1: 15, Score2: 11}, scoring.ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMatch(tt.match)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProcessor_RecordMatch(t *testing.T) {
	t.Run("stores, recalculates, notifies and publishes", func(t *testing.T) {
		match := singlesMatch("", 21, 15)
		p, deps := newTestProcessor(aliceAndBob(), []league.Match{match})

		result, err := p.RecordMatch(context.Background(), match, false)
		require.NoError(t, err)

		assert.Equal(t, "mock-match", result.Match.ID)
		assert.Equal(t, scoring.Award{Winner: 12, Loser: 0}, result.Award)
		assert.Len(t, result.Standings, 2)
		require.Len(t, deps.store.CreateMatchCalls, 1)
		assert.Len(t, deps.store.SavePlayerAggregateCalls, 2)
		assert.Equal(t, 1, deps.metr.MatchesRecorded())

		require.Len(t, deps.notif.SendMatchResultCalls, 1)
		assert.False(t, deps.notif.SendMatchResultCalls[0].DryRun)
		assert.Equal(t, 12.0, deps.notif.SendMatchResultCalls[0].Award.Winner)

		require.Len(t, deps.pubsub.SendMessageCalls, 1)
		assert.Equal(t, pubsub.EventMatchRecorded, deps.pubsub.SendMessageCalls[0].Topic)
		event, ok := deps.pubsub.SendMessageCalls[0].Data.(pubsub.MatchRecordedEvent)
		require.True(t, ok, "Data sent to pubsub should be a MatchRecordedEvent")
		assert.Equal(t, "created", event.Action)
		assert.Equal(t, "mock-match", event.MatchID)
	})

	t.Run("dry run skips publishing", func(t *testing.T) {
		match := singlesMatch("", 21, 20)
		p, deps := newTestProcessor(aliceAndBob(), []league.Match{match})

		result, err := p.RecordMatch(context.Background(), match, true)
		require.NoError(t, err)
		assert.Equal(t, scoring.Award{Winner: 7, Loser: 3}, result.Award)
		require.Len(t, deps.notif.SendMatchResultCalls, 1)
		assert.True(t, deps.notif.SendMatchResultCalls[0].DryRun)
		assert.Empty(t, deps.pubsub.SendMessageCalls)
	})

	t.Run("invalid match is rejected before storing", func(t *testing.T) {
		p, deps := newTestProcessor(aliceAndBob(), nil)

		_, err := p.RecordMatch(context.Background(), singlesMatch("", 21, 21), false)
		assert.ErrorIs(t, err, scoring.ErrInvalidScore)
		assert.Empty(t, deps.store.CreateMatchCalls)
		assert.Empty(t, deps.notif.SendMatchResultCalls)
	})

	t.Run("notification failure does not fail the request", func(t *testing.T) {
		match := singlesMatch("", 21, 15)
		p, deps := newTestProcessor(aliceAndBob(), []league.Match{match})
		deps.notif.SendMatchResultFunc = func(league.Match, scoring.Award, bool) error {
			return errors.New("slack down")
		}

		_, err := p.RecordMatch(context.Background(), match, false)
		assert.NoError(t, err)
		assert.Len(t, deps.pubsub.SendMessageCalls, 1)
	})

	t.Run("points cap applies to the announced award", func(t *testing.T) {
		match := singlesMatch("", 21, 0)
		p, _ := newTestProcessor(aliceAndBob(), []league.Match{match})
		p.config.Stats.Scoring = scoring.Policy{Cap: 14}

		result, err := p.RecordMatch(context.Background(), match, true)
		require.NoError(t, err)
		assert.Equal(t, 14.0, result.Award.Winner)
	})
}

func TestProcessor_UpdateMatch(t *testing.T) {
	t.Run("unknown match", func(t *testing.T) {
		p, deps := newTestProcessor(aliceAndBob(), nil)
		deps.store.UpdateMatchFunc = func(ctx context.Context, match league.Match) (*league.Match, error) {
			return nil, league.ErrMatchNotFound
		}

		_, err := p.UpdateMatch(context.Background(), singlesMatch("m404", 21, 15), false)
		assert.ErrorIs(t, err, league.ErrMatchNotFound)
		assert.Empty(t, deps.store.SavePlayerAggregateCalls)
	})

	t.Run("recalculates and publishes", func(t *testing.T) {
		match := singlesMatch("m1", 15, 21)
		p, deps := newTestProcessor(aliceAndBob(), []league.Match{match})

		result, err := p.UpdateMatch(context.Background(), match, false)
		require.NoError(t, err)
		assert.Equal(t, "Bob", result.Standings[0].Name)
		assert.Empty(t, deps.notif.SendMatchResultCalls, "edits are not announced")
		require.Len(t, deps.pubsub.SendMessageCalls, 1)
		assert.Equal(t, "updated", deps.pubsub.SendMessageCalls[0].Data.(pubsub.MatchRecordedEvent).Action)
	})

	t.Run("score correction keeps the stored played_at", func(t *testing.T) {
		stored := singlesMatch("m1", 21, 15)
		p, deps := newTestProcessor(aliceAndBob(), []league.Match{stored})
		deps.store.GetMatchFunc = func(ctx context.Context, id string) (*league.Match, error) {
			return &stored, nil
		}

		corrected := singlesMatch("m1", 21, 17)
		corrected.PlayedAt = time.Time{}
		_, err := p.UpdateMatch(context.Background(), corrected, false)
		require.NoError(t, err)
		require.Len(t, deps.store.UpdateMatchCalls, 1)
		assert.True(t, matchDay.Equal(deps.store.UpdateMatchCalls[0].PlayedAt))
		assert.Equal(t, 17, deps.store.UpdateMatchCalls[0].Score2)
	})

	t.Run("score correction of unknown match", func(t *testing.T) {
		p, deps := newTestProcessor(aliceAndBob(), nil)

		corrected := singlesMatch("m404", 21, 17)
		corrected.PlayedAt = time.Time{}
		_, err := p.UpdateMatch(context.Background(), corrected, false)
		assert.ErrorIs(t, err, league.ErrMatchNotFound)
		assert.Empty(t, deps.store.UpdateMatchCalls)
	})
}

func TestProcessor_DeleteMatch(t *testing.T) {
	p, deps := newTestProcessor(aliceAndBob(), nil)

	standings, err := p.DeleteMatch(context.Background(), "m1", false)
	require.NoError(t, err)
	assert.Len(t, standings, 2)
	assert.Equal(t, []string{"m1"}, deps.store.DeleteMatchCalls)
	for _, call := range deps.store.SavePlayerAggregateCalls {
		assert.Zero(t, call.Aggregate.Wins+call.Aggregate.Losses)
	}
	require.Len(t, deps.pubsub.SendMessageCalls, 1)
	assert.Equal(t, "deleted", deps.pubsub.SendMessageCalls[0].Data.(pubsub.MatchRecordedEvent).Action)
}

func TestProcessor_CheckLeaderDays(t *testing.T) {
	ranked := []league.Player{
		{ID: "id-bob", Name: "Bob", Points: 10, Wins: 1},
		{ID: "id-alice", Name: "Alice", Points: 22, Wins: 2},
	}
	afternoon := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	morning := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	withLastDate := func(deps testDeps, date string) {
		deps.store.GetMetadataFunc = func(ctx context.Context, key string) (string, bool, error) {
			assert.Equal(t, LeaderDateKey, key)
			return date, true, nil
		}
	}

	t.Run("first check only records the date", func(t *testing.T) {
		p, deps := newTestProcessor(ranked, nil)

		credited, err := p.CheckLeaderDays(context.Background(), afternoon)
		require.NoError(t, err)
		assert.Nil(t, credited)
		assert.Empty(t, deps.store.IncrementLeaderDaysCalls)
		require.Len(t, deps.store.SetMetadataCalls, 1)
		assert.Equal(t, "2025-03-03", deps.store.SetMetadataCalls[0].Value)
	})

	t.Run("already credited today", func(t *testing.T) {
		p, deps := newTestProcessor(ranked, nil)
		withLastDate(deps, "2025-03-03")

		credited, err := p.CheckLeaderDays(context.Background(), afternoon)
		require.NoError(t, err)
		assert.Nil(t, credited)
		assert.Empty(t, deps.store.IncrementLeaderDaysCalls)
		assert.Empty(t, deps.store.SetMetadataCalls)
	})

	t.Run("new day before the check hour", func(t *testing.T) {
		p, deps := newTestProcessor(ranked, nil)
		withLastDate(deps, "2025-03-02")

		credited, err := p.CheckLeaderDays(context.Background(), morning)
		require.NoError(t, err)
		assert.Nil(t, credited)
		assert.Empty(t, deps.store.IncrementLeaderDaysCalls)
	})

	t.Run("new day after the check hour credits the leader", func(t *testing.T) {
		p, deps := newTestProcessor(ranked, nil)
		withLastDate(deps, "2025-03-02")
		deps.store.IncrementLeaderDaysFunc = func(ctx context.Context, id string, date string) (*league.Player, error) {
			return &league.Player{ID: id, Name: "Alice", DaysAsLeader: 5}, nil
		}

		credited, err := p.CheckLeaderDays(context.Background(), afternoon)
		require.NoError(t, err)
		require.NotNil(t, credited)
		assert.Equal(t, 5, credited.DaysAsLeader)
		require.Len(t, deps.store.IncrementLeaderDaysCalls, 1)
		assert.Equal(t, "id-alice", deps.store.IncrementLeaderDaysCalls[0].ID)
		assert.Equal(t, "2025-03-03", deps.store.IncrementLeaderDaysCalls[0].Date)
		require.Len(t, deps.store.SetMetadataCalls, 1)
		assert.Equal(t, "2025-03-03", deps.store.SetMetadataCalls[0].Value)
		assert.Equal(t, 1, deps.metr.LeaderDayIncrements())
	})

	t.Run("uses the configured timezone", func(t *testing.T) {
		p, deps := newTestProcessor(ranked, nil)
		p.config.Location = time.FixedZone("UTC+3", 3*60*60)
		withLastDate(deps, "2025-03-02")

		// 12:00 UTC is 15:00 locally.
		_, err := p.CheckLeaderDays(context.Background(), time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Len(t, deps.store.IncrementLeaderDaysCalls, 1)
	})

	t.Run("no players still records the date", func(t *testing.T) {
		p, deps := newTestProcessor(nil, nil)
		withLastDate(deps, "2025-03-02")

		credited, err := p.CheckLeaderDays(context.Background(), afternoon)
		require.NoError(t, err)
		assert.Nil(t, credited)
		assert.Empty(t, deps.store.IncrementLeaderDaysCalls)
		assert.Len(t, deps.store.SetMetadataCalls, 1)
	})
}

func TestProcessor_PostDailyInsights(t *testing.T) {
	t.Run("quiet day is not posted", func(t *testing.T) {
		p, deps := newTestProcessor(aliceAndBob(), nil)

		insights, err := p.PostDailyInsights(context.Background(), matchDay, false)
		require.NoError(t, err)
		assert.Equal(t, []string{stats.NoMatchesInsight}, insights)
		assert.Empty(t, deps.notif.SendDailyInsightsCalls)
	})

	t.Run("posts the day's insights", func(t *testing.T) {
		matches := []league.Match{singlesMatch("m1", 21, 20), singlesMatch("m2", 21, 5)}
		p, deps := newTestProcessor(aliceAndBob(), matches)

		insights, err := p.PostDailyInsights(context.Background(), matchDay, true)
		require.NoError(t, err)
		assert.NotEmpty(t, insights)
		require.Len(t, deps.notif.SendDailyInsightsCalls, 1)
		assert.Equal(t, insights, deps.notif.SendDailyInsightsCalls[0].Insights)
		assert.True(t, deps.notif.SendDailyInsightsCalls[0].DryRun)
	})
}

func TestProcessor_Queries(t *testing.T) {
	matches := []league.Match{singlesMatch("m1", 21, 15), singlesMatch("m2", 21, 18)}
	players := []league.Player{
		{ID: "id-bob", Name: "Bob", Losses: 2, History: []league.Outcome{league.Loss, league.Loss}},
		{ID: "id-alice", Name: "Alice", Wins: 2, Points: 22, History: []league.Outcome{league.Win, league.Win}},
	}

	t.Run("leaderboard is ranked", func(t *testing.T) {
		p, _ := newTestProcessor(players, matches)
		ranked, err := p.Leaderboard(context.Background())
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.Equal(t, "Alice", ranked[0].Name)
	})

	t.Run("head to head", func(t *testing.T) {
		p, _ := newTestProcessor(players, matches)
		record, err := p.HeadToHead(context.Background(), "Bob", "Alice")
		require.NoError(t, err)
		assert.Equal(t, 0, record.WinsA)
		assert.Equal(t, 2, record.WinsB)
	})

	t.Run("singles prediction needs registered players", func(t *testing.T) {
		p, _ := newTestProcessor(players, matches)
		_, err := p.PredictSingles(context.Background(), "Alice", "Zed")
		assert.ErrorIs(t, err, league.ErrPlayerNotFound)

		prediction, err := p.PredictSingles(context.Background(), "Alice", "Bob")
		require.NoError(t, err)
		assert.InDelta(t, 100, prediction.ProbA+prediction.ProbB, 1e-9)
		assert.Greater(t, prediction.ProbA, prediction.ProbB)
	})

	t.Run("doubles prediction tolerates unknown players", func(t *testing.T) {
		p, _ := newTestProcessor(players, matches)
		prediction, err := p.PredictDoubles(context.Background(), "Alice", "Bob", "Carl", "Dana")
		require.NoError(t, err)
		assert.InDelta(t, 100, prediction.ProbTeam1+prediction.ProbTeam2, 1e-9)
	})

	t.Run("predictions reject a player on both sides", func(t *testing.T) {
		p, _ := newTestProcessor(players, matches)
		_, err := p.PredictSingles(context.Background(), "Alice", "Alice")
		assert.ErrorIs(t, err, ErrInvalidTeams)

		_, err = p.PredictDoubles(context.Background(), "Alice", "Bob", "Alice", "Carl")
		assert.ErrorIs(t, err, ErrInvalidTeams)

		_, err = p.PredictDoubles(context.Background(), "Alice", "Alice", "Bob", "Carl")
		assert.ErrorIs(t, err, ErrInvalidTeams)
	})

	t.Run("player stats", func(t *testing.T) {
		p, deps := newTestProcessor(players, matches)
		deps.store.GetPlayerByNameFunc = func(ctx context.Context, name string) (*league.Player, error) {
			return &players[1], nil
		}
		ps, err := p.PlayerStats(context.Background(), "Alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", ps.Player.Name)
		require.NotNil(t, ps.Advanced.Victim)
		assert.Equal(t, "Bob", ps.Advanced.Victim.Name)
		assert.Equal(t, stats.Streak{Type: league.Win, Count: 2}, ps.Advanced.CurrentStreak)
	})

	t.Run("streak leaders skip players without wins", func(t *testing.T) {
		p, _ := newTestProcessor(players, matches)
		leaders, err := p.StreakLeaders(context.Background(), 5)
		require.NoError(t, err)
		require.Len(t, leaders, 1)
		assert.Equal(t, "Alice", leaders[0].Name)
		assert.Equal(t, 2, leaders[0].Streak.Count)
	})

	t.Run("player stats for unknown player", func(t *testing.T) {
		p, _ := newTestProcessor(players, matches)
		_, err := p.PlayerStats(context.Background(), "Zed")
		assert.ErrorIs(t, err, league.ErrPlayerNotFound)
	})
}

func TestProcessor_RequestRecalculation(t *testing.T) {
	p, deps := newTestProcessor(nil, nil)

	require.NoError(t, p.RequestRecalculation("manual"))
	require.Len(t, deps.pubsub.SendMessageCalls, 1)
	assert.Equal(t, pubsub.EventRecalculateStats, deps.pubsub.SendMessageCalls[0].Topic)
	event := deps.pubsub.SendMessageCalls[0].Data.(pubsub.RecalculateStatsEvent)
	assert.Equal(t, "manual", event.Reason)
	assert.Equal(t, matchDay.Add(6*time.Hour), event.RequestedAt)
}
