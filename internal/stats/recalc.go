package stats

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/scoring"
)

// Strategy selects which matches feed a player's aggregates.
type Strategy string

const (
	// FullHistory replays every match ever played.
	FullHistory Strategy = "full"
	// RollingWindow only counts each player's most recent matches, so old
	// results eventually fall off the leaderboard.
	RollingWindow Strategy = "rolling"
)

// DefaultWindowSize is the rolling window length in matches.
const DefaultWindowSize = 20

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case FullHistory, "":
		return FullHistory, nil
	case RollingWindow:
		return RollingWindow, nil
	}
	return "", fmt.Errorf("unknown recalculation strategy %q", s)
}

// Options configures a recalculation pass.
type Options struct {
	Strategy   Strategy
	WindowSize int
	Scoring    scoring.Policy
}

// PlayerUpdate is the freshly computed state for one player.
type PlayerUpdate struct {
	PlayerID  string           `json:"player_id"`
	Name      string           `json:"name"`
	Rank      int              `json:"rank"`
	Aggregate league.Aggregate `json:"aggregate"`
}

// Recalculate rebuilds every player's aggregates from scratch and ranks them.
// Match participants that are not in players are ignored. The result is in
// rank order and depends only on its inputs.
func Recalculate(players []league.Player, matches []league.Match, opts Options) []PlayerUpdate {
	ordered := chronological(matches)

	aggs := make(map[string]*league.Aggregate, len(players))
	for _, p := range players {
		aggs[p.Name] = &league.Aggregate{History: []league.Outcome{}}
	}

	switch opts.Strategy {
	case RollingWindow:
		window := opts.WindowSize
		if window <= 0 {
			window = DefaultWindowSize
		}
		for name, agg := range aggs {
			own := make([]league.Match, 0)
			for _, m := range ordered {
				if m.Involves(name) {
					own = append(own, m)
				}
			}
			if len(own) > window {
				own = own[len(own)-window:]
			}
			for _, m := range own {
				applyMatch(agg, m, m.Won(name), opts.Scoring)
			}
		}
	default:
		for _, m := range ordered {
			for _, name := range m.Winners() {
				if agg, ok := aggs[name]; ok {
					applyMatch(agg, m, true, opts.Scoring)
				}
			}
			for _, name := range m.Losers() {
				if agg, ok := aggs[name]; ok {
					applyMatch(agg, m, false, opts.Scoring)
				}
			}
		}
	}

	updates := make([]PlayerUpdate, 0, len(players))
	for _, p := range players {
		updates = append(updates, PlayerUpdate{PlayerID: p.ID, Name: p.Name, Aggregate: *aggs[p.Name]})
	}
	slices.SortStableFunc(updates, func(a, b PlayerUpdate) int {
		return cmp.Compare(a.Name, b.Name)
	})
	slices.SortStableFunc(updates, func(a, b PlayerUpdate) int {
		return compareStanding(a.Aggregate.Points, a.Aggregate.Wins, b.Aggregate.Points, b.Aggregate.Wins)
	})

	previousBest := make(map[string]*int, len(players))
	for _, p := range players {
		previousBest[p.ID] = p.BestRank
	}
	for i := range updates {
		rank := i + 1
		updates[i].Rank = rank
		updates[i].Aggregate.BestRank = nextBestRank(previousBest[updates[i].PlayerID], rank, updates[i].Aggregate)
	}
	return updates
}

func applyMatch(agg *league.Aggregate, m league.Match, won bool, policy scoring.Policy) {
	award := policy.AwardMatch(m)
	if won {
		agg.Wins++
		agg.Points += award.Winner
		agg.History = append(agg.History, league.Win)
		return
	}
	agg.Losses++
	agg.Points += award.Loser
	agg.History = append(agg.History, league.Loss)
}

// nextBestRank tightens the remembered best rank. Players without matches
// simply take their current rank.
func nextBestRank(previous *int, current int, agg league.Aggregate) *int {
	best := current
	if agg.Wins+agg.Losses > 0 && previous != nil && *previous < current {
		best = *previous
	}
	return &best
}

// compareStanding orders by points then wins, both descending.
func compareStanding(pointsA float64, winsA int, pointsB float64, winsB int) int {
	if c := cmp.Compare(pointsB, pointsA); c != 0 {
		return c
	}
	return cmp.Compare(winsB, winsA)
}

// Rank returns players ordered by their stored points and wins, both
// descending. Ties keep name order.
func Rank(players []league.Player) []league.Player {
	ranked := slices.Clone(players)
	slices.SortStableFunc(ranked, func(a, b league.Player) int {
		return cmp.Compare(a.Name, b.Name)
	})
	slices.SortStableFunc(ranked, func(a, b league.Player) int {
		return compareStanding(a.Points, a.Wins, b.Points, b.Wins)
	})
	return ranked
}

// Leader returns the top ranked player, or false when there are no players.
func Leader(players []league.Player) (league.Player, bool) {
	ranked := Rank(players)
	if len(ranked) == 0 {
		return league.Player{}, false
	}
	return ranked[0], true
}
