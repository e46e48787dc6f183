package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
)

const (
	balancedMinMeetings = 5
	balancedMaxGap      = 2
	maxBalanced         = 3
	pointsPerPeriodWin  = 10
)

// FormPeriods are the trailing windows, in days, used for recent form.
var FormPeriods = []int{7, 14, 30}

// OpponentRecord is a player's record against one opponent.
type OpponentRecord struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Total  int    `json:"total"`
}

// Streak is a run of identical outcomes.
type Streak struct {
	Type  league.Outcome `json:"type"`
	Count int            `json:"count"`
}

// PeriodForm is a player's results over the last Days days. PointsGained
// is a flat 10 per win, not the real scoring formula.
type PeriodForm struct {
	Days         int     `json:"days"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	PointsGained float64 `json:"points_gained"`
}

// TypeSplit is the record for one match format.
type TypeSplit struct {
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// TeammateRecord is how a player did alongside one doubles partner.
type TeammateRecord struct {
	Name    string `json:"name"`
	Matches int    `json:"matches"`
	Wins    int    `json:"wins"`
}

// AdvancedStats is the extended profile of one player.
type AdvancedStats struct {
	Player            string           `json:"player"`
	Nemesis           *OpponentRecord  `json:"nemesis"`
	Victim            *OpponentRecord  `json:"victim"`
	CurrentStreak     Streak           `json:"current_streak"`
	BestStreak        Streak           `json:"best_streak"`
	RecentForm        []PeriodForm     `json:"recent_form"`
	Singles           TypeSplit        `json:"singles"`
	Doubles           TypeSplit        `json:"doubles"`
	BalancedRivalries []OpponentRecord `json:"balanced_rivalries"`
	FavoriteTeammates []TeammateRecord `json:"favorite_teammates"`
}

// Advanced computes the extended profile of player. Streaks come from the
// player's stored history, everything else from matches.
func Advanced(player league.Player, matches []league.Match, now time.Time) AdvancedStats {
	name := player.Name
	opponents := opponentRecords(name, matches)

	stats := AdvancedStats{
		Player:            name,
		Nemesis:           mostBy(opponents, func(r OpponentRecord) int { return r.Losses }),
		Victim:            mostBy(opponents, func(r OpponentRecord) int { return r.Wins }),
		CurrentStreak:     CurrentStreak(player.History),
		BestStreak:        BestStreak(player.History),
		RecentForm:        make([]PeriodForm, 0, len(FormPeriods)),
		BalancedRivalries: balancedRivalries(opponents),
		FavoriteTeammates: favoriteTeammates(name, matches),
	}

	for _, days := range FormPeriods {
		stats.RecentForm = append(stats.RecentForm, periodForm(name, matches, now, days))
	}

	for _, m := range matches {
		if !m.Involves(name) {
			continue
		}
		split := &stats.Singles
		if m.IsDouble {
			split = &stats.Doubles
		}
		split.Matches++
		if m.Won(name) {
			split.Wins++
		}
	}
	for _, split := range []*TypeSplit{&stats.Singles, &stats.Doubles} {
		if split.Matches > 0 {
			split.WinRate = float64(split.Wins) / float64(split.Matches) * 100
		}
	}
	return stats
}

// opponentRecords returns the player's record against every opponent, by name.
func opponentRecords(name string, matches []league.Match) []OpponentRecord {
	byName := make(map[string]*OpponentRecord)
	for _, m := range matches {
		won := m.Won(name)
		for _, opp := range m.Opponents(name) {
			rec, ok := byName[opp]
			if !ok {
				rec = &OpponentRecord{Name: opp}
				byName[opp] = rec
			}
			rec.Total++
			if won {
				rec.Wins++
			} else {
				rec.Losses++
			}
		}
	}
	records := make([]OpponentRecord, 0, len(byName))
	for _, rec := range byName {
		records = append(records, *rec)
	}
	slices.SortFunc(records, func(a, b OpponentRecord) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return records
}

// mostBy returns the record with the highest positive key. Ties go to the
// first record, i.e. the alphabetically first opponent.
func mostBy(records []OpponentRecord, key func(OpponentRecord) int) *OpponentRecord {
	var best *OpponentRecord
	for i := range records {
		if key(records[i]) == 0 {
			continue
		}
		if best == nil || key(records[i]) > key(*best) {
			rec := records[i]
			best = &rec
		}
	}
	return best
}

// CurrentStreak counts the trailing identical outcomes.
func CurrentStreak(history []league.Outcome) Streak {
	if len(history) == 0 {
		return Streak{}
	}
	last := history[len(history)-1]
	count := 0
	for i := len(history) - 1; i >= 0 && history[i] == last; i-- {
		count++
	}
	return Streak{Type: last, Count: count}
}

// BestStreak is the longest run of consecutive wins.
func BestStreak(history []league.Outcome) Streak {
	best, run := 0, 0
	for _, o := range history {
		if o != league.Win {
			run = 0
			continue
		}
		run++
		best = max(best, run)
	}
	return Streak{Type: league.Win, Count: best}
}

func periodForm(name string, matches []league.Match, now time.Time, days int) PeriodForm {
	form := PeriodForm{Days: days}
	since := now.AddDate(0, 0, -days)
	for _, m := range matches {
		if !m.Involves(name) || m.PlayedAt.Before(since) || m.PlayedAt.After(now) {
			continue
		}
		if m.Won(name) {
			form.Wins++
			form.PointsGained += pointsPerPeriodWin
		} else {
			form.Losses++
		}
	}
	return form
}

func balancedRivalries(records []OpponentRecord) []OpponentRecord {
	balanced := make([]OpponentRecord, 0)
	for _, rec := range records {
		gap := rec.Wins - rec.Losses
		if rec.Total >= balancedMinMeetings && gap <= balancedMaxGap && gap >= -balancedMaxGap {
			balanced = append(balanced, rec)
		}
	}
	slices.SortStableFunc(balanced, func(a, b OpponentRecord) int {
		return cmp.Compare(b.Total, a.Total)
	})
	if len(balanced) > maxBalanced {
		balanced = balanced[:maxBalanced]
	}
	return balanced
}

// favoriteTeammates returns every doubles partner tied for most matches played together.
func favoriteTeammates(name string, matches []league.Match) []TeammateRecord {
	byName := make(map[string]*TeammateRecord)
	for _, m := range matches {
		if !m.IsDouble {
			continue
		}
		for _, mate := range m.Teammates(name) {
			rec, ok := byName[mate]
			if !ok {
				rec = &TeammateRecord{Name: mate}
				byName[mate] = rec
			}
			rec.Matches++
			if m.Won(name) {
				rec.Wins++
			}
		}
	}

	most := 0
	for _, rec := range byName {
		most = max(most, rec.Matches)
	}
	favorites := make([]TeammateRecord, 0)
	for _, rec := range byName {
		if rec.Matches == most {
			favorites = append(favorites, *rec)
		}
	}
	slices.SortFunc(favorites, func(a, b TeammateRecord) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return favorites
}

// StreakLeader is one row of the best-streak leaderboard.
type StreakLeader struct {
	Name   string `json:"name"`
	Streak Streak `json:"streak"`
}

// TopStreaks ranks players by their longest winning run, skipping players
// who never won. Ties keep name order.
func TopStreaks(players []league.Player, limit int) []StreakLeader {
	leaders := make([]StreakLeader, 0, len(players))
	for _, p := range players {
		best := BestStreak(p.History)
		if best.Count == 0 {
			continue
		}
		leaders = append(leaders, StreakLeader{Name: p.Name, Streak: best})
	}
	slices.SortStableFunc(leaders, func(a, b StreakLeader) int {
		return cmp.Compare(a.Name, b.Name)
	})
	slices.SortStableFunc(leaders, func(a, b StreakLeader) int {
		return cmp.Compare(b.Streak.Count, a.Streak.Count)
	})
	if limit > 0 && len(leaders) > limit {
		leaders = leaders[:limit]
	}
	return leaders
}
