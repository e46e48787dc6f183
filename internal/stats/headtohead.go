// Package stats derives rankings, head-to-head records, predictions and
// narrative insights from the league's players and matches. Every function
// is pure: callers fetch data and persist results.
package stats

import (
	"slices"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
)

// DefaultFormWindow is the number of recent matches used for current form.
const DefaultFormWindow = 10

// HeadToHeadRecord is the record between two players who faced each other.
type HeadToHeadRecord struct {
	WinsA         int        `json:"wins_a"`
	WinsB         int        `json:"wins_b"`
	TotalMatches  int        `json:"total_matches"`
	LastMatchDate *time.Time `json:"last_match_date,omitempty"`
	LastWinner    string     `json:"last_winner,omitempty"`
}

// PairRecord is how a doubles pair has fared as teammates.
type PairRecord struct {
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// PairMatchup is the record between two fixed doubles pairs.
type PairMatchup struct {
	TeamAWins    int `json:"team_a_wins"`
	TeamBWins    int `json:"team_b_wins"`
	TotalMatches int `json:"total_matches"`
}

// chronological returns a copy of matches sorted by played_at, oldest first.
func chronological(matches []league.Match) []league.Match {
	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b league.Match) int {
		return a.PlayedAt.Compare(b.PlayedAt)
	})
	return sorted
}

// faced reports whether a and b played on opposite sides of m.
// Singles count regardless of which slot each player occupied.
func faced(m league.Match, a, b string) bool {
	teamA, teamB := m.TeamOf(a), m.TeamOf(b)
	return teamA != 0 && teamB != 0 && teamA != teamB
}

// HeadToHead returns the record of nameA against nameB. Doubles matches count
// only when the two were opponents, never when they were teammates.
func HeadToHead(nameA, nameB string, matches []league.Match) HeadToHeadRecord {
	var rec HeadToHeadRecord
	for _, m := range chronological(matches) {
		if !faced(m, nameA, nameB) {
			continue
		}
		rec.TotalMatches++
		winner := nameB
		if m.Won(nameA) {
			rec.WinsA++
			winner = nameA
		} else {
			rec.WinsB++
		}
		playedAt := m.PlayedAt
		rec.LastMatchDate = &playedAt
		rec.LastWinner = winner
	}
	return rec
}

// RecentForm returns the outcomes of the player's last n matches, oldest first.
func RecentForm(name string, matches []league.Match, n int) []league.Outcome {
	form := make([]league.Outcome, 0)
	if n <= 0 {
		return form
	}
	for _, m := range chronological(matches) {
		if !m.Involves(name) {
			continue
		}
		if m.Won(name) {
			form = append(form, league.Win)
		} else {
			form = append(form, league.Loss)
		}
	}
	if len(form) > n {
		form = form[len(form)-n:]
	}
	return form
}

// countWins returns the number of wins in a sequence of outcomes.
func countWins(outcomes []league.Outcome) int {
	wins := 0
	for _, o := range outcomes {
		if o == league.Win {
			wins++
		}
	}
	return wins
}

// PairStats returns the doubles record of nameA and nameB as teammates.
// WinRate is a percentage and defaults to 50 when they never played together.
func PairStats(nameA, nameB string, matches []league.Match) PairRecord {
	rec := PairRecord{WinRate: 50}
	for _, m := range matches {
		if !m.IsDouble {
			continue
		}
		team := m.TeamOf(nameA)
		if team == 0 || team != m.TeamOf(nameB) {
			continue
		}
		rec.Matches++
		if m.Won(nameA) {
			rec.Wins++
		}
	}
	if rec.Matches > 0 {
		rec.WinRate = float64(rec.Wins) / float64(rec.Matches) * 100
	}
	return rec
}

// PairHeadToHead returns the record of pair {a1, a2} against pair {b1, b2}.
// A match counts only when its teams are exactly those two pairs.
func PairHeadToHead(a1, a2, b1, b2 string, matches []league.Match) PairMatchup {
	pairA := []string{a1, a2}
	pairB := []string{b1, b2}

	var rec PairMatchup
	for _, m := range matches {
		var aIsTeam1 bool
		switch {
		case sameMembers(m.Team1, pairA) && sameMembers(m.Team2, pairB):
			aIsTeam1 = true
		case sameMembers(m.Team2, pairA) && sameMembers(m.Team1, pairB):
			aIsTeam1 = false
		default:
			continue
		}
		rec.TotalMatches++
		if aIsTeam1 == m.Team1Won() {
			rec.TeamAWins++
		} else {
			rec.TeamBWins++
		}
	}
	return rec
}

// sameMembers reports whether two teams contain exactly the same names.
func sameMembers(team, pair []string) bool {
	if len(team) != len(pair) {
		return false
	}
	for _, name := range pair {
		if !slices.Contains(team, name) {
			return false
		}
	}
	for _, name := range team {
		if !slices.Contains(pair, name) {
			return false
		}
	}
	return true
}

// DoublesRecord returns the player's personal doubles wins and matches.
func DoublesRecord(name string, matches []league.Match) (wins, total int) {
	for _, m := range matches {
		if !m.IsDouble || !m.Involves(name) {
			continue
		}
		total++
		if m.Won(name) {
			wins++
		}
	}
	return wins, total
}
