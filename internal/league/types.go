package league

import (
	"database/sql"
	"slices"
	"sync"
	"time"
)

// store handles all database operations for the league.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Outcome is a single result in a player's history.
type Outcome string

const (
	Win  Outcome = "W"
	Loss Outcome = "L"
)

// Player is a registered league member. Name is the join key used by
// matches, so names are unique and treated as immutable.
type Player struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Description     string    `json:"description,omitempty"`
	Skill           string    `json:"skill,omitempty"`
	Lack            string    `json:"lack,omitempty"`
	Hand            string    `json:"hand,omitempty"`
	Shot            string    `json:"shot,omitempty"`
	Wins            int       `json:"wins"`
	Losses          int       `json:"losses"`
	Points          float64   `json:"points"`
	History         []Outcome `json:"history"`
	BestRank        *int      `json:"best_rank"`
	DaysAsLeader    int       `json:"days_as_leader"`
	FirstLeaderDate string    `json:"first_leader_date,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// MatchesPlayed is the number of matches behind the player's aggregates.
func (p Player) MatchesPlayed() int {
	return p.Wins + p.Losses
}

// WinRate returns the win fraction in [0,1], or ok=false without matches.
func (p Player) WinRate() (rate float64, ok bool) {
	total := p.MatchesPlayed()
	if total == 0 {
		return 0, false
	}
	return float64(p.Wins) / float64(total), true
}

// Match is a recorded singles or doubles result.
type Match struct {
	ID       string    `json:"id"`
	Team1    []string  `json:"team1"`
	Team2    []string  `json:"team2"`
	Score1   int       `json:"score1"`
	Score2   int       `json:"score2"`
	IsDouble bool      `json:"is_double"`
	PlayedAt time.Time `json:"played_at"`
}

// Team1Won reports whether team1 scored more than team2.
func (m Match) Team1Won() bool {
	return m.Score1 > m.Score2
}

// Winners returns the names on the winning team.
func (m Match) Winners() []string {
	if m.Team1Won() {
		return m.Team1
	}
	return m.Team2
}

// Losers returns the names on the losing team.
func (m Match) Losers() []string {
	if m.Team1Won() {
		return m.Team2
	}
	return m.Team1
}

func (m Match) WinnerScore() int {
	return max(m.Score1, m.Score2)
}

func (m Match) LoserScore() int {
	return min(m.Score1, m.Score2)
}

// Margin is the absolute score difference.
func (m Match) Margin() int {
	return m.WinnerScore() - m.LoserScore()
}

// TeamOf returns 1 or 2 for the team the player was on, 0 if absent.
func (m Match) TeamOf(name string) int {
	switch {
	case slices.Contains(m.Team1, name):
		return 1
	case slices.Contains(m.Team2, name):
		return 2
	}
	return 0
}

// Involves reports whether the player took part in the match.
func (m Match) Involves(name string) bool {
	return m.TeamOf(name) != 0
}

// Won reports whether the named player was on the winning team.
// It is false for players not in the match.
func (m Match) Won(name string) bool {
	team := m.TeamOf(name)
	return (team == 1 && m.Team1Won()) || (team == 2 && !m.Team1Won())
}

// Teammates returns the other members of the player's team.
func (m Match) Teammates(name string) []string {
	var team []string
	switch m.TeamOf(name) {
	case 1:
		team = m.Team1
	case 2:
		team = m.Team2
	}
	out := make([]string, 0, len(team))
	for _, n := range team {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// Opponents returns the members of the opposing team.
func (m Match) Opponents(name string) []string {
	switch m.TeamOf(name) {
	case 1:
		return m.Team2
	case 2:
		return m.Team1
	}
	return nil
}

// Report is free-text commentary attached to the league.
type Report struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Aggregate is the derived part of a player written back after a recalculation.
type Aggregate struct {
	Wins     int       `json:"wins"`
	Losses   int       `json:"losses"`
	Points   float64   `json:"points"`
	History  []Outcome `json:"history"`
	BestRank *int      `json:"best_rank"`
}
