package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
)

// Singles weights.
const (
	weightHeadToHead = 0.40
	weightForm       = 0.35
	weightWinRate    = 0.25
)

// Doubles weights.
const (
	weightPairSynergy    = 0.25
	weightPairHeadToHead = 0.30
	weightIndividual     = 0.45
)

const (
	maxSinglesInsights = 3
	hotFormWins        = 7
	coldFormWins       = 3
	anchorMinMeetings  = 3
)

// SinglesPrediction is the estimated chance of each player winning, in percent.
type SinglesPrediction struct {
	PlayerA    string           `json:"player_a"`
	PlayerB    string           `json:"player_b"`
	ProbA      float64          `json:"prob_a"`
	ProbB      float64          `json:"prob_b"`
	HeadToHead HeadToHeadRecord `json:"head_to_head"`
	Insights   []string         `json:"insights"`
}

// PredictSingles blends head-to-head record, current form and overall win
// rate into a pair of probabilities that always sum to 100.
func PredictSingles(a, b league.Player, matches []league.Match, now time.Time) SinglesPrediction {
	h2h := HeadToHead(a.Name, b.Name, matches)
	formA := RecentForm(a.Name, matches, DefaultFormWindow)
	formB := RecentForm(b.Name, matches, DefaultFormWindow)

	h2hA, h2hB := weightHeadToHead/2, weightHeadToHead/2
	if h2h.TotalMatches > 0 {
		h2hA = weightHeadToHead * float64(h2h.WinsA) / float64(h2h.TotalMatches)
		h2hB = weightHeadToHead * float64(h2h.WinsB) / float64(h2h.TotalMatches)
	}

	scoreA := h2hA + formScore(formA) + winRateScore(a)
	scoreB := h2hB + formScore(formB) + winRateScore(b)
	probA, probB := normalize(scoreA, scoreB)

	return SinglesPrediction{
		PlayerA:    a.Name,
		PlayerB:    b.Name,
		ProbA:      probA,
		ProbB:      probB,
		HeadToHead: h2h,
		Insights:   singlesInsights(a.Name, b.Name, h2h, formA, formB, now),
	}
}

func formScore(form []league.Outcome) float64 {
	if len(form) == 0 {
		return weightForm * 0.5
	}
	return weightForm * float64(countWins(form)) / float64(len(form))
}

func winRateScore(p league.Player) float64 {
	rate, ok := p.WinRate()
	if !ok {
		return weightWinRate * 0.5
	}
	return weightWinRate * rate
}

// normalize turns two non-negative scores into percentages summing to 100.
func normalize(a, b float64) (float64, float64) {
	total := a + b
	if total <= 0 {
		return 50, 50
	}
	probA := a / total * 100
	return probA, 100 - probA
}

func singlesInsights(nameA, nameB string, h2h HeadToHeadRecord, formA, formB []league.Outcome, now time.Time) []string {
	insights := make([]string, 0, maxSinglesInsights)

	if h2h.TotalMatches > 0 {
		switch {
		case h2h.WinsA > h2h.WinsB:
			insights = append(insights, fmt.Sprintf("%s leads the head-to-head %d-%d", nameA, h2h.WinsA, h2h.WinsB))
		case h2h.WinsB > h2h.WinsA:
			insights = append(insights, fmt.Sprintf("%s leads the head-to-head %d-%d", nameB, h2h.WinsB, h2h.WinsA))
		default:
			insights = append(insights, fmt.Sprintf("Head-to-head is all square at %d-%d", h2h.WinsA, h2h.WinsB))
		}
	}

	forms := []struct {
		name string
		form []league.Outcome
	}{{nameA, formA}, {nameB, formB}}
	for _, f := range forms {
		wins := countWins(f.form)
		switch {
		case wins >= hotFormWins:
			insights = append(insights, fmt.Sprintf("%s is on fire: %d wins in the last %d matches", f.name, wins, len(f.form)))
		case len(f.form) == DefaultFormWindow && wins <= coldFormWins:
			insights = append(insights, fmt.Sprintf("%s is struggling: only %d wins in the last %d matches", f.name, wins, DefaultFormWindow))
		}
	}

	if h2h.LastMatchDate != nil {
		days := int(math.Floor(now.Sub(*h2h.LastMatchDate).Hours() / 24))
		insights = append(insights, fmt.Sprintf("Last win by %s: %s", h2h.LastWinner, daysAgo(days)))
	}

	if len(insights) > maxSinglesInsights {
		insights = insights[:maxSinglesInsights]
	}
	return insights
}

func daysAgo(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	}
	return fmt.Sprintf("%d days ago", days)
}

// DoublesPrediction is the estimated chance of each pair winning, in percent.
type DoublesPrediction struct {
	Team1             [2]string   `json:"team1"`
	Team2             [2]string   `json:"team2"`
	ProbTeam1         float64     `json:"prob_team1"`
	ProbTeam2         float64     `json:"prob_team2"`
	PairStatsTeam1    PairRecord  `json:"pair_stats_team1"`
	PairStatsTeam2    PairRecord  `json:"pair_stats_team2"`
	HeadToHead        PairMatchup `json:"head_to_head"`
	HeadToHeadMatches int         `json:"head_to_head_matches"`
	Insights          []string    `json:"insights"`
}

// PredictDoubles blends each pair's synergy, the pairs' record against each
// other and the players' individual doubles win rates. Players missing from
// players are treated as having no doubles history.
func PredictDoubles(a1, a2, b1, b2 string, players []league.Player, matches []league.Match) DoublesPrediction {
	known := make(map[string]bool, len(players))
	for _, p := range players {
		known[p.Name] = true
	}

	pairA := PairStats(a1, a2, matches)
	pairB := PairStats(b1, b2, matches)
	h2h := PairHeadToHead(a1, a2, b1, b2, matches)

	h2hA, h2hB := weightPairHeadToHead/2, weightPairHeadToHead/2
	if h2h.TotalMatches > 0 {
		h2hA = weightPairHeadToHead * float64(h2h.TeamAWins) / float64(h2h.TotalMatches)
		h2hB = weightPairHeadToHead * float64(h2h.TeamBWins) / float64(h2h.TotalMatches)
	}

	indA := (doublesWinRate(a1, known, matches) + doublesWinRate(a2, known, matches)) / 2
	indB := (doublesWinRate(b1, known, matches) + doublesWinRate(b2, known, matches)) / 2

	scoreA := weightPairSynergy*pairA.WinRate/100 + h2hA + weightIndividual*indA
	scoreB := weightPairSynergy*pairB.WinRate/100 + h2hB + weightIndividual*indB
	probA, probB := normalize(scoreA, scoreB)

	return DoublesPrediction{
		Team1:             [2]string{a1, a2},
		Team2:             [2]string{b1, b2},
		ProbTeam1:         probA,
		ProbTeam2:         probB,
		PairStatsTeam1:    pairA,
		PairStatsTeam2:    pairB,
		HeadToHead:        h2h,
		HeadToHeadMatches: h2h.TotalMatches,
		Insights:          doublesInsights(a1, a2, b1, b2, pairA, pairB, h2h, matches),
	}
}

func doublesWinRate(name string, known map[string]bool, matches []league.Match) float64 {
	if !known[name] {
		return 0.5
	}
	wins, total := DoublesRecord(name, matches)
	if total == 0 {
		return 0.5
	}
	return float64(wins) / float64(total)
}

func doublesInsights(a1, a2, b1, b2 string, pairA, pairB PairRecord, h2h PairMatchup, matches []league.Match) []string {
	insights := make([]string, 0, 4)

	pairs := []struct {
		first, second string
		rec           PairRecord
	}{{a1, a2, pairA}, {b1, b2, pairB}}
	for _, p := range pairs {
		if p.rec.Matches == 0 {
			insights = append(insights, fmt.Sprintf("First time together: %s & %s", p.first, p.second))
			continue
		}
		insights = append(insights, fmt.Sprintf("%s & %s have won %d of %d together (%.0f%%)",
			p.first, p.second, p.rec.Wins, p.rec.Matches, p.rec.WinRate))
	}

	if h2h.TotalMatches > 0 {
		insights = append(insights, fmt.Sprintf("These pairs have met %d times: %s & %s won %d, %s & %s won %d",
			h2h.TotalMatches, a1, a2, h2h.TeamAWins, b1, b2, h2h.TeamBWins))
	}

	anchor := HeadToHead(a1, b1, matches)
	if anchor.TotalMatches >= anchorMinMeetings {
		leader, trailer := a1, b1
		lead, trail := anchor.WinsA, anchor.WinsB
		if trail > lead {
			leader, trailer = b1, a1
			lead, trail = trail, lead
		}
		// Skewed means the leader took at least two thirds of the meetings.
		if lead*3 >= anchor.TotalMatches*2 {
			insights = append(insights, fmt.Sprintf("Anchor rivalry: %s leads %s %d-%d head-to-head", leader, trailer, lead, trail))
		}
	}
	return insights
}
