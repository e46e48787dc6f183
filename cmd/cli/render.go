package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// renderLeaderboard prints players in the order given.
func renderLeaderboard(w io.Writer, players []league.Player) {
	if len(players) == 0 {
		fmt.Fprintln(w, "No players yet.")
		return
	}
	table := newTable(w)
	table.Header("#", "PLAYER", "PTS", "W", "L", "WIN%", "BEST", "LEADER_DAYS", "FORM")
	for i, p := range players {
		winRate := "—"
		if rate, ok := p.WinRate(); ok {
			winRate = fmt.Sprintf("%.1f%%", rate*100)
		}
		best := "—"
		if p.BestRank != nil {
			best = strconv.Itoa(*p.BestRank)
		}
		table.Append(
			strconv.Itoa(i+1),
			p.Name,
			scoring.FormatPoints(p.Points),
			strconv.Itoa(p.Wins),
			strconv.Itoa(p.Losses),
			winRate,
			best,
			strconv.Itoa(p.DaysAsLeader),
			formString(p.History, 5),
		)
	}
	table.Render()
}

func renderStreaks(w io.Writer, leaders []stats.StreakLeader) {
	if len(leaders) == 0 {
		fmt.Fprintln(w, "Nobody has won a match yet.")
		return
	}
	table := newTable(w)
	table.Header("#", "PLAYER", "BEST_STREAK")
	for i, l := range leaders {
		table.Append(strconv.Itoa(i+1), l.Name, strconv.Itoa(l.Streak.Count))
	}
	table.Render()
}

func renderHeadToHead(w io.Writer, a, b string, record stats.HeadToHeadRecord) {
	if record.TotalMatches == 0 {
		fmt.Fprintf(w, "%s and %s have never played each other.\n", a, b)
		return
	}
	fmt.Fprintf(w, "%s %d - %d %s (%d matches)\n", a, record.WinsA, record.WinsB, b, record.TotalMatches)
	if record.LastMatchDate != nil {
		fmt.Fprintf(w, "Last match on %s, won by %s\n", record.LastMatchDate.Format(time.DateOnly), record.LastWinner)
	}
}

func renderSinglesPrediction(w io.Writer, p stats.SinglesPrediction) {
	table := newTable(w)
	table.Header("PLAYER", "CHANCE")
	table.Append(p.PlayerA, fmt.Sprintf("%.1f%%", p.ProbA))
	table.Append(p.PlayerB, fmt.Sprintf("%.1f%%", p.ProbB))
	table.Render()
	renderInsights(w, p.Insights)
}

func renderDoublesPrediction(w io.Writer, p stats.DoublesPrediction) {
	table := newTable(w)
	table.Header("TEAM", "CHANCE", "TOGETHER")
	table.Append(strings.Join(p.Team1[:], " & "), fmt.Sprintf("%.1f%%", p.ProbTeam1), pairRecord(p.PairStatsTeam1))
	table.Append(strings.Join(p.Team2[:], " & "), fmt.Sprintf("%.1f%%", p.ProbTeam2), pairRecord(p.PairStatsTeam2))
	table.Render()
	renderInsights(w, p.Insights)
}

func renderInsights(w io.Writer, insights []string) {
	for _, insight := range insights {
		fmt.Fprintf(w, "  • %s\n", insight)
	}
}

func pairRecord(r stats.PairRecord) string {
	return fmt.Sprintf("%d-%d", r.Wins, r.Matches-r.Wins)
}

// formString renders the last n outcomes, oldest first.
func formString(history []league.Outcome, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	var b strings.Builder
	for _, o := range history {
		b.WriteString(string(o))
	}
	return b.String()
}

// parseMatchArgs builds a match from "team1 team2 score1 score2".
func parseMatchArgs(args []string, doubles bool) (league.Match, error) {
	score1, err := strconv.Atoi(args[2])
	if err != nil {
		return league.Match{}, fmt.Errorf("invalid score %q: %w", args[2], err)
	}
	score2, err := strconv.Atoi(args[3])
	if err != nil {
		return league.Match{}, fmt.Errorf("invalid score %q: %w", args[3], err)
	}
	team1, team2 := splitNames(args[0]), splitNames(args[1])
	size := 1
	if doubles {
		size = 2
	}
	if len(team1) != size || len(team2) != size {
		return league.Match{}, fmt.Errorf("each team needs exactly %d player(s)", size)
	}
	return league.Match{
		Team1:    team1,
		Team2:    team2,
		Score1:   score1,
		Score2:   score2,
		IsDouble: doubles,
		PlayedAt: time.Now().UTC(),
	}, nil
}

func splitNames(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
