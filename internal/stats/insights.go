package stats

import (
	"cmp"
	"fmt"
	"hash/fnv"
	"slices"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
)

const (
	maxDailyInsights   = 5
	winStreakMention   = 4
	lossStreakMention  = 3
	hotFormMention     = 8
	closeMargin        = 2
	closeWinnerScore   = 20
	blowoutMargin      = 10
	pairDayDecisions   = 3
	closeDayMinMatches = 3
	closeDayShare      = 0.6
	dayWinLeaderWins   = 4
	revengeLookback    = 5
	revengeMinLosses   = 3
)

// NoMatchesInsight is returned for days without any match.
const NoMatchesInsight = "No matches played today. The tables are waiting! 🏓"

// DailyInsights returns up to five short stories about the matches played on
// the calendar day of date, in date's location.
func DailyInsights(matches []league.Match, players []league.Player, date time.Time) []string {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	ordered := chronological(matches)
	var today, upToToday []league.Match
	for _, m := range ordered {
		if m.PlayedAt.Before(dayEnd) {
			upToToday = append(upToToday, m)
			if !m.PlayedAt.Before(dayStart) {
				today = append(today, m)
			}
		}
	}
	if len(today) == 0 {
		return []string{NoMatchesInsight}
	}

	known := make(map[string]bool, len(players))
	for _, p := range players {
		known[p.Name] = true
	}
	seed := dayStart.Format(time.DateOnly)

	var insights []string
	insights = append(insights, streakInsights(today, upToToday, known, seed)...)
	insights = append(insights, revengeInsights(today, upToToday, dayStart, seed)...)
	insights = append(insights, marginInsights(today, seed)...)
	insights = append(insights, pairInsights(today)...)
	insights = append(insights, funFacts(today, seed)...)

	if len(insights) > maxDailyInsights {
		insights = insights[:maxDailyInsights]
	}
	return insights
}

// pick deterministically chooses one phrasing for a given day and subject.
func pick(seed, subject string, templates ...string) string {
	h := fnv.New32a()
	h.Write([]byte(seed + "|" + subject))
	return templates[int(h.Sum32()%uint32(len(templates)))]
}

// playersOfDay returns the known players who played today, sorted by name.
func playersOfDay(today []league.Match, known map[string]bool) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range today {
		for _, team := range [][]string{m.Team1, m.Team2} {
			for _, name := range team {
				if known[name] && !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	slices.Sort(names)
	return names
}

func streakInsights(today, upToToday []league.Match, known map[string]bool, seed string) []string {
	var out []string
	for _, name := range playersOfDay(today, known) {
		history := RecentForm(name, upToToday, len(upToToday))
		streak := CurrentStreak(history)
		switch {
		case streak.Type == league.Win && streak.Count >= winStreakMention:
			out = append(out, fmt.Sprintf(pick(seed, name,
				"%s is on a %d-match winning streak 🔥",
				"Nobody can stop %s: %d wins in a row",
			), name, streak.Count))
		case streak.Type == league.Loss && streak.Count >= lossStreakMention:
			out = append(out, fmt.Sprintf(pick(seed, name,
				"%s has lost %d in a row. Time for a comeback?",
				"Tough run for %s: %d defeats on the trot",
			), name, streak.Count))
		default:
			form := history
			if len(form) > DefaultFormWindow {
				form = form[len(form)-DefaultFormWindow:]
			}
			if wins := countWins(form); wins >= hotFormMention {
				out = append(out, fmt.Sprintf("%s has won %d of the last %d matches", name, wins, len(form)))
			}
		}
	}
	return out
}

// revengeInsights finds singles winners who had lost most of their recent
// meetings with today's opponent before today.
func revengeInsights(today, upToToday []league.Match, dayStart time.Time, seed string) []string {
	var out []string
	mentioned := make(map[string]bool)
	for _, m := range today {
		if m.IsDouble || len(m.Team1) != 1 || len(m.Team2) != 1 {
			continue
		}
		winner, loser := m.Winners()[0], m.Losers()[0]
		key := winner + "|" + loser
		if mentioned[key] {
			continue
		}

		var prior []league.Match
		for _, p := range upToToday {
			if !p.PlayedAt.Before(dayStart) {
				break
			}
			if !p.IsDouble && faced(p, winner, loser) {
				prior = append(prior, p)
			}
		}
		if len(prior) > revengeLookback {
			prior = prior[len(prior)-revengeLookback:]
		}
		losses := 0
		for _, p := range prior {
			if p.Won(loser) {
				losses++
			}
		}
		if losses >= revengeMinLosses {
			mentioned[key] = true
			out = append(out, fmt.Sprintf(pick(seed, key,
				"Revenge! %s beat %s after losing %d of their last %d meetings",
				"Sweet revenge for %s against %s, who had won %d of the last %d",
			), winner, loser, losses, len(prior)))
		}
	}
	return out
}

// marginInsights reports the tightest close battle and the biggest blowout of the day.
func marginInsights(today []league.Match, seed string) []string {
	var closest, blowout *league.Match
	for i := range today {
		m := today[i]
		if m.Margin() <= closeMargin && m.WinnerScore() >= closeWinnerScore {
			if closest == nil || m.Margin() < closest.Margin() {
				closest = &today[i]
			}
		}
		if m.Margin() >= blowoutMargin {
			if blowout == nil || m.Margin() > blowout.Margin() {
				blowout = &today[i]
			}
		}
	}

	var out []string
	if closest != nil {
		out = append(out, fmt.Sprintf(pick(seed, "close",
			"Nail-biter: %s edged %s %d-%d",
			"What a battle! %s held off %s %d-%d",
		), teamName(closest.Winners()), teamName(closest.Losers()), closest.WinnerScore(), closest.LoserScore()))
	}
	if blowout != nil {
		out = append(out, fmt.Sprintf(pick(seed, "blowout",
			"Demolition: %s crushed %s %d-%d",
			"No mercy from %s against %s: %d-%d",
		), teamName(blowout.Winners()), teamName(blowout.Losers()), blowout.WinnerScore(), blowout.LoserScore()))
	}
	return out
}

type dayPair struct {
	names  [2]string
	wins   int
	losses int
}

func pairInsights(today []league.Match) []string {
	pairs := make(map[[2]string]*dayPair)
	record := func(team []string, won bool) {
		if len(team) != 2 {
			return
		}
		key := [2]string{min(team[0], team[1]), max(team[0], team[1])}
		p, ok := pairs[key]
		if !ok {
			p = &dayPair{names: key}
			pairs[key] = p
		}
		if won {
			p.wins++
		} else {
			p.losses++
		}
	}
	for _, m := range today {
		if !m.IsDouble {
			continue
		}
		record(m.Team1, m.Team1Won())
		record(m.Team2, !m.Team1Won())
	}

	sorted := make([]*dayPair, 0, len(pairs))
	for _, p := range pairs {
		sorted = append(sorted, p)
	}
	slices.SortFunc(sorted, func(a, b *dayPair) int {
		if c := cmp.Compare(a.names[0], b.names[0]); c != 0 {
			return c
		}
		return cmp.Compare(a.names[1], b.names[1])
	})

	var out []string
	for _, p := range sorted {
		switch {
		case p.wins >= pairDayDecisions && p.losses == 0:
			out = append(out, fmt.Sprintf("Dream team: %s & %s went %d-0 together today", p.names[0], p.names[1], p.wins))
		case p.losses >= pairDayDecisions && p.wins == 0:
			out = append(out, fmt.Sprintf("Cursed pair: %s & %s lost all %d of their matches together today", p.names[0], p.names[1], p.losses))
		}
	}
	return out
}

func funFacts(today []league.Match, seed string) []string {
	var out []string

	tight := 0
	for _, m := range today {
		if m.Margin() <= closeMargin {
			tight++
		}
	}
	if len(today) >= closeDayMinMatches && float64(tight)/float64(len(today)) >= closeDayShare {
		out = append(out, fmt.Sprintf(pick(seed, "close-day",
			"%d of today's %d matches were decided by 2 points or less",
			"Tight day at the table: %d of %d matches went down to the wire",
		), tight, len(today)))
	}

	wins := make(map[string]int)
	for _, m := range today {
		for _, name := range m.Winners() {
			wins[name]++
		}
	}
	leader, most := "", 0
	for name, w := range wins {
		if w > most || (w == most && name < leader) {
			leader, most = name, w
		}
	}
	if most >= dayWinLeaderWins {
		out = append(out, fmt.Sprintf("%s was the player of the day with %d wins", leader, most))
	}
	return out
}

func teamName(team []string) string {
	switch len(team) {
	case 0:
		return ""
	case 1:
		return team[0]
	}
	return team[0] + " & " + team[1]
}
