package stats

import (
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
)

var day0 = time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

// singles builds a singles match played `offset` hours after day0.
func singles(winner, loser string, ws, ls int, offset int) league.Match {
	return league.Match{
		ID:       winner + "-" + loser + "-" + time.Duration(offset).String(),
		Team1:    []string{winner},
		Team2:    []string{loser},
		Score1:   ws,
		Score2:   ls,
		PlayedAt: day0.Add(time.Duration(offset) * time.Hour),
	}
}

// doubles builds a doubles match won by w1 & w2.
func doubles(w1, w2, l1, l2 string, ws, ls int, offset int) league.Match {
	return league.Match{
		Team1:    []string{w1, w2},
		Team2:    []string{l1, l2},
		Score1:   ws,
		Score2:   ls,
		IsDouble: true,
		PlayedAt: day0.Add(time.Duration(offset) * time.Hour),
	}
}

func players(names ...string) []league.Player {
	out := make([]league.Player, 0, len(names))
	for _, n := range names {
		out = append(out, league.Player{ID: "id-" + n, Name: n})
	}
	return out
}
