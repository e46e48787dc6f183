package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mauv0809/pingpong-league/internal/league"
)

const (
	// WinningScore is the minimum score the winner must reach.
	WinningScore = 21

	overtimeWinnerPoints = 7
	overtimeLoserPoints  = 3
	basePoints           = 10
	bonusFreeMargin      = 2
	bonusPerPoint        = 0.5
)

// ErrInvalidScore is returned for scorelines that cannot end a match.
var ErrInvalidScore = errors.New("invalid score")

// Award is the number of league points each side receives for a match.
type Award struct {
	Winner float64 `json:"winner"`
	Loser  float64 `json:"loser"`
}

// AwardPoints maps a final scoreline to league points. A 21-20 finish is
// split 7/3. Every other win is worth 10 plus half a point for each point of
// margin beyond 2; the loser gets nothing. Inputs are not validated.
func AwardPoints(winnerScore, loserScore int) Award {
	if winnerScore == 21 && loserScore == 20 {
		return Award{Winner: overtimeWinnerPoints, Loser: overtimeLoserPoints}
	}
	bonus := math.Max(0, float64(winnerScore-loserScore-bonusFreeMargin)*bonusPerPoint)
	return Award{Winner: basePoints + bonus, Loser: 0}
}

// Policy applies optional league-specific limits on top of AwardPoints.
type Policy struct {
	// Cap limits the winner's points when greater than zero.
	Cap float64
}

// Award returns the points for a scoreline under this policy.
func (p Policy) Award(winnerScore, loserScore int) Award {
	award := AwardPoints(winnerScore, loserScore)
	if p.Cap > 0 && award.Winner > p.Cap {
		award.Winner = p.Cap
	}
	return award
}

// AwardMatch returns the points for a recorded match.
func (p Policy) AwardMatch(m league.Match) Award {
	return p.Award(m.WinnerScore(), m.LoserScore())
}

// ValidateScore rejects ties, negative scores and matches where nobody reached 21.
func ValidateScore(score1, score2 int) error {
	switch {
	case score1 < 0 || score2 < 0:
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidScore)
	case score1 == score2:
		return fmt.Errorf("%w: scores cannot be equal", ErrInvalidScore)
	case max(score1, score2) < WinningScore:
		return fmt.Errorf("%w: the winner must reach at least %d", ErrInvalidScore, WinningScore)
	}
	return nil
}

// FormatPoints renders whole numbers without decimals and everything else with one.
func FormatPoints(points float64) string {
	if points == math.Trunc(points) {
		return strconv.FormatFloat(points, 'f', 0, 64)
	}
	return strconv.FormatFloat(points, 'f', 1, 64)
}
