package notifier

import (
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
)

// Notifier defines a high-level interface for sending notifications about league events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For recorded matches
	SendMatchResult(match league.Match, award scoring.Award, dryRun bool) error
	// For the scheduled daily recap
	SendDailyInsights(date time.Time, insights []string, dryRun bool) error
	// For slash commands
	SendLeaderboard(players []league.Player, dryRun bool) error
	SendPlayerStats(player league.Player, advanced stats.AdvancedStats, dryRun bool) error
	SendPlayerNotFound(query string, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(players []league.Player) (any, error)
	FormatPlayerStatsResponse(player league.Player, advanced stats.AdvancedStats) (any, error)
	FormatPlayerNotFoundResponse(query string) (any, error)
	FormatSinglesPredictionResponse(prediction stats.SinglesPrediction) (any, error)
	FormatDoublesPredictionResponse(prediction stats.DoublesPrediction) (any, error)
}
