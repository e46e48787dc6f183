package notifier

import (
	"sync"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
)

var _ Notifier = (*Mock)(nil)

// SendMatchResultCall holds the arguments for a call to SendMatchResult.
type SendMatchResultCall struct {
	Match  league.Match
	Award  scoring.Award
	DryRun bool
}

// SendDailyInsightsCall holds the arguments for a call to SendDailyInsights.
type SendDailyInsightsCall struct {
	Date     time.Time
	Insights []string
	DryRun   bool
}

// SendPlayerStatsCall holds the arguments for a call to SendPlayerStats.
type SendPlayerStatsCall struct {
	Player   league.Player
	Advanced stats.AdvancedStats
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for send functions
	SendMatchResultFunc    func(match league.Match, award scoring.Award, dryRun bool) error
	SendDailyInsightsFunc  func(date time.Time, insights []string, dryRun bool) error
	SendLeaderboardFunc    func(players []league.Player, dryRun bool) error
	SendPlayerStatsFunc    func(player league.Player, advanced stats.AdvancedStats, dryRun bool) error
	SendPlayerNotFoundFunc func(query string, dryRun bool) error

	// Spies for format functions
	FormatLeaderboardResponseFunc       func(players []league.Player) (any, error)
	FormatPlayerStatsResponseFunc       func(player league.Player, advanced stats.AdvancedStats) (any, error)
	FormatPlayerNotFoundResponseFunc    func(query string) (any, error)
	FormatSinglesPredictionResponseFunc func(prediction stats.SinglesPrediction) (any, error)
	FormatDoublesPredictionResponseFunc func(prediction stats.DoublesPrediction) (any, error)

	// Call records
	SendMatchResultCalls    []SendMatchResultCall
	SendDailyInsightsCalls  []SendDailyInsightsCall
	SendLeaderboardCalls    [][]league.Player
	SendPlayerStatsCalls    []SendPlayerStatsCall
	SendPlayerNotFoundCalls []string

	// Call records for format functions
	LastLeaderboardResponse    any
	LastPlayerStatsResponse    any
	LastPlayerNotFoundResponse any
	LastSinglesPrediction      *stats.SinglesPrediction
	LastDoublesPrediction      *stats.DoublesPrediction
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = nil
	m.SendDailyInsightsCalls = nil
	m.SendLeaderboardCalls = nil
	m.SendPlayerStatsCalls = nil
	m.SendPlayerNotFoundCalls = nil
	m.LastLeaderboardResponse = nil
	m.LastPlayerStatsResponse = nil
	m.LastPlayerNotFoundResponse = nil
	m.LastSinglesPrediction = nil
	m.LastDoublesPrediction = nil
}

func (m *Mock) SendMatchResult(match league.Match, award scoring.Award, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, SendMatchResultCall{Match: match, Award: award, DryRun: dryRun})
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(match, award, dryRun)
	}
	return nil
}

func (m *Mock) SendDailyInsights(date time.Time, insights []string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDailyInsightsCalls = append(m.SendDailyInsightsCalls, SendDailyInsightsCall{Date: date, Insights: insights, DryRun: dryRun})
	if m.SendDailyInsightsFunc != nil {
		return m.SendDailyInsightsFunc(date, insights, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(players []league.Player, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(players, dryRun)
	}
	return nil
}

func (m *Mock) SendPlayerStats(player league.Player, advanced stats.AdvancedStats, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPlayerStatsCalls = append(m.SendPlayerStatsCalls, SendPlayerStatsCall{Player: player, Advanced: advanced})
	if m.SendPlayerStatsFunc != nil {
		return m.SendPlayerStatsFunc(player, advanced, dryRun)
	}
	return nil
}

func (m *Mock) SendPlayerNotFound(query string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPlayerNotFoundCalls = append(m.SendPlayerNotFoundCalls, query)
	if m.SendPlayerNotFoundFunc != nil {
		return m.SendPlayerNotFoundFunc(query, dryRun)
	}
	return nil
}

func (m *Mock) FormatLeaderboardResponse(players []league.Player) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		resp, err := m.FormatLeaderboardResponseFunc(players)
		m.LastLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_leaderboard", nil
}

func (m *Mock) FormatPlayerStatsResponse(player league.Player, advanced stats.AdvancedStats) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayerStatsResponseFunc != nil {
		resp, err := m.FormatPlayerStatsResponseFunc(player, advanced)
		m.LastPlayerStatsResponse = resp
		return resp, err
	}
	return "formatted_player_stats", nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayerNotFoundResponseFunc != nil {
		resp, err := m.FormatPlayerNotFoundResponseFunc(query)
		m.LastPlayerNotFoundResponse = resp
		return resp, err
	}
	return "formatted_player_not_found", nil
}

func (m *Mock) FormatSinglesPredictionResponse(prediction stats.SinglesPrediction) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastSinglesPrediction = &prediction
	if m.FormatSinglesPredictionResponseFunc != nil {
		return m.FormatSinglesPredictionResponseFunc(prediction)
	}
	return "formatted_singles_prediction", nil
}

func (m *Mock) FormatDoublesPredictionResponse(prediction stats.DoublesPrediction) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastDoublesPrediction = &prediction
	if m.FormatDoublesPredictionResponseFunc != nil {
		return m.FormatDoublesPredictionResponseFunc(prediction)
	}
	return "formatted_doubles_prediction", nil
}
