package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                     sync.Mutex
	recalculations         int
	recalculationDurations []float64
	playerSaveFailures     int
	matchesRecorded        int
	leaderDayIncrements    int
	slackNotifSent         int
	slackNotifFailed       int
	startupTime            float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		recalculationDurations: make([]float64, 0),
	}
}

func (m *Mock) IncRecalculations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recalculations++
}

func (m *Mock) ObserveRecalculationDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recalculationDurations = append(m.recalculationDurations, duration)
}

func (m *Mock) IncPlayerSaveFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerSaveFailures++
}

func (m *Mock) IncMatchesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesRecorded++
}

func (m *Mock) IncLeaderDayIncrements() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderDayIncrements++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Recalculations returns the number of times IncRecalculations was called.
func (m *Mock) Recalculations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recalculations
}

// RecalculationDurations returns every observed recalculation duration.
func (m *Mock) RecalculationDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.recalculationDurations...)
}

// PlayerSaveFailures returns the number of times IncPlayerSaveFailures was called.
func (m *Mock) PlayerSaveFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerSaveFailures
}

// MatchesRecorded returns the number of times IncMatchesRecorded was called.
func (m *Mock) MatchesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesRecorded
}

func (m *Mock) LeaderDayIncrements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaderDayIncrements
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
