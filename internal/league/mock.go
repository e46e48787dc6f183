package league

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	ListPlayersFunc         func(ctx context.Context) ([]Player, error)
	ListMatchesFunc         func(ctx context.Context) ([]Match, error)
	SavePlayerAggregateFunc func(ctx context.Context, id string, agg Aggregate) (*Player, error)
	GetPlayerFunc           func(ctx context.Context, id string) (*Player, error)
	GetPlayerByNameFunc     func(ctx context.Context, name string) (*Player, error)
	CreatePlayerFunc        func(ctx context.Context, player Player) (*Player, error)
	DeletePlayerFunc        func(ctx context.Context, id string) error
	IncrementLeaderDaysFunc func(ctx context.Context, id string, date string) (*Player, error)
	GetMatchFunc            func(ctx context.Context, id string) (*Match, error)
	CreateMatchFunc         func(ctx context.Context, match Match) (*Match, error)
	UpdateMatchFunc         func(ctx context.Context, match Match) (*Match, error)
	DeleteMatchFunc         func(ctx context.Context, id string) error
	ListReportsFunc         func(ctx context.Context) ([]Report, error)
	CreateReportFunc        func(ctx context.Context, report Report) (*Report, error)
	DeleteReportFunc        func(ctx context.Context, id string) error
	GetMetadataFunc         func(ctx context.Context, key string) (string, bool, error)
	SetMetadataFunc         func(ctx context.Context, key, value string) error

	// Call records
	SavePlayerAggregateCalls []SaveAggregateCall
	IncrementLeaderDaysCalls []struct {
		ID   string
		Date string
	}
	CreateMatchCalls []Match
	UpdateMatchCalls []Match
	DeleteMatchCalls []string
	SetMetadataCalls []struct {
		Key   string
		Value string
	}
}

// SaveAggregateCall holds the arguments for a call to SavePlayerAggregate.
type SaveAggregateCall struct {
	ID        string
	Aggregate Aggregate
}

var _ Store = (*MockStore)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SavePlayerAggregateCalls = nil
	m.IncrementLeaderDaysCalls = nil
	m.CreateMatchCalls = nil
	m.UpdateMatchCalls = nil
	m.DeleteMatchCalls = nil
	m.SetMetadataCalls = nil
}

func (m *MockStore) ListPlayers(ctx context.Context) ([]Player, error) {
	if m.ListPlayersFunc != nil {
		return m.ListPlayersFunc(ctx)
	}
	return []Player{}, nil
}

func (m *MockStore) ListMatches(ctx context.Context) ([]Match, error) {
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc(ctx)
	}
	return []Match{}, nil
}

func (m *MockStore) SavePlayerAggregate(ctx context.Context, id string, agg Aggregate) (*Player, error) {
	m.mu.Lock()
	m.SavePlayerAggregateCalls = append(m.SavePlayerAggregateCalls, SaveAggregateCall{ID: id, Aggregate: agg})
	m.mu.Unlock()
	if m.SavePlayerAggregateFunc != nil {
		return m.SavePlayerAggregateFunc(ctx, id, agg)
	}
	return &Player{ID: id, Wins: agg.Wins, Losses: agg.Losses, Points: agg.Points, History: agg.History, BestRank: agg.BestRank}, nil
}

func (m *MockStore) GetPlayer(ctx context.Context, id string) (*Player, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, id)
	}
	return nil, ErrPlayerNotFound
}

func (m *MockStore) GetPlayerByName(ctx context.Context, name string) (*Player, error) {
	if m.GetPlayerByNameFunc != nil {
		return m.GetPlayerByNameFunc(ctx, name)
	}
	return nil, ErrPlayerNotFound
}

func (m *MockStore) CreatePlayer(ctx context.Context, player Player) (*Player, error) {
	if m.CreatePlayerFunc != nil {
		return m.CreatePlayerFunc(ctx, player)
	}
	return &player, nil
}

func (m *MockStore) DeletePlayer(ctx context.Context, id string) error {
	if m.DeletePlayerFunc != nil {
		return m.DeletePlayerFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) IncrementLeaderDays(ctx context.Context, id string, date string) (*Player, error) {
	m.mu.Lock()
	m.IncrementLeaderDaysCalls = append(m.IncrementLeaderDaysCalls, struct {
		ID   string
		Date string
	}{id, date})
	m.mu.Unlock()
	if m.IncrementLeaderDaysFunc != nil {
		return m.IncrementLeaderDaysFunc(ctx, id, date)
	}
	return &Player{ID: id}, nil
}

func (m *MockStore) GetMatch(ctx context.Context, id string) (*Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(ctx, id)
	}
	return nil, ErrMatchNotFound
}

func (m *MockStore) CreateMatch(ctx context.Context, match Match) (*Match, error) {
	m.mu.Lock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, match)
	m.mu.Unlock()
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(ctx, match)
	}
	if match.ID == "" {
		match.ID = "mock-match"
	}
	return &match, nil
}

func (m *MockStore) UpdateMatch(ctx context.Context, match Match) (*Match, error) {
	m.mu.Lock()
	m.UpdateMatchCalls = append(m.UpdateMatchCalls, match)
	m.mu.Unlock()
	if m.UpdateMatchFunc != nil {
		return m.UpdateMatchFunc(ctx, match)
	}
	return &match, nil
}

func (m *MockStore) DeleteMatch(ctx context.Context, id string) error {
	m.mu.Lock()
	m.DeleteMatchCalls = append(m.DeleteMatchCalls, id)
	m.mu.Unlock()
	if m.DeleteMatchFunc != nil {
		return m.DeleteMatchFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) ListReports(ctx context.Context) ([]Report, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx)
	}
	return []Report{}, nil
}

func (m *MockStore) CreateReport(ctx context.Context, report Report) (*Report, error) {
	if m.CreateReportFunc != nil {
		return m.CreateReportFunc(ctx, report)
	}
	return &report, nil
}

func (m *MockStore) DeleteReport(ctx context.Context, id string) error {
	if m.DeleteReportFunc != nil {
		return m.DeleteReportFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(ctx, key)
	}
	return "", false, nil
}

func (m *MockStore) SetMetadata(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.SetMetadataCalls = append(m.SetMetadataCalls, struct {
		Key   string
		Value string
	}{key, value})
	m.mu.Unlock()
	if m.SetMetadataFunc != nil {
		return m.SetMetadataFunc(ctx, key, value)
	}
	return nil
}
