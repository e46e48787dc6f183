package processor

import (
	"context"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/notifier"
)

// Store defines the database operations required by the processor.
type Store interface {
	league.Repository

	GetPlayerByName(ctx context.Context, name string) (*league.Player, error)
	IncrementLeaderDays(ctx context.Context, id string, date string) (*league.Player, error)

	GetMatch(ctx context.Context, id string) (*league.Match, error)
	CreateMatch(ctx context.Context, match league.Match) (*league.Match, error)
	UpdateMatch(ctx context.Context, match league.Match) (*league.Match, error)
	DeleteMatch(ctx context.Context, id string) error

	GetMetadata(ctx context.Context, key string) (string, bool, error)
	SetMetadata(ctx context.Context, key, value string) error
}

// Notifier defines the notification operations required by the processor.
// This is now an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
