package league

import (
	"context"
	"errors"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrReportNotFound = errors.New("report not found")
)

// Repository is the minimal data access needed to recalculate statistics.
type Repository interface {
	ListPlayers(ctx context.Context) ([]Player, error)
	ListMatches(ctx context.Context) ([]Match, error)
	// SavePlayerAggregate overwrites the derived fields of one player.
	// It returns ErrPlayerNotFound if the player no longer exists.
	SavePlayerAggregate(ctx context.Context, id string, agg Aggregate) (*Player, error)
}

// Store defines the full set of league data operations.
type Store interface {
	Repository

	GetPlayer(ctx context.Context, id string) (*Player, error)
	GetPlayerByName(ctx context.Context, name string) (*Player, error)
	CreatePlayer(ctx context.Context, player Player) (*Player, error)
	DeletePlayer(ctx context.Context, id string) error
	IncrementLeaderDays(ctx context.Context, id string, date string) (*Player, error)

	GetMatch(ctx context.Context, id string) (*Match, error)
	CreateMatch(ctx context.Context, match Match) (*Match, error)
	UpdateMatch(ctx context.Context, match Match) (*Match, error)
	DeleteMatch(ctx context.Context, id string) error

	ListReports(ctx context.Context) ([]Report, error)
	CreateReport(ctx context.Context, report Report) (*Report, error)
	DeleteReport(ctx context.Context, id string) error

	// GetMetadata returns ok=false when the key has never been set.
	GetMetadata(ctx context.Context, key string) (value string, ok bool, err error)
	SetMetadata(ctx context.Context, key, value string) error
}
