package processor

import (
	"errors"
	"sync"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/metrics"
	"github.com/mauv0809/pingpong-league/internal/pubsub"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
)

var (
	// ErrInvalidTeams is returned for matches with wrong team sizes, blank or repeated names.
	ErrInvalidTeams = errors.New("invalid teams")
	// ErrPartialWriteBack wraps the per-player save failures of a recalculation.
	// The match mutation that triggered it has already been stored.
	ErrPartialWriteBack = errors.New("some player aggregates could not be saved")
)

// LeaderDateKey is the app_metadata key holding the last leader-day increment (YYYY-MM-DD).
const LeaderDateKey = "last_leader_increment_date"

// Config tunes the processor.
type Config struct {
	Stats stats.Options
	// LeaderCheckHour is the local hour from which the daily leader is credited.
	LeaderCheckHour int
	Location        *time.Location
}

// Processor handles the business logic of recording matches and keeping
// player aggregates in sync with the match log.
type Processor struct {
	store    Store
	pubsub   pubsub.PubSubClient
	notifier Notifier
	metrics  metrics.Metrics
	config   Config
	now      func() time.Time

	// mu serializes recalculations with match mutations so a pass never
	// reads a half-applied change.
	mu sync.Mutex
}

// MatchResult is what recording or editing a match produced.
type MatchResult struct {
	Match     league.Match         `json:"match"`
	Award     scoring.Award        `json:"award"`
	Standings []stats.PlayerUpdate `json:"standings"`
}

// PlayerStats bundles a player's stored aggregates with the derived statistics.
type PlayerStats struct {
	Player   league.Player       `json:"player"`
	Advanced stats.AdvancedStats `json:"advanced"`
}
