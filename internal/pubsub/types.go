package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// noopClient is used when no GCP project is configured. Messages are
// encoded so callers see marshal errors, then dropped.
type noopClient struct{}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventMatchRecorded    EventType = "match-recorded"
	EventRecalculateStats EventType = "recalculate-stats"
)

// MatchRecordedEvent is published after a match is created, updated or deleted.
type MatchRecordedEvent struct {
	MatchID  string    `msgpack:"match_id"`
	Action   string    `msgpack:"action"`
	Team1    []string  `msgpack:"team1"`
	Team2    []string  `msgpack:"team2"`
	Score1   int       `msgpack:"score1"`
	Score2   int       `msgpack:"score2"`
	IsDouble bool      `msgpack:"is_double"`
	PlayedAt time.Time `msgpack:"played_at"`
}

// RecalculateStatsEvent asks a subscriber to rebuild every player aggregate.
type RecalculateStatsEvent struct {
	Reason      string    `msgpack:"reason"`
	RequestedAt time.Time `msgpack:"requested_at"`
}
