package config

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	Store         StoreConfig
	League        LeagueConfig
	Schedule      ScheduleConfig
	ProjectID     string
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// StoreConfig selects where players and matches live.
// Backend is either "sql" (Turso/SQLite) or "rest" (a PostgREST-style API).
type StoreConfig struct {
	Backend string
	RestURL string
	RestKey string
}

// LeagueConfig tunes the statistics engine.
type LeagueConfig struct {
	RecalcStrategy string
	RollingWindow  int
	PointsCap      float64
}

type ScheduleConfig struct {
	LeaderCheckHour int
	Timezone        string
	InsightsCron    string
}
