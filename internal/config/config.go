package config

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		Port:          getEnv("PORT"),
		Slack: SlackConfig{
			Token:         getEnvDefault("SLACK_BOT_TOKEN", ""),
			ChannelID:     getEnvDefault("SLACK_CHANNEL_ID", ""),
			SigningSecret: getEnvDefault("SLACK_SIGNING_SECRET", ""),
		},
		Turso: TursoConfig{
			PrimaryURL: getEnvDefault("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvDefault("TURSO_AUTH_TOKEN", ""),
		},
		Store: StoreConfig{
			Backend: getEnvDefault("STORE_BACKEND", "sql"),
			RestURL: getEnvDefault("REST_URL", ""),
			RestKey: getEnvDefault("REST_API_KEY", ""),
		},
		League: LeagueConfig{
			RecalcStrategy: getEnvDefault("RECALC_STRATEGY", "full"),
			RollingWindow:  getEnvInt("ROLLING_WINDOW", 20),
			PointsCap:      getEnvFloat("POINTS_CAP", 0),
		},
		Schedule: ScheduleConfig{
			LeaderCheckHour: getEnvInt("LEADER_CHECK_HOUR", 14),
			Timezone:        getEnvDefault("TIMEZONE", "Europe/Rome"),
			InsightsCron:    getEnvDefault("INSIGHTS_CRON", "0 20 * * *"),
		},
		ProjectID: getEnvDefault("GCP_PROJECT", ""),
	}

	if cfg.Store.Backend == "rest" && (cfg.Store.RestURL == "" || cfg.Store.RestKey == "") {
		log.Fatal("REST_URL and REST_API_KEY are required when STORE_BACKEND=rest")
	}
	return cfg
}

func getEnvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}

func getEnvFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn("Invalid number in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}
