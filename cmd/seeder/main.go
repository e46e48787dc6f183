package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/pingpong-league/internal/database"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/stats"
	"github.com/spf13/cobra"
)

var seedPlayers = []string{"Seeder Alice", "Seeder Bob", "Seeder Carl", "Seeder Dana", "Seeder Eve", "Seeder Frank"}

var (
	numMatches int
	days       int
	seed       int64
)

var rootCmd = &cobra.Command{
	Use:   "pingpong-seeder",
	Short: "Fill the league database with demo players and random matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info("Starting database seeder...")
		db, teardown, err := database.InitDB(loadConfig())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer teardown()

		return seedLeague(cmd.Context(), league.New(db), rand.New(rand.NewSource(seed)), numMatches, days)
	},
}

func init() {
	rootCmd.Flags().IntVar(&numMatches, "matches", 500, "Number of matches to generate")
	rootCmd.Flags().IntVar(&days, "days", 90, "Spread matches over this many past days")
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
}

// Simplified config loading for the script
func loadConfig() (dbName, primaryURL, authToken, migrationsDir string) {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	dbName = os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "league.db"
	}
	migrationsDir = os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "./migrations"
	}
	return dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"), migrationsDir
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal("Seeder failed", "error", err)
	}
}

// seedLeague ensures the demo players exist, inserts n random matches and
// recalculates every player's aggregates.
func seedLeague(ctx context.Context, store league.Store, rng *rand.Rand, n, days int) error {
	for _, name := range seedPlayers {
		_, err := store.GetPlayerByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, league.ErrPlayerNotFound) {
			return fmt.Errorf("failed to look up player %s: %w", name, err)
		}
		if _, err := store.CreatePlayer(ctx, league.Player{ID: uuid.NewString(), Name: name}); err != nil {
			return fmt.Errorf("failed to insert dummy player %s: %w", name, err)
		}
	}
	log.Info("Ensured dummy players exist.", "players", len(seedPlayers))

	startTime := time.Now()
	for i := 0; i < n; i++ {
		if _, err := store.CreateMatch(ctx, randomMatch(rng, days)); err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
		if (i+1)%100 == 0 {
			log.Info("Inserted matches", "completed", i+1, "total", n)
		}
	}
	log.Info("Successfully inserted all dummy matches.", "duration", time.Since(startTime))

	players, err := store.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}
	matches, err := store.ListMatches(ctx)
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}
	for _, u := range stats.Recalculate(players, matches, stats.Options{Strategy: stats.FullHistory}) {
		if _, err := store.SavePlayerAggregate(ctx, u.PlayerID, u.Aggregate); err != nil {
			log.Error("Failed to save player aggregate", "player", u.Name, "error", err)
		}
	}
	log.Info("Recalculated player stats", "players", len(players), "matches", len(matches))
	return nil
}

// randomMatch draws a singles or doubles match between distinct seeded players.
func randomMatch(rng *rand.Rand, days int) league.Match {
	isDouble := rng.Intn(3) == 0
	size := 1
	if isDouble {
		size = 2
	}
	order := rng.Perm(len(seedPlayers))
	team1 := make([]string, 0, size)
	team2 := make([]string, 0, size)
	for i := 0; i < size; i++ {
		team1 = append(team1, seedPlayers[order[i]])
		team2 = append(team2, seedPlayers[order[size+i]])
	}

	winner, loser := 21, rng.Intn(21)
	if rng.Intn(10) == 0 {
		// deuce
		loser = 20
	}
	score1, score2 := winner, loser
	if rng.Intn(2) == 0 {
		score1, score2 = loser, winner
	}

	return league.Match{
		ID:       uuid.NewString(),
		Team1:    team1,
		Team2:    team2,
		Score1:   score1,
		Score2:   score2,
		IsDouble: isDouble,
		PlayedAt: time.Now().Add(-time.Duration(rng.Intn(days*24*60)) * time.Minute).UTC(),
	}
}
