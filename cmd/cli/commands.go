package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/stats"
	"github.com/spf13/cobra"
)

var (
	streakLimit  int
	insightsDate string
	asyncRecalc  bool
	matchDoubles bool
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(streaksCmd)
	rootCmd.AddCommand(h2hCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(recalculateCmd)
	rootCmd.AddCommand(leaderDaysCmd)

	streaksCmd.Flags().IntVar(&streakLimit, "limit", 5, "How many players to show")
	insightsCmd.Flags().StringVar(&insightsDate, "date", "", "Day to summarize (YYYY-MM-DD), today by default")
	recalculateCmd.Flags().BoolVar(&asyncRecalc, "async", false, "Hand the recalculation to Pub/Sub subscribers")
	recordCmd.Flags().BoolVar(&matchDoubles, "doubles", false, "Record a doubles match")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List registered players",
	RunE: func(cmd *cobra.Command, args []string) error {
		var players []league.Player
		if err := fetchJSON("/players", &players); err != nil {
			return err
		}
		renderLeaderboard(os.Stdout, players)
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the ranked leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		var players []league.Player
		if err := fetchJSON("/leaderboard", &players); err != nil {
			return err
		}
		renderLeaderboard(os.Stdout, players)
		return nil
	},
}

var streaksCmd = &cobra.Command{
	Use:   "streaks",
	Short: "Show the longest winning streaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		var leaders []stats.StreakLeader
		if err := fetchJSON("/leaderboard/streaks?limit="+strconv.Itoa(streakLimit), &leaders); err != nil {
			return err
		}
		renderStreaks(os.Stdout, leaders)
		return nil
	},
}

var h2hCmd = &cobra.Command{
	Use:   "h2h <player-a> <player-b>",
	Short: "Show the singles record between two players",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var record stats.HeadToHeadRecord
		query := url.Values{"a": {args[0]}, "b": {args[1]}}
		if err := fetchJSON("/head-to-head?"+query.Encode(), &record); err != nil {
			return err
		}
		renderHeadToHead(os.Stdout, args[0], args[1], record)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <a> <b> | <a1> <a2> <b1> <b2>",
	Short: "Predict a singles or doubles match",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 && len(args) != 4 {
			return fmt.Errorf("expected 2 players for singles or 4 for doubles, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			var prediction stats.SinglesPrediction
			query := url.Values{"a": {args[0]}, "b": {args[1]}}
			if err := fetchJSON("/predict/singles?"+query.Encode(), &prediction); err != nil {
				return err
			}
			renderSinglesPrediction(os.Stdout, prediction)
			return nil
		}
		var prediction stats.DoublesPrediction
		query := url.Values{"a1": {args[0]}, "a2": {args[1]}, "b1": {args[2]}, "b2": {args[3]}}
		if err := fetchJSON("/predict/doubles?"+query.Encode(), &prediction); err != nil {
			return err
		}
		renderDoublesPrediction(os.Stdout, prediction)
		return nil
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show the daily insights",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/insights/daily"
		if insightsDate != "" {
			if _, err := time.Parse(time.DateOnly, insightsDate); err != nil {
				return fmt.Errorf("invalid --date %q: %w", insightsDate, err)
			}
			endpoint += "?date=" + insightsDate
		}
		var out struct {
			Date     string   `json:"date"`
			Insights []string `json:"insights"`
		}
		if err := fetchJSON(endpoint, &out); err != nil {
			return err
		}
		fmt.Printf("Insights for %s\n", out.Date)
		for _, insight := range out.Insights {
			fmt.Printf("  • %s\n", insight)
		}
		return nil
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <team1> <team2> <score1> <score2>",
	Short: "Record a match; with --doubles teams are comma separated (\"Alice,Bob\")",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		match, err := parseMatchArgs(args, matchDoubles)
		if err != nil {
			return err
		}
		return performPostRequest("/matches", match)
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Rebuild every player's statistics from the match log",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/recalculate"
		if asyncRecalc {
			endpoint += "?async=true"
		}
		return performPostRequest(endpoint, nil)
	},
}

var leaderDaysCmd = &cobra.Command{
	Use:   "leader-days",
	Short: "Run the daily leader check",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/leader-days", nil)
	},
}

// withDryRun appends the dry_run flag to an endpoint when requested.
func withDryRun(endpoint string) string {
	if !dryRun {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	q.Set("dry_run", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}

func performPostRequest(endpoint string, payload any) error {
	url := host + withDryRun(endpoint)
	fmt.Printf("Making request to %s\n", url)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	resp, err := http.Post(url, "application/json", body)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	if len(respBody) > 0 {
		fmt.Println("Response Body:")
		fmt.Println(string(respBody))
	}
	return nil
}

// fetchJSON GETs endpoint and decodes a 200 response into out.
func fetchJSON(endpoint string, out any) error {
	resp, err := http.Get(host + endpoint)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
