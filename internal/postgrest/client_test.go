package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Client{
		httpClient: server.Client(),
		BaseURL:    server.URL,
		apiKey:     "test-key",
	}
}

func TestListPlayers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/players", r.URL.Path)
		assert.Equal(t, "name.asc", r.URL.Query().Get("order"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `[
			{"id": "p1", "name": "Alice", "wins": 2, "losses": 1, "points": 27.5, "history": ["W","L","W"], "best_rank": 1, "days_as_leader": 3, "first_leader_date": "2025-03-01", "created_at": "2025-01-01T10:00:00+00:00"},
			{"id": "p2", "name": "Bob", "wins": 0, "losses": 0, "points": 0, "history": [], "best_rank": null, "days_as_leader": 0, "first_leader_date": null, "created_at": "2025-01-02T10:00:00+00:00"}
		]`)
	})

	players, err := client.ListPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)

	alice := players[0]
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 27.5, alice.Points)
	assert.Equal(t, []league.Outcome{league.Win, league.Loss, league.Win}, alice.History)
	require.NotNil(t, alice.BestRank)
	assert.Equal(t, 1, *alice.BestRank)
	assert.Equal(t, "2025-03-01", alice.FirstLeaderDate)

	assert.Nil(t, players[1].BestRank)
	assert.Empty(t, players[1].FirstLeaderDate)
}

func TestGetPlayer_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.missing", r.URL.Query().Get("id"))
		fmt.Fprintln(w, `[]`)
	})

	_, err := client.GetPlayer(context.Background(), "missing")
	assert.ErrorIs(t, err, league.ErrPlayerNotFound)
}

func TestSavePlayerAggregate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["wins"])
		assert.Equal(t, []any{}, body["history"], "an empty history is sent as [] rather than null")
		assert.Nil(t, body["best_rank"])

		fmt.Fprintln(w, `[{"id": "p1", "name": "Alice", "wins": 3, "losses": 0, "points": 30}]`)
	})

	player, err := client.SavePlayerAggregate(context.Background(), "p1", league.Aggregate{Wins: 3, Points: 30})
	require.NoError(t, err)
	assert.Equal(t, 3, player.Wins)
	assert.Equal(t, 30.0, player.Points)
}

func TestSavePlayerAggregate_MissingPlayer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `[]`)
	})

	_, err := client.SavePlayerAggregate(context.Background(), "gone", league.Aggregate{})
	assert.ErrorIs(t, err, league.ErrPlayerNotFound)
}

func TestIncrementLeaderDays(t *testing.T) {
	t.Run("first time sets first leader date", func(t *testing.T) {
		var patch map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				fmt.Fprintln(w, `[{"id": "p1", "name": "Alice", "days_as_leader": 0, "first_leader_date": null}]`)
			case http.MethodPatch:
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
				fmt.Fprintln(w, `[{"id": "p1", "name": "Alice", "days_as_leader": 1, "first_leader_date": "2025-03-03"}]`)
			}
		})

		player, err := client.IncrementLeaderDays(context.Background(), "p1", "2025-03-03")
		require.NoError(t, err)
		assert.Equal(t, 1, player.DaysAsLeader)
		assert.Equal(t, float64(1), patch["days_as_leader"])
		assert.Equal(t, "2025-03-03", patch["first_leader_date"])
	})

	t.Run("keeps existing first leader date", func(t *testing.T) {
		var patch map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				fmt.Fprintln(w, `[{"id": "p1", "name": "Alice", "days_as_leader": 4, "first_leader_date": "2025-01-10"}]`)
			case http.MethodPatch:
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
				fmt.Fprintln(w, `[{"id": "p1", "name": "Alice", "days_as_leader": 5, "first_leader_date": "2025-01-10"}]`)
			}
		})

		player, err := client.IncrementLeaderDays(context.Background(), "p1", "2025-03-03")
		require.NoError(t, err)
		assert.Equal(t, 5, player.DaysAsLeader)
		assert.Equal(t, float64(5), patch["days_as_leader"])
		assert.NotContains(t, patch, "first_leader_date")
	})
}

func TestListMatches(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/matches", r.URL.Path)
		assert.Equal(t, "played_at.asc,id.asc", r.URL.Query().Get("order"))
		fmt.Fprintln(w, `[{"id": "m1", "team1": ["Alice","Bob"], "team2": ["Carl","Dana"], "score1": 21, "score2": 18, "is_double": true, "played_at": "2025-03-03T12:00:00+00:00"}]`)
	})

	matches, err := client.ListMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].IsDouble)
	assert.Equal(t, []string{"Alice", "Bob"}, matches[0].Team1)
	assert.True(t, time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC).Equal(matches[0].PlayedAt))
}

func TestCreateMatch_AssignsID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body league.Match
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body.ID)
		assert.False(t, body.PlayedAt.IsZero())
		assert.NoError(t, json.NewEncoder(w).Encode([]league.Match{body}))
	})

	match, err := client.CreateMatch(context.Background(), league.Match{
		Team1: []string{"Alice"}, Team2: []string{"Bob"}, Score1: 21, Score2: 10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, match.ID)
}

func TestDeleteMatch_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		fmt.Fprintln(w, `[]`)
	})

	err := client.DeleteMatch(context.Background(), "m404")
	assert.ErrorIs(t, err, league.ErrMatchNotFound)
}

func TestMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/app_metadata", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("key") == "eq.known" {
				fmt.Fprintln(w, `[{"key": "known", "value": "2025-03-03"}]`)
				return
			}
			fmt.Fprintln(w, `[]`)
		case http.MethodPost:
			assert.Equal(t, "key", r.URL.Query().Get("on_conflict"))
			assert.Equal(t, "resolution=merge-duplicates", r.Header.Get("Prefer"))
			w.WriteHeader(http.StatusCreated)
		}
	})
	ctx := context.Background()

	value, ok, err := client.GetMetadata(ctx, "known")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-03-03", value)

	_, ok, err = client.GetMetadata(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, client.SetMetadata(ctx, "known", "2025-03-04"))
}

func TestServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, `{"message": "boom"}`)
	})

	_, err := client.ListReports(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
