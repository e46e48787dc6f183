// Package postgrest implements league.Store on top of a PostgREST-style HTTP
// API (Supabase and friends): one table per resource under /rest/v1,
// filters such as ?id=eq.<id>, and JSON bodies.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/pingpong-league/internal/league"
)

// Client talks to the REST API. BaseURL is the project URL without the
// /rest/v1 suffix.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	apiKey     string
	// mu serializes read-modify-write updates such as leader-day increments.
	mu sync.Mutex
}

// New creates a REST-backed league store.
func New(baseURL, apiKey string) league.Store {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		apiKey:     apiKey,
	}
}

var _ league.Store = (*Client)(nil)

type metadataRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// do sends one request asking for the affected rows back and decodes them
// into out when non-nil.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, body any, out any) error {
	return c.send(ctx, method, table, query, body, "return=representation", out)
}

func (c *Client) send(ctx context.Context, method, table string, query url.Values, body any, prefer string, out any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.BaseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", table, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)

	log.Debug("PostgREST request", "method", method, "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error("Received non-OK HTTP status from PostgREST", "status", resp.StatusCode, "table", table, "body", string(respBody))
		return fmt.Errorf("received non-OK HTTP status %d from %s", resp.StatusCode, table)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", table, err)
	}
	return nil
}

func eq(column, value string) url.Values {
	return url.Values{column: {"eq." + value}}
}

// first returns the single row of a representation response or notFound.
func first[T any](rows []T, notFound error) (*T, error) {
	if len(rows) == 0 {
		return nil, notFound
	}
	return &rows[0], nil
}

// ListPlayers returns every player ordered by name.
func (c *Client) ListPlayers(ctx context.Context) ([]league.Player, error) {
	players := make([]league.Player, 0)
	if err := c.do(ctx, http.MethodGet, "players", url.Values{"order": {"name.asc"}}, nil, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) GetPlayer(ctx context.Context, id string) (*league.Player, error) {
	var rows []league.Player
	if err := c.do(ctx, http.MethodGet, "players", eq("id", id), nil, &rows); err != nil {
		return nil, err
	}
	return first(rows, league.ErrPlayerNotFound)
}

func (c *Client) GetPlayerByName(ctx context.Context, name string) (*league.Player, error) {
	var rows []league.Player
	if err := c.do(ctx, http.MethodGet, "players", eq("name", name), nil, &rows); err != nil {
		return nil, err
	}
	return first(rows, league.ErrPlayerNotFound)
}

func (c *Client) CreatePlayer(ctx context.Context, player league.Player) (*league.Player, error) {
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	if player.CreatedAt.IsZero() {
		player.CreatedAt = time.Now().UTC()
	}
	if player.History == nil {
		player.History = []league.Outcome{}
	}

	var rows []league.Player
	if err := c.do(ctx, http.MethodPost, "players", nil, player, &rows); err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", player.Name, err)
	}
	return first(rows, league.ErrPlayerNotFound)
}

func (c *Client) DeletePlayer(ctx context.Context, id string) error {
	var rows []league.Player
	if err := c.do(ctx, http.MethodDelete, "players", eq("id", id), nil, &rows); err != nil {
		return err
	}
	_, err := first(rows, league.ErrPlayerNotFound)
	return err
}

func (c *Client) SavePlayerAggregate(ctx context.Context, id string, agg league.Aggregate) (*league.Player, error) {
	if agg.History == nil {
		agg.History = []league.Outcome{}
	}
	var rows []league.Player
	if err := c.do(ctx, http.MethodPatch, "players", eq("id", id), agg, &rows); err != nil {
		return nil, fmt.Errorf("failed to save aggregate for player %s: %w", id, err)
	}
	return first(rows, league.ErrPlayerNotFound)
}

// IncrementLeaderDays reads the player and writes back the incremented
// counter. first_leader_date is only written the first time.
func (c *Client) IncrementLeaderDays(ctx context.Context, id string, date string) (*league.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	patch := map[string]any{"days_as_leader": player.DaysAsLeader + 1}
	if player.FirstLeaderDate == "" {
		patch["first_leader_date"] = date
	}

	var rows []league.Player
	if err := c.do(ctx, http.MethodPatch, "players", eq("id", id), patch, &rows); err != nil {
		return nil, err
	}
	return first(rows, league.ErrPlayerNotFound)
}

// ListMatches returns every match in chronological order.
func (c *Client) ListMatches(ctx context.Context) ([]league.Match, error) {
	matches := make([]league.Match, 0)
	query := url.Values{"order": {"played_at.asc,id.asc"}}
	if err := c.do(ctx, http.MethodGet, "matches", query, nil, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (c *Client) GetMatch(ctx context.Context, id string) (*league.Match, error) {
	var rows []league.Match
	if err := c.do(ctx, http.MethodGet, "matches", eq("id", id), nil, &rows); err != nil {
		return nil, err
	}
	return first(rows, league.ErrMatchNotFound)
}

func (c *Client) CreateMatch(ctx context.Context, match league.Match) (*league.Match, error) {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.PlayedAt.IsZero() {
		match.PlayedAt = time.Now().UTC()
	}
	var rows []league.Match
	if err := c.do(ctx, http.MethodPost, "matches", nil, match, &rows); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return first(rows, league.ErrMatchNotFound)
}

func (c *Client) UpdateMatch(ctx context.Context, match league.Match) (*league.Match, error) {
	var rows []league.Match
	if err := c.do(ctx, http.MethodPatch, "matches", eq("id", match.ID), match, &rows); err != nil {
		return nil, fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}
	return first(rows, league.ErrMatchNotFound)
}

func (c *Client) DeleteMatch(ctx context.Context, id string) error {
	var rows []league.Match
	if err := c.do(ctx, http.MethodDelete, "matches", eq("id", id), nil, &rows); err != nil {
		return err
	}
	_, err := first(rows, league.ErrMatchNotFound)
	return err
}

// ListReports returns reports newest first.
func (c *Client) ListReports(ctx context.Context) ([]league.Report, error) {
	reports := make([]league.Report, 0)
	if err := c.do(ctx, http.MethodGet, "reports", url.Values{"order": {"created_at.desc"}}, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *Client) CreateReport(ctx context.Context, report league.Report) (*league.Report, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	var rows []league.Report
	if err := c.do(ctx, http.MethodPost, "reports", nil, report, &rows); err != nil {
		return nil, err
	}
	return first(rows, league.ErrReportNotFound)
}

func (c *Client) DeleteReport(ctx context.Context, id string) error {
	var rows []league.Report
	if err := c.do(ctx, http.MethodDelete, "reports", eq("id", id), nil, &rows); err != nil {
		return err
	}
	_, err := first(rows, league.ErrReportNotFound)
	return err
}

func (c *Client) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var rows []metadataRow
	if err := c.do(ctx, http.MethodGet, "app_metadata", eq("key", key), nil, &rows); err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

// SetMetadata upserts the key using PostgREST's merge-duplicates resolution.
func (c *Client) SetMetadata(ctx context.Context, key, value string) error {
	query := url.Values{"on_conflict": {"key"}}
	return c.send(ctx, http.MethodPost, "app_metadata", query, metadataRow{Key: key, Value: value}, "resolution=merge-duplicates", nil)
}
