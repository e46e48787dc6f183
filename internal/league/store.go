package league

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// New creates a new Store backed by the given database.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

var _ Store = (*store)(nil)

const playerColumns = `id, name, avatar_url, description, skill, lack, hand, shot, wins, losses, points, history, best_rank, days_as_leader, first_leader_date, created_at`

// ListPlayers returns every player ordered by name.
func (s *store) ListPlayers(ctx context.Context) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]Player, 0)
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		players = append(players, *player)
	}
	return players, rows.Err()
}

func (s *store) GetPlayer(ctx context.Context, id string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlayerLocked(ctx, "id", id)
}

func (s *store) GetPlayerByName(ctx context.Context, name string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlayerLocked(ctx, "name", name)
}

func (s *store) getPlayerLocked(ctx context.Context, column, value string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE `+column+` = ?`, value)
	player, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	return player, err
}

// CreatePlayer inserts a new player with empty aggregates.
func (s *store) CreatePlayer(ctx context.Context, player Player) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	if player.CreatedAt.IsZero() {
		player.CreatedAt = time.Now().UTC()
	}
	if player.History == nil {
		player.History = []Outcome{}
	}
	historyJSON, err := json.Marshal(player.History)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, avatar_url, description, skill, lack, hand, shot, wins, losses, points, history, best_rank, days_as_leader, first_leader_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		player.ID, player.Name, player.AvatarURL, player.Description, player.Skill, player.Lack, player.Hand, player.Shot,
		player.Wins, player.Losses, player.Points, string(historyJSON), player.BestRank, player.DaysAsLeader,
		nullString(player.FirstLeaderDate), player.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert player %q: %w", player.Name, err)
	}
	log.Debug("Created player", "id", player.ID, "name", player.Name)
	return &player, nil
}

func (s *store) DeletePlayer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM players WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrPlayerNotFound)
}

// SavePlayerAggregate overwrites wins, losses, points, history and best rank.
func (s *store) SavePlayerAggregate(ctx context.Context, id string, agg Aggregate) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := agg.History
	if history == nil {
		history = []Outcome{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE players SET wins = ?, losses = ?, points = ?, history = ?, best_rank = ?
		WHERE id = ?`,
		agg.Wins, agg.Losses, agg.Points, string(historyJSON), agg.BestRank, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save aggregate for player %s: %w", id, err)
	}
	if err := expectOneRow(res, ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return s.getPlayerLocked(ctx, "id", id)
}

// IncrementLeaderDays adds one day as leader. The first time a player is
// credited, date is stored as their first leader date.
func (s *store) IncrementLeaderDays(ctx context.Context, id string, date string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE players SET
			days_as_leader = days_as_leader + 1,
			first_leader_date = COALESCE(first_leader_date, ?)
		WHERE id = ?`, date, id)
	if err != nil {
		return nil, err
	}
	if err := expectOneRow(res, ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return s.getPlayerLocked(ctx, "id", id)
}

// scanPlayer is a helper function to scan a single player row.
func scanPlayer(scanner interface{ Scan(...any) error }) (*Player, error) {
	var (
		player          Player
		historyJSON     string
		bestRank        sql.NullInt64
		firstLeaderDate sql.NullString
		createdAt       int64
	)
	err := scanner.Scan(
		&player.ID, &player.Name, &player.AvatarURL, &player.Description, &player.Skill, &player.Lack,
		&player.Hand, &player.Shot, &player.Wins, &player.Losses, &player.Points, &historyJSON,
		&bestRank, &player.DaysAsLeader, &firstLeaderDate, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if bestRank.Valid {
		rank := int(bestRank.Int64)
		player.BestRank = &rank
	}
	player.FirstLeaderDate = firstLeaderDate.String
	player.CreatedAt = time.Unix(createdAt, 0).UTC()

	player.History = []Outcome{}
	if historyJSON != "" {
		if err := json.Unmarshal([]byte(historyJSON), &player.History); err != nil {
			log.Error("Failed to unmarshal history", "error", err, "playerID", player.ID)
		}
	}
	return &player, nil
}

// ListMatches returns every match ordered by played_at ascending.
func (s *store) ListMatches(ctx context.Context) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, team1, team2, score1, score2, is_double, played_at FROM matches ORDER BY played_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, *match)
	}
	return matches, rows.Err()
}

func (s *store) GetMatch(ctx context.Context, id string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT id, team1, team2, score1, score2, is_double, played_at FROM matches WHERE id = ?`, id)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	return match, err
}

func (s *store) CreateMatch(ctx context.Context, match Match) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.PlayedAt.IsZero() {
		match.PlayedAt = time.Now().UTC()
	}
	team1JSON, team2JSON, err := marshalTeams(match)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (id, team1, team2, score1, score2, is_double, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		match.ID, team1JSON, team2JSON, match.Score1, match.Score2, match.IsDouble, match.PlayedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}
	log.Debug("Created match", "id", match.ID)
	return &match, nil
}

func (s *store) UpdateMatch(ctx context.Context, match Match) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team1JSON, team2JSON, err := marshalTeams(match)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE matches SET team1 = ?, team2 = ?, score1 = ?, score2 = ?, is_double = ?, played_at = ?
		WHERE id = ?`,
		team1JSON, team2JSON, match.Score1, match.Score2, match.IsDouble, match.PlayedAt.UnixMilli(), match.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}
	if err := expectOneRow(res, ErrMatchNotFound); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *store) DeleteMatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrMatchNotFound)
}

func marshalTeams(match Match) (string, string, error) {
	team1JSON, err := json.Marshal(match.Team1)
	if err != nil {
		return "", "", err
	}
	team2JSON, err := json.Marshal(match.Team2)
	if err != nil {
		return "", "", err
	}
	return string(team1JSON), string(team2JSON), nil
}

// scanMatch is a helper function to scan a single match row.
func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var (
		match                Match
		team1JSON, team2JSON string
		playedAt             int64
	)
	if err := scanner.Scan(&match.ID, &team1JSON, &team2JSON, &match.Score1, &match.Score2, &match.IsDouble, &playedAt); err != nil {
		return nil, err
	}
	match.PlayedAt = time.UnixMilli(playedAt).UTC()
	if err := json.Unmarshal([]byte(team1JSON), &match.Team1); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team1 for match %s: %w", match.ID, err)
	}
	if err := json.Unmarshal([]byte(team2JSON), &match.Team2); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team2 for match %s: %w", match.ID, err)
	}
	return &match, nil
}

// ListReports returns all reports, newest first.
func (s *store) ListReports(ctx context.Context) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, author, content, created_at FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]Report, 0)
	for rows.Next() {
		var (
			report    Report
			createdAt int64
		)
		if err := rows.Scan(&report.ID, &report.Author, &report.Content, &createdAt); err != nil {
			return nil, err
		}
		report.CreatedAt = time.Unix(createdAt, 0).UTC()
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *store) CreateReport(ctx context.Context, report Report) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO reports (id, author, content, created_at) VALUES (?, ?, ?, ?)`,
		report.ID, report.Author, report.Content, report.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}
	return &report, nil
}

func (s *store) DeleteReport(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrReportNotFound)
}

func (s *store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM app_metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMetadata upserts a metadata key.
func (s *store) SetMetadata(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;
	`, key, value)
	if err != nil {
		log.Error("Failed to set metadata", "error", err, "key", key)
	}
	return err
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
