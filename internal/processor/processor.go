package processor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/metrics"
	"github.com/mauv0809/pingpong-league/internal/pubsub"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
	"golang.org/x/sync/errgroup"
)

// New creates a new Processor.
func New(store Store, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient, config Config) *Processor {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Stats.Strategy == "" {
		config.Stats.Strategy = stats.FullHistory
	}
	return &Processor{
		store:    store,
		pubsub:   pubsub,
		notifier: notifier,
		metrics:  metrics,
		config:   config,
		now:      time.Now,
	}
}

// load fetches players and matches concurrently.
func (p *Processor) load(ctx context.Context) ([]league.Player, []league.Match, error) {
	var (
		players []league.Player
		matches []league.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = p.store.ListPlayers(gctx)
		if err != nil {
			return fmt.Errorf("failed to list players: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = p.store.ListMatches(gctx)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return players, matches, nil
}

// RecalculateAllStats rebuilds every player's aggregates from the full match
// log and persists them. Saves run concurrently and one failure never stops
// the others; failures are returned together wrapped in ErrPartialWriteBack.
func (p *Processor) RecalculateAllStats(ctx context.Context) ([]stats.PlayerUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recalculateLocked(ctx)
}

func (p *Processor) recalculateLocked(ctx context.Context) ([]stats.PlayerUpdate, error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveRecalculationDuration(time.Since(start).Seconds())
	}()

	players, matches, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	updates := stats.Recalculate(players, matches, p.config.Stats)
	p.metrics.IncRecalculations()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, update := range updates {
		wg.Add(1)
		go func(u stats.PlayerUpdate) {
			defer wg.Done()
			if _, err := p.store.SavePlayerAggregate(ctx, u.PlayerID, u.Aggregate); err != nil {
				p.metrics.IncPlayerSaveFailures()
				log.Error("Failed to save player aggregate", "error", err, "player", u.Name)
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("player %s: %w", u.Name, err))
				mu.Unlock()
			}
		}(update)
	}
	wg.Wait()

	log.Info("Recalculated player stats", "players", len(players), "matches", len(matches), "strategy", p.config.Stats.Strategy)
	if err := result.ErrorOrNil(); err != nil {
		return updates, fmt.Errorf("%w: %w", ErrPartialWriteBack, err)
	}
	return updates, nil
}

// ValidateMatch checks team sizes, names and the score of a match before it is stored.
func ValidateMatch(match league.Match) error {
	size := 1
	if match.IsDouble {
		size = 2
	}
	if len(match.Team1) != size || len(match.Team2) != size {
		return fmt.Errorf("%w: each team needs exactly %d player(s)", ErrInvalidTeams, size)
	}

	if err := distinctNames(slices.Concat(match.Team1, match.Team2)...); err != nil {
		return err
	}

	return scoring.ValidateScore(match.Score1, match.Score2)
}

// distinctNames rejects blank names and any name that appears more than once.
func distinctNames(names ...string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: player names cannot be blank", ErrInvalidTeams)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s appears more than once", ErrInvalidTeams, name)
		}
		seen[name] = true
	}
	return nil
}

// RecordMatch stores a new match, recalculates all aggregates, then announces
// the result. Announcements are best effort. In dry-run mode the match is
// still stored but nothing is published and Slack messages are only logged.
func (p *Processor) RecordMatch(ctx context.Context, match league.Match, dryRun bool) (*MatchResult, error) {
	if err := ValidateMatch(match); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	created, err := p.store.CreateMatch(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	p.metrics.IncMatchesRecorded()
	log.Info("Recorded match", "matchID", created.ID, "team1", created.Team1, "team2", created.Team2, "score", fmt.Sprintf("%d-%d", created.Score1, created.Score2))

	result := &MatchResult{
		Match: *created,
		Award: p.config.Stats.Scoring.AwardMatch(*created),
	}
	standings, recalcErr := p.recalculateLocked(ctx)
	result.Standings = standings

	if err := p.notifier.SendMatchResult(*created, result.Award, dryRun); err != nil {
		log.Error("Failed to send match result notification", "error", err, "matchID", created.ID)
	}
	p.publishMatch(*created, "created", dryRun)

	return result, recalcErr
}

// UpdateMatch replaces a stored match and recalculates all aggregates.
// A zero PlayedAt keeps the stored match time.
func (p *Processor) UpdateMatch(ctx context.Context, match league.Match, dryRun bool) (*MatchResult, error) {
	if err := ValidateMatch(match); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if match.PlayedAt.IsZero() {
		stored, err := p.store.GetMatch(ctx, match.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get match %s: %w", match.ID, err)
		}
		match.PlayedAt = stored.PlayedAt
	}

	updated, err := p.store.UpdateMatch(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}
	log.Info("Updated match", "matchID", updated.ID)

	result := &MatchResult{
		Match: *updated,
		Award: p.config.Stats.Scoring.AwardMatch(*updated),
	}
	standings, recalcErr := p.recalculateLocked(ctx)
	result.Standings = standings
	p.publishMatch(*updated, "updated", dryRun)
	return result, recalcErr
}

// DeleteMatch removes a match and recalculates all aggregates.
func (p *Processor) DeleteMatch(ctx context.Context, id string, dryRun bool) ([]stats.PlayerUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.DeleteMatch(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	log.Info("Deleted match", "matchID", id)

	standings, err := p.recalculateLocked(ctx)
	p.publishMatch(league.Match{ID: id}, "deleted", dryRun)
	return standings, err
}

func (p *Processor) publishMatch(match league.Match, action string, dryRun bool) {
	if dryRun {
		log.Info("[Dry Run] Would publish match event", "matchID", match.ID, "action", action)
		return
	}
	event := pubsub.MatchRecordedEvent{
		MatchID:  match.ID,
		Action:   action,
		Team1:    match.Team1,
		Team2:    match.Team2,
		Score1:   match.Score1,
		Score2:   match.Score2,
		IsDouble: match.IsDouble,
		PlayedAt: match.PlayedAt,
	}
	if err := p.pubsub.SendMessage(pubsub.EventMatchRecorded, event); err != nil {
		log.Error("Failed to publish match event", "error", err, "matchID", match.ID, "action", action)
	}
}

// RequestRecalculation asks subscribers to rebuild the aggregates asynchronously.
func (p *Processor) RequestRecalculation(reason string) error {
	return p.pubsub.SendMessage(pubsub.EventRecalculateStats, pubsub.RecalculateStatsEvent{
		Reason:      reason,
		RequestedAt: p.now().UTC(),
	})
}

// CheckLeaderDays credits the current leader with one more day at the top.
// It runs at most once per local calendar day, and only from LeaderCheckHour.
// The very first check only records the date. It returns the credited
// player, or nil when nothing was done.
func (p *Processor) CheckLeaderDays(ctx context.Context, now time.Time) (*league.Player, error) {
	local := now.In(p.config.Location)
	today := local.Format(time.DateOnly)

	last, ok, err := p.store.GetMetadata(ctx, LeaderDateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read last leader increment date: %w", err)
	}
	if !ok || last == "" {
		log.Info("No leader increment date yet, starting from today", "date", today)
		return nil, p.store.SetMetadata(ctx, LeaderDateKey, today)
	}
	if last == today || local.Hour() < p.config.LeaderCheckHour {
		log.Debug("Leader days already up to date", "last", last, "today", today, "hour", local.Hour())
		return nil, nil
	}

	players, err := p.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	var credited *league.Player
	if leader, ok := stats.Leader(players); ok {
		credited, err = p.store.IncrementLeaderDays(ctx, leader.ID, today)
		if err != nil {
			return nil, fmt.Errorf("failed to increment leader days for %s: %w", leader.Name, err)
		}
		p.metrics.IncLeaderDayIncrements()
		log.Info("Incremented leader days", "player", credited.Name, "days", credited.DaysAsLeader, "date", today)
	}

	if err := p.store.SetMetadata(ctx, LeaderDateKey, today); err != nil {
		return credited, fmt.Errorf("failed to store leader increment date: %w", err)
	}
	return credited, nil
}

// DailyInsights returns the insights for the local calendar day of date.
func (p *Processor) DailyInsights(ctx context.Context, date time.Time) ([]string, error) {
	players, matches, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return stats.DailyInsights(matches, players, date.In(p.config.Location)), nil
}

// PostDailyInsights sends the day's insights to Slack. Days without matches
// are skipped so the channel only gets a recap when something happened.
func (p *Processor) PostDailyInsights(ctx context.Context, date time.Time, dryRun bool) ([]string, error) {
	insights, err := p.DailyInsights(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(insights) == 1 && insights[0] == stats.NoMatchesInsight {
		log.Info("No matches today, skipping daily insights post", "date", date.In(p.config.Location).Format(time.DateOnly))
		return insights, nil
	}
	if err := p.notifier.SendDailyInsights(date, insights, dryRun); err != nil {
		return insights, fmt.Errorf("failed to post daily insights: %w", err)
	}
	return insights, nil
}

// Leaderboard returns all players in rank order.
func (p *Processor) Leaderboard(ctx context.Context) ([]league.Player, error) {
	players, err := p.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return stats.Rank(players), nil
}

// StreakLeaders returns the players with the longest winning runs.
func (p *Processor) StreakLeaders(ctx context.Context, limit int) ([]stats.StreakLeader, error) {
	players, err := p.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return stats.TopStreaks(players, limit), nil
}

// PlayerStats returns the stored aggregates and derived statistics for one player.
func (p *Processor) PlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	player, err := p.store.GetPlayerByName(ctx, name)
	if err != nil {
		return nil, err
	}
	matches, err := p.store.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return &PlayerStats{
		Player:   *player,
		Advanced: stats.Advanced(*player, matches, p.now()),
	}, nil
}

// HeadToHead returns the singles record between two players.
func (p *Processor) HeadToHead(ctx context.Context, nameA, nameB string) (stats.HeadToHeadRecord, error) {
	matches, err := p.store.ListMatches(ctx)
	if err != nil {
		return stats.HeadToHeadRecord{}, fmt.Errorf("failed to list matches: %w", err)
	}
	return stats.HeadToHead(nameA, nameB, matches), nil
}

// PredictSingles estimates the outcome of a singles match between two registered players.
func (p *Processor) PredictSingles(ctx context.Context, nameA, nameB string) (*stats.SinglesPrediction, error) {
	if err := distinctNames(nameA, nameB); err != nil {
		return nil, err
	}
	players, matches, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := findPlayer(players, nameA)
	if !ok {
		return nil, fmt.Errorf("%w: %s", league.ErrPlayerNotFound, nameA)
	}
	b, ok := findPlayer(players, nameB)
	if !ok {
		return nil, fmt.Errorf("%w: %s", league.ErrPlayerNotFound, nameB)
	}
	prediction := stats.PredictSingles(a, b, matches, p.now())
	return &prediction, nil
}

// PredictDoubles estimates the outcome of a doubles match. Unknown players
// are allowed and count as having no doubles history.
func (p *Processor) PredictDoubles(ctx context.Context, a1, a2, b1, b2 string) (*stats.DoublesPrediction, error) {
	if err := distinctNames(a1, a2, b1, b2); err != nil {
		return nil, err
	}
	players, matches, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	prediction := stats.PredictDoubles(a1, a2, b1, b2, players, matches)
	return &prediction, nil
}

func findPlayer(players []league.Player, name string) (league.Player, bool) {
	for _, p := range players {
		if p.Name == name {
			return p, true
		}
	}
	return league.Player{}, false
}

// Location is the time zone used for calendar days.
func (p *Processor) Location() *time.Location {
	return p.config.Location
}
