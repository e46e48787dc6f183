package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/metrics"
	"github.com/mauv0809/pingpong-league/internal/notifier"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	location  *time.Location
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		location:  time.UTC,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		location:  time.UTC,
	}
}

// WithLocation sets the timezone used when rendering match times and dates.
func (s *Notifier) WithLocation(loc *time.Location) *Notifier {
	if loc != nil {
		s.location = loc
	}
	return s
}

func (s *Notifier) loc() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendMatchResult(match league.Match, award scoring.Award, dryRun bool) error {
	msg := s.formatMatchResult(match, award)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendDailyInsights(date time.Time, insights []string, dryRun bool) error {
	msg := s.formatDailyInsights(date, insights)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(players []league.Player, dryRun bool) error {
	msg := s.formatLeaderboard(players)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendPlayerStats(player league.Player, advanced stats.AdvancedStats, dryRun bool) error {
	msg := s.formatPlayerStats(player, advanced)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendPlayerNotFound(query string, dryRun bool) error {
	msg := s.formatPlayerNotFound(query)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(players []league.Player) (any, error) {
	return s.formatLeaderboard(players), nil
}

// FormatPlayerStatsResponse formats a player stats message for a slash command response.
func (s *Notifier) FormatPlayerStatsResponse(player league.Player, advanced stats.AdvancedStats) (any, error) {
	return s.formatPlayerStats(player, advanced), nil
}

// FormatPlayerNotFoundResponse formats a player not found message for a slash command response.
func (s *Notifier) FormatPlayerNotFoundResponse(query string) (any, error) {
	return s.formatPlayerNotFound(query), nil
}

func (s *Notifier) FormatSinglesPredictionResponse(prediction stats.SinglesPrediction) (any, error) {
	return s.formatSinglesPrediction(prediction), nil
}

func (s *Notifier) FormatDoublesPredictionResponse(prediction stats.DoublesPrediction) (any, error) {
	return s.formatDoublesPrediction(prediction), nil
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("plain_text", text, true, false)
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("mrkdwn", text, false, false)
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return ""
}

func teamLabel(team []string) string {
	return strings.Join(team, " & ")
}

// formatMatchResult creates the Slack message for a recorded match using Block Kit.
func (s *Notifier) formatMatchResult(match league.Match, award scoring.Award) slack.Message {
	blocks := make([]slack.Block, 0)

	blocks = append(blocks, slack.NewHeaderBlock(plainText("🏓 Match result 🏓")))

	resultText := fmt.Sprintf("%s beat %s %d-%d",
		teamLabel(match.Winners()),
		teamLabel(match.Losers()),
		match.WinnerScore(),
		match.LoserScore(),
	)
	blocks = append(blocks, slack.NewSectionBlock(plainText(resultText), nil, nil))

	kind := "Singles"
	if match.IsDouble {
		kind = "Doubles"
	}
	contextText := fmt.Sprintf("%s · %s · winners +%s pts",
		kind,
		match.PlayedAt.In(s.loc()).Format("Monday 02 Jan, 15:04"),
		scoring.FormatPoints(award.Winner),
	)
	if award.Loser > 0 {
		contextText += fmt.Sprintf(", losers +%s pts", scoring.FormatPoints(award.Loser))
	}
	blocks = append(blocks, slack.NewContextBlock("", plainText(contextText)))

	return slack.NewBlockMessage(blocks...)
}

// formatDailyInsights creates the end-of-day recap message.
func (s *Notifier) formatDailyInsights(date time.Time, insights []string) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("📰 Daily recap · %s", date.In(s.loc()).Format("Monday 02 Jan"))
	blocks = append(blocks, slack.NewHeaderBlock(plainText(headerText)))

	lines := make([]string, 0, len(insights))
	for _, insight := range insights {
		lines = append(lines, "• "+insight)
	}
	blocks = append(blocks, slack.NewSectionBlock(markdown(strings.Join(lines, "\n")), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the ranked players.
func (s *Notifier) formatLeaderboard(players []league.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	blocks = append(blocks, slack.NewHeaderBlock(plainText("🏆 Leaderboard 🏆")))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(plainText("No stats available yet. Go play some matches!"), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, player := range players {
		rank := i + 1
		winRate := "-"
		if rate, ok := player.WinRate(); ok {
			winRate = fmt.Sprintf("%.1f%%", rate*100)
		}
		playerText := fmt.Sprintf("%d. %s %s\n> *Points*: %s | *W/L*: %d/%d | *Win %%*: %s",
			rank,
			medal(rank),
			player.Name,
			scoring.FormatPoints(player.Points),
			player.Wins,
			player.Losses,
			winRate,
		)
		if player.DaysAsLeader > 0 {
			playerText += fmt.Sprintf(" | *Days as leader*: %d", player.DaysAsLeader)
		}
		blocks = append(blocks, slack.NewSectionBlock(markdown(playerText), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerStats creates a Slack message to display a single player's stats.
func (s *Notifier) formatPlayerStats(player league.Player, advanced stats.AdvancedStats) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("📊 Stats for %s", player.Name)
	blocks = append(blocks, slack.NewHeaderBlock(plainText(headerText)))

	bestRank := "-"
	if player.BestRank != nil {
		bestRank = fmt.Sprintf("#%d", *player.BestRank)
	}
	summary := fmt.Sprintf("> *Points*: %s\n> *Wins/Losses*: %d/%d\n> *Best rank*: %s\n> *Days as leader*: %d",
		scoring.FormatPoints(player.Points),
		player.Wins,
		player.Losses,
		bestRank,
		player.DaysAsLeader,
	)
	blocks = append(blocks, slack.NewSectionBlock(markdown(summary), nil, nil))

	fields := []*slack.TextBlockObject{
		markdown(fmt.Sprintf("*Current streak*\n%s", formatStreak(advanced.CurrentStreak))),
		markdown(fmt.Sprintf("*Best streak*\n%s", formatStreak(advanced.BestStreak))),
		markdown(fmt.Sprintf("*Singles*\n%s", formatSplit(advanced.Singles))),
		markdown(fmt.Sprintf("*Doubles*\n%s", formatSplit(advanced.Doubles))),
	}
	if advanced.Nemesis != nil {
		fields = append(fields, markdown(fmt.Sprintf("*Nemesis*\n%s (%d-%d)", advanced.Nemesis.Name, advanced.Nemesis.Wins, advanced.Nemesis.Losses)))
	}
	if advanced.Victim != nil {
		fields = append(fields, markdown(fmt.Sprintf("*Favourite victim*\n%s (%d-%d)", advanced.Victim.Name, advanced.Victim.Wins, advanced.Victim.Losses)))
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))

	var form []string
	for _, p := range advanced.RecentForm {
		form = append(form, fmt.Sprintf("%dd: %dW %dL (+%s)", p.Days, p.Wins, p.Losses, scoring.FormatPoints(p.PointsGained)))
	}
	if len(form) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", plainText(strings.Join(form, " · "))))
	}

	if len(advanced.FavoriteTeammates) > 0 {
		names := make([]string, 0, len(advanced.FavoriteTeammates))
		for _, t := range advanced.FavoriteTeammates {
			names = append(names, t.Name)
		}
		blocks = append(blocks, slack.NewContextBlock("", plainText("🤝 Favourite teammates: "+strings.Join(names, ", "))))
	}

	return slack.NewBlockMessage(blocks...)
}

func formatStreak(streak stats.Streak) string {
	if streak.Count == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%s", streak.Count, streak.Type)
}

func formatSplit(split stats.TypeSplit) string {
	if split.Matches == 0 {
		return "no matches"
	}
	return fmt.Sprintf("%d/%d (%.0f%%)", split.Wins, split.Matches, split.WinRate)
}

// formatPlayerNotFound creates a Slack message for when a player's stats are not found.
func (s *Notifier) formatPlayerNotFound(query string) slack.Message {
	text := fmt.Sprintf("Sorry, I couldn't find a player matching *%s*. Try a different name.", query)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(markdown(text), nil, nil),
	)
}

func (s *Notifier) formatSinglesPrediction(p stats.SinglesPrediction) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("🔮 %s vs %s", p.PlayerA, p.PlayerB)
	blocks = append(blocks, slack.NewHeaderBlock(plainText(headerText)))

	odds := fmt.Sprintf("*%s*: %.1f%%\n*%s*: %.1f%%", p.PlayerA, p.ProbA, p.PlayerB, p.ProbB)
	blocks = append(blocks, slack.NewSectionBlock(markdown(odds), nil, nil))

	if p.HeadToHead.TotalMatches > 0 {
		h2h := fmt.Sprintf("Head-to-head: %s %d - %d %s", p.PlayerA, p.HeadToHead.WinsA, p.HeadToHead.WinsB, p.PlayerB)
		blocks = append(blocks, slack.NewSectionBlock(plainText(h2h), nil, nil))
	}

	if len(p.Insights) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", plainText(strings.Join(p.Insights, " · "))))
	}

	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatDoublesPrediction(p stats.DoublesPrediction) slack.Message {
	blocks := make([]slack.Block, 0)

	team1, team2 := teamLabel(p.Team1[:]), teamLabel(p.Team2[:])
	blocks = append(blocks, slack.NewHeaderBlock(plainText(fmt.Sprintf("🔮 %s vs %s", team1, team2))))

	odds := fmt.Sprintf("*%s*: %.1f%%\n*%s*: %.1f%%", team1, p.ProbTeam1, team2, p.ProbTeam2)
	blocks = append(blocks, slack.NewSectionBlock(markdown(odds), nil, nil))

	if p.HeadToHead.TotalMatches > 0 {
		h2h := fmt.Sprintf("Head-to-head: %d - %d in %d matches", p.HeadToHead.TeamAWins, p.HeadToHead.TeamBWins, p.HeadToHead.TotalMatches)
		blocks = append(blocks, slack.NewSectionBlock(plainText(h2h), nil, nil))
	}

	if len(p.Insights) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", plainText(strings.Join(p.Insights, " · "))))
	}

	return slack.NewBlockMessage(blocks...)
}
