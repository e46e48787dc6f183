// Package scheduler runs the periodic league jobs: crediting the daily
// leader and posting the end-of-day insights.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/robfig/cron/v3"
)

// LeaderCheckSpec runs the leader-days check hourly; the check itself only
// credits once per day after the configured hour.
const LeaderCheckSpec = "0 * * * *"

// Jobs is the work the scheduler triggers.
type Jobs interface {
	CheckLeaderDays(ctx context.Context, now time.Time) (*league.Player, error)
	PostDailyInsights(ctx context.Context, date time.Time, dryRun bool) ([]string, error)
}

// Config holds the cron expressions, evaluated in Location.
type Config struct {
	LeaderCheckSpec string
	InsightsSpec    string
	Location        *time.Location
}

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron    *cron.Cron
	jobs    Jobs
	config  Config
	now     func() time.Time
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// New creates a scheduler. Jobs are registered on Start.
func New(jobs Jobs, config Config) *Scheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.LeaderCheckSpec == "" {
		config.LeaderCheckSpec = LeaderCheckSpec
	}
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(config.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{
		cron:    c,
		jobs:    jobs,
		config:  config,
		now:     time.Now,
		timeout: 2 * time.Minute,
	}
}

// Start registers the jobs, runs one leader check right away and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.config.LeaderCheckSpec, s.checkLeaderDays); err != nil {
		return fmt.Errorf("failed to schedule leader check %q: %w", s.config.LeaderCheckSpec, err)
	}
	if s.config.InsightsSpec != "" {
		if _, err := s.cron.AddFunc(s.config.InsightsSpec, s.postDailyInsights); err != nil {
			return fmt.Errorf("failed to schedule daily insights %q: %w", s.config.InsightsSpec, err)
		}
	}

	go s.checkLeaderDays()
	s.cron.Start()
	s.running = true
	log.Info("Scheduler started", "jobs", len(s.cron.Entries()), "timezone", s.config.Location.String())
	return nil
}

// Stop halts the runner and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		log.Info("Scheduler stopped gracefully")
	case <-ctx.Done():
		log.Warn("Scheduler stop timed out")
	}
	s.running = false
}

func (s *Scheduler) checkLeaderDays() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	player, err := s.jobs.CheckLeaderDays(ctx, s.now())
	if err != nil {
		log.Error("Leader days check failed", "error", err)
		return
	}
	if player != nil {
		log.Info("Leader credited", "player", player.Name, "days", player.DaysAsLeader)
	}
}

func (s *Scheduler) postDailyInsights() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	insights, err := s.jobs.PostDailyInsights(ctx, s.now(), false)
	if err != nil {
		log.Error("Posting daily insights failed", "error", err)
		return
	}
	log.Info("Daily insights done", "count", len(insights))
}

// cronLogger forwards cron's logr-style calls to charmbracelet/log.
type cronLogger struct{}

var _ cron.Logger = cronLogger{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
