package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/config"
	"github.com/mauv0809/pingpong-league/internal/database"
	server "github.com/mauv0809/pingpong-league/internal/http"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/metrics"
	"github.com/mauv0809/pingpong-league/internal/notifier/slack"
	"github.com/mauv0809/pingpong-league/internal/postgrest"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/mauv0809/pingpong-league/internal/pubsub"
	"github.com/mauv0809/pingpong-league/internal/scheduler"
	"github.com/mauv0809/pingpong-league/internal/scoring"
	"github.com/mauv0809/pingpong-league/internal/stats"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()

	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %s", cfg.Schedule.Timezone, err)
	}
	strategy, err := stats.ParseStrategy(cfg.League.RecalcStrategy)
	if err != nil {
		log.Fatalf("Invalid recalculation strategy: %s", err)
	}

	var store league.Store
	switch cfg.Store.Backend {
	case "rest":
		log.Info("Using REST store", "url", cfg.Store.RestURL)
		store = postgrest.New(cfg.Store.RestURL, cfg.Store.RestKey)
	default:
		db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
		log.Info("Database initialization time recorded", "duration_ms", time.Since(startTime).Milliseconds())
		if err != nil {
			log.Fatalf("Failed to initialize database: %s", err)
		}
		defer func() {
			log.Info("Closing database connection")
			dbTeardown()
		}()
		store = league.New(db)
	}

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc).WithLocation(location)

	pubsubClient, err := pubsub.New(context.Background(), cfg.ProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize pubsub: %s", err)
	}
	defer pubsubClient.Close()

	processor := processor.New(store, notifier, metricsSvc, pubsubClient, processor.Config{
		Stats: stats.Options{
			Strategy:   strategy,
			WindowSize: cfg.League.RollingWindow,
			Scoring:    scoring.Policy{Cap: cfg.League.PointsCap},
		},
		LeaderCheckHour: cfg.Schedule.LeaderCheckHour,
		Location:        location,
	})

	jobs := scheduler.New(processor, scheduler.Config{
		LeaderCheckSpec: scheduler.LeaderCheckSpec,
		InsightsSpec:    cfg.Schedule.InsightsCron,
		Location:        location,
	})
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %s", err)
	}

	s := server.NewServer(
		store,
		metricsSvc,
		metricsHandler,
		cfg,
		notifier,
		processor,
		pubsubClient,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
		jobs.Stop(ctx)
	}

	log.Info("Server process shutting down")
}
