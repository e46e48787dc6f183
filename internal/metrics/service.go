package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Recalculations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_recalculations_total",
			Help: "The total number of full player stats recalculations.",
		}),
		RecalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pingpong_recalculation_duration_seconds",
			Help:    "The duration of a full stats recalculation, write-back included.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PlayerSaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_player_save_failures_total",
			Help: "The total number of player aggregates that failed to persist.",
		}),
		MatchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_matches_recorded_total",
			Help: "The total number of matches recorded.",
		}),
		LeaderDayIncrements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_leader_day_increments_total",
			Help: "The total number of days credited to a leaderboard leader.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pingpong_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Recalculations,
		s.RecalculationDuration,
		s.PlayerSaveFailures,
		s.MatchesRecorded,
		s.LeaderDayIncrements,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRecalculations() {
	s.Recalculations.Inc()
}

func (s *Service) ObserveRecalculationDuration(duration float64) {
	s.RecalculationDuration.Observe(duration)
}

func (s *Service) IncPlayerSaveFailures() {
	s.PlayerSaveFailures.Inc()
}

func (s *Service) IncMatchesRecorded() {
	s.MatchesRecorded.Inc()
}

func (s *Service) IncLeaderDayIncrements() {
	s.LeaderDayIncrements.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
