package http

import (
	"net/http"

	"github.com/mauv0809/pingpong-league/internal/config"
	"github.com/mauv0809/pingpong-league/internal/http/handlers"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/metrics"
	"github.com/mauv0809/pingpong-league/internal/notifier"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/mauv0809/pingpong-league/internal/pubsub"
)

func NewServer(store league.Store, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, processor *processor.Processor, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Processor:      processor,
		PubSub:         pubsub,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// Slack routes additionally verify the request signature.
	slackVerified := slackVerificationMiddleware(s.Cfg.Slack.SigningSecret)

	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(handlers.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("GET /players", Chain(handlers.ListPlayersHandler(s.Store), paramsMiddleware))
	s.Router.Handle("POST /players", Chain(handlers.CreatePlayerHandler(s.Store), paramsMiddleware))
	s.Router.Handle("DELETE /players/{id}", Chain(handlers.DeletePlayerHandler(s.Store), paramsMiddleware))
	s.Router.Handle("GET /players/{name}/stats", Chain(handlers.PlayerStatsHandler(s.Processor), paramsMiddleware))

	s.Router.Handle("GET /matches", Chain(handlers.ListMatchesHandler(s.Store), paramsMiddleware))
	s.Router.Handle("POST /matches", Chain(handlers.RecordMatchHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("PUT /matches/{id}", Chain(handlers.UpdateMatchHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("DELETE /matches/{id}", Chain(handlers.DeleteMatchHandler(s.Processor), paramsMiddleware))

	s.Router.Handle("GET /reports", Chain(handlers.ListReportsHandler(s.Store), paramsMiddleware))
	s.Router.Handle("POST /reports", Chain(handlers.CreateReportHandler(s.Store), paramsMiddleware))
	s.Router.Handle("DELETE /reports/{id}", Chain(handlers.DeleteReportHandler(s.Store), paramsMiddleware))

	s.Router.Handle("GET /leaderboard", Chain(handlers.LeaderboardHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("GET /leaderboard/streaks", Chain(handlers.StreakLeaderboardHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("GET /head-to-head", Chain(handlers.HeadToHeadHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("GET /predict/singles", Chain(handlers.PredictSinglesHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("GET /predict/doubles", Chain(handlers.PredictDoublesHandler(s.Processor), paramsMiddleware))

	s.Router.Handle("GET /insights/daily", Chain(handlers.DailyInsightsHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /insights/daily/post", Chain(handlers.PostDailyInsightsHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /recalculate", Chain(handlers.RecalculateHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /leader-days", Chain(handlers.LeaderDaysHandler(s.Processor), paramsMiddleware))
	s.Router.Handle("POST /pubsub/recalculate", Chain(handlers.RecalculateStatsPushHandler(s.Processor, s.PubSub), paramsMiddleware))

	s.Router.Handle("POST /slack/command/leaderboard", Chain(handlers.LeaderboardCommandHandler(s.Processor, s.Notifier), paramsMiddleware, slackVerified))
	s.Router.Handle("POST /slack/command/player-stats", Chain(handlers.PlayerStatsCommandHandler(s.Processor, s.Notifier), paramsMiddleware, slackVerified))
	s.Router.Handle("POST /slack/command/predict", Chain(handlers.PredictCommandHandler(s.Processor, s.Notifier), paramsMiddleware, slackVerified))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
