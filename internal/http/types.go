package http

import (
	"net/http"

	"github.com/mauv0809/pingpong-league/internal/config"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/metrics"
	"github.com/mauv0809/pingpong-league/internal/notifier"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/mauv0809/pingpong-league/internal/pubsub"
)

type Server struct {
	Store          league.Store
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Processor      *processor.Processor
	PubSub         pubsub.PubSubClient
	Router         *http.ServeMux
}
