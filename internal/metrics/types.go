package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	Recalculations        prometheus.Counter
	RecalculationDuration prometheus.Histogram
	PlayerSaveFailures    prometheus.Counter
	MatchesRecorded       prometheus.Counter
	LeaderDayIncrements   prometheus.Counter
	SlackNotifSent        prometheus.Counter
	SlackNotifFailed      prometheus.Counter
	StartupTimeSeconds    prometheus.Gauge
}
