package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRecalculations()
	ObserveRecalculationDuration(duration float64)
	IncPlayerSaveFailures()
	IncMatchesRecorded()
	IncLeaderDayIncrements()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
