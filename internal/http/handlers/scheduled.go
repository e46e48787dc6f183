package handlers

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/processor"
)

type insightsResponse struct {
	Date     string   `json:"date"`
	Insights []string `json:"insights"`
}

// DailyInsightsHandler returns the insights of ?date=YYYY-MM-DD, today by default.
func DailyInsightsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc := proc.Location()
		date := time.Now().In(loc)
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.ParseInLocation(time.DateOnly, raw, loc)
			if err != nil {
				http.Error(w, "date must be formatted as YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = parsed
		}

		insights, err := proc.DailyInsights(r.Context(), date)
		if err != nil {
			respondWithError(w, err, "Failed to build daily insights")
			return
		}
		writeJSON(w, http.StatusOK, insightsResponse{Date: date.Format(time.DateOnly), Insights: insights})
	}
}

func PostDailyInsightsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().In(proc.Location())
		insights, err := proc.PostDailyInsights(r.Context(), now, IsDryRunFromContext(r))
		if err != nil {
			respondWithError(w, err, "Failed to post daily insights")
			return
		}
		writeJSON(w, http.StatusOK, insightsResponse{Date: now.Format(time.DateOnly), Insights: insights})
	}
}

// RecalculateHandler rebuilds all aggregates. With ?async=true the work is
// handed to Pub/Sub subscribers instead.
func RecalculateHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("async") == "true" {
			if IsDryRunFromContext(r) {
				log.Info("[Dry Run] Would request asynchronous recalculation")
				w.WriteHeader(http.StatusAccepted)
				return
			}
			if err := proc.RequestRecalculation("manual"); err != nil {
				respondWithError(w, err, "Failed to request recalculation")
				return
			}
			w.WriteHeader(http.StatusAccepted)
			return
		}

		standings, err := proc.RecalculateAllStats(r.Context())
		warning, err := splitPartial(err)
		if err != nil {
			respondWithError(w, err, "Failed to recalculate stats")
			return
		}
		writeJSON(w, http.StatusOK, standingsResponse{Standings: standings, Warning: warning})
	}
}

type leaderDaysResponse struct {
	Credited *league.Player `json:"credited"`
}

func LeaderDaysHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credited, err := proc.CheckLeaderDays(r.Context(), time.Now())
		if err != nil {
			respondWithError(w, err, "Failed to check leader days")
			return
		}
		writeJSON(w, http.StatusOK, leaderDaysResponse{Credited: credited})
	}
}
