package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/mauv0809/pingpong-league/internal/stats"
)

type matchResponse struct {
	*processor.MatchResult
	Warning string `json:"warning,omitempty"`
}

type standingsResponse struct {
	Standings []stats.PlayerUpdate `json:"standings"`
	Warning   string               `json:"warning,omitempty"`
}

func ListPlayersHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := store.ListPlayers(r.Context())
		if err != nil {
			respondWithError(w, err, "Failed to get players")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

// CreatePlayerHandler registers a player. Derived statistics in the body are
// ignored; they only ever come from a recalculation.
func CreatePlayerHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in league.Player
		if err := decodeJSON(r, &in); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		if _, err := store.GetPlayerByName(r.Context(), in.Name); err == nil {
			http.Error(w, "A player with this name already exists.", http.StatusConflict)
			return
		} else if !errors.Is(err, league.ErrPlayerNotFound) {
			respondWithError(w, err, "Failed to look up player")
			return
		}

		player := league.Player{
			Name:        in.Name,
			AvatarURL:   in.AvatarURL,
			Description: in.Description,
			Skill:       in.Skill,
			Lack:        in.Lack,
			Hand:        in.Hand,
			Shot:        in.Shot,
		}
		created, err := store.CreatePlayer(r.Context(), player)
		if err != nil {
			respondWithError(w, err, "Failed to create player")
			return
		}
		log.Info("Created player", "id", created.ID, "name", created.Name)
		writeJSON(w, http.StatusCreated, created)
	}
}

func DeletePlayerHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := store.DeletePlayer(r.Context(), id); err != nil {
			respondWithError(w, err, "Failed to delete player")
			return
		}
		log.Info("Deleted player", "id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func PlayerStatsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := proc.PlayerStats(r.Context(), r.PathValue("name"))
		if err != nil {
			respondWithError(w, err, "Failed to get player stats")
			return
		}
		writeJSON(w, http.StatusOK, ps)
	}
}

func ListMatchesHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := store.ListMatches(r.Context())
		if err != nil {
			respondWithError(w, err, "Failed to get matches")
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func RecordMatchHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var match league.Match
		if err := decodeJSON(r, &match); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		match.ID = ""

		result, err := proc.RecordMatch(r.Context(), match, IsDryRunFromContext(r))
		warning, err := splitPartial(err)
		if err != nil {
			respondWithError(w, err, "Failed to record match")
			return
		}
		writeJSON(w, http.StatusCreated, matchResponse{MatchResult: result, Warning: warning})
	}
}

func UpdateMatchHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var match league.Match
		if err := decodeJSON(r, &match); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		match.ID = r.PathValue("id")

		result, err := proc.UpdateMatch(r.Context(), match, IsDryRunFromContext(r))
		warning, err := splitPartial(err)
		if err != nil {
			respondWithError(w, err, "Failed to update match")
			return
		}
		writeJSON(w, http.StatusOK, matchResponse{MatchResult: result, Warning: warning})
	}
}

func DeleteMatchHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		standings, err := proc.DeleteMatch(r.Context(), r.PathValue("id"), IsDryRunFromContext(r))
		warning, err := splitPartial(err)
		if err != nil {
			respondWithError(w, err, "Failed to delete match")
			return
		}
		writeJSON(w, http.StatusOK, standingsResponse{Standings: standings, Warning: warning})
	}
}

func ListReportsHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := store.ListReports(r.Context())
		if err != nil {
			respondWithError(w, err, "Failed to get reports")
			return
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

func CreateReportHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in league.Report
		if err := decodeJSON(r, &in); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(in.Content) == "" {
			http.Error(w, "Report content is required.", http.StatusBadRequest)
			return
		}
		report, err := store.CreateReport(r.Context(), league.Report{Author: in.Author, Content: in.Content})
		if err != nil {
			respondWithError(w, err, "Failed to create report")
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}

func DeleteReportHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteReport(r.Context(), r.PathValue("id")); err != nil {
			respondWithError(w, err, "Failed to delete report")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func LeaderboardHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := proc.Leaderboard(r.Context())
		if err != nil {
			respondWithError(w, err, "Failed to get leaderboard")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func StreakLeaderboardHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 5
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		leaders, err := proc.StreakLeaders(r.Context(), limit)
		if err != nil {
			respondWithError(w, err, "Failed to get streak leaderboard")
			return
		}
		writeJSON(w, http.StatusOK, leaders)
	}
}

func HeadToHeadHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, ok := requireParams(r, "a", "b")
		if !ok {
			http.Error(w, "Query parameters a and b are required.", http.StatusBadRequest)
			return
		}
		record, err := proc.HeadToHead(r.Context(), names[0], names[1])
		if err != nil {
			respondWithError(w, err, "Failed to get head-to-head record")
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func PredictSinglesHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, ok := requireParams(r, "a", "b")
		if !ok {
			http.Error(w, "Query parameters a and b are required.", http.StatusBadRequest)
			return
		}
		if names[0] == names[1] {
			http.Error(w, "A player cannot play against themselves.", http.StatusBadRequest)
			return
		}
		prediction, err := proc.PredictSingles(r.Context(), names[0], names[1])
		if err != nil {
			respondWithError(w, err, "Failed to predict match")
			return
		}
		writeJSON(w, http.StatusOK, prediction)
	}
}

func PredictDoublesHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, ok := requireParams(r, "a1", "a2", "b1", "b2")
		if !ok {
			http.Error(w, "Query parameters a1, a2, b1 and b2 are required.", http.StatusBadRequest)
			return
		}
		prediction, err := proc.PredictDoubles(r.Context(), names[0], names[1], names[2], names[3])
		if err != nil {
			respondWithError(w, err, "Failed to predict match")
			return
		}
		writeJSON(w, http.StatusOK, prediction)
	}
}
