package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/notifier"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/slack-go/slack"
)

const predictUsage = "Usage: /predict Alice vs Bob, or /predict Alice & Bob vs Carl & Dana"

var (
	versusPattern   = regexp.MustCompile(`(?i)\s+vs\.?\s+`)
	teammatePattern = regexp.MustCompile(`\s*[&,]\s*`)
)

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// respondWithFormatted casts a notifier response to a Slack message and writes it.
func respondWithFormatted(w http.ResponseWriter, msg any, err error) {
	if err != nil {
		http.Error(w, "Failed to format response", http.StatusInternalServerError)
		log.Error("Failed to format slack response", "error", err)
		return
	}
	slackMsg, ok := msg.(slack.Message)
	if !ok {
		http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
		log.Error("Failed to cast message to slack.Message")
		return
	}
	respondWithSlackMsg(w, slackMsg)
}

// parsePredictText splits "A vs B" or "A & B vs C & D" into the two teams.
// Without "vs", two words mean singles and four mean doubles.
func parsePredictText(text string) (team1, team2 []string, ok bool) {
	text = strings.TrimSpace(text)
	if sides := versusPattern.Split(text, -1); len(sides) == 2 {
		team1 = splitTeam(sides[0])
		team2 = splitTeam(sides[1])
	} else {
		fields := strings.Fields(text)
		half := len(fields) / 2
		team1, team2 = fields[:half], fields[half:]
	}
	if len(team1) != len(team2) || (len(team1) != 1 && len(team1) != 2) {
		return nil, nil, false
	}
	return team1, team2, true
}

func splitTeam(side string) []string {
	var names []string
	for _, name := range teammatePattern.Split(strings.TrimSpace(side), -1) {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func LeaderboardCommandHandler(proc *processor.Processor, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := proc.Leaderboard(r.Context())
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard", "error", err)
			return
		}
		msg, err := notifier.FormatLeaderboardResponse(players)
		respondWithFormatted(w, msg, err)
	}
}

func PlayerStatsCommandHandler(proc *processor.Processor, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		playerName := strings.TrimSpace(r.FormValue("text"))
		if playerName == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		log.Info("Received player stats command", "player", playerName)
		ps, err := proc.PlayerStats(r.Context(), playerName)
		var msg any
		switch {
		case errors.Is(err, league.ErrPlayerNotFound):
			log.Warn("Could not find player stats", "player", playerName)
			msg, err = notifier.FormatPlayerNotFoundResponse(playerName)
		case err != nil:
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats", "player", playerName, "error", err)
			return
		default:
			msg, err = notifier.FormatPlayerStatsResponse(ps.Player, ps.Advanced)
		}
		respondWithFormatted(w, msg, err)
	}
}

func PredictCommandHandler(proc *processor.Processor, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		text := r.FormValue("text")
		team1, team2, ok := parsePredictText(text)
		if !ok {
			http.Error(w, predictUsage, http.StatusBadRequest)
			return
		}
		log.Info("Received predict command", "team1", team1, "team2", team2)

		var msg any
		if len(team1) == 1 {
			prediction, err := proc.PredictSingles(r.Context(), team1[0], team2[0])
			switch {
			case errors.Is(err, processor.ErrInvalidTeams):
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			case errors.Is(err, league.ErrPlayerNotFound):
				msg, err = notifier.FormatPlayerNotFoundResponse(strings.TrimPrefix(err.Error(), league.ErrPlayerNotFound.Error()+": "))
				respondWithFormatted(w, msg, err)
				return
			case err != nil:
				http.Error(w, "Failed to predict match", http.StatusInternalServerError)
				log.Error("Failed to predict singles match", "error", err)
				return
			}
			msg, err = notifier.FormatSinglesPredictionResponse(*prediction)
			respondWithFormatted(w, msg, err)
			return
		}

		prediction, err := proc.PredictDoubles(r.Context(), team1[0], team1[1], team2[0], team2[1])
		if errors.Is(err, processor.ErrInvalidTeams) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to predict match", http.StatusInternalServerError)
			log.Error("Failed to predict doubles match", "error", err)
			return
		}
		msg, err = notifier.FormatDoublesPredictionResponse(*prediction)
		respondWithFormatted(w, msg, err)
	}
}
