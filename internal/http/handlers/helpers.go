package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/league"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/mauv0809/pingpong-league/internal/scoring"
)

// ContextKey is a custom type to avoid key collisions in context.
type ContextKey string

const (
	DryRunKey ContextKey = "dryRun"
)

// IsDryRunFromContext is a helper to safely retrieve the dry_run flag from the request context.
func IsDryRunFromContext(r *http.Request) bool {
	dryRun, ok := r.Context().Value(DryRunKey).(bool)
	return ok && dryRun
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, league.ErrPlayerNotFound),
		errors.Is(err, league.ErrMatchNotFound),
		errors.Is(err, league.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, processor.ErrInvalidTeams),
		errors.Is(err, scoring.ErrInvalidScore):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondWithError writes client errors verbatim and hides server errors
// behind msg.
func respondWithError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, "error", err)
		http.Error(w, msg, status)
		return
	}
	log.Warn(msg, "error", err, "status", status)
	http.Error(w, err.Error(), status)
}

// splitPartial separates a partial write-back from a real failure. The
// mutation behind a partial write-back is stored, so callers report success
// with the returned warning.
func splitPartial(err error) (warning string, fatal error) {
	if err == nil {
		return "", nil
	}
	if errors.Is(err, processor.ErrPartialWriteBack) {
		log.Warn("Recalculation saved only some players", "error", err)
		return err.Error(), nil
	}
	return "", err
}

func requireParams(r *http.Request, names ...string) ([]string, bool) {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = strings.TrimSpace(r.URL.Query().Get(name))
		if values[i] == "" {
			return nil, false
		}
	}
	return values, true
}
