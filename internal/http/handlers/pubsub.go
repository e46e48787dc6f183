package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-league/internal/processor"
	"github.com/mauv0809/pingpong-league/internal/pubsub"
)

// RecalculateStatsPushHandler receives recalculation requests pushed by a
// Pub/Sub subscription. Non-2xx responses make Pub/Sub redeliver.
func RecalculateStatsPushHandler(proc *processor.Processor, pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received recalculate stats message", "body", string(bodyBytes))

		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"`
			} `json:"message"`
		}

		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		var event pubsub.RecalculateStatsEvent
		if err := pubsubClient.ProcessMessage(rawData, &event); err != nil {
			log.Error("Failed to decode recalculate stats event", "error", err)
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}
		log.Info("Recalculating stats from Pub/Sub", "reason", event.Reason, "requestedAt", event.RequestedAt)

		if _, err := proc.RecalculateAllStats(r.Context()); err != nil {
			if _, fatal := splitPartial(err); fatal != nil {
				respondWithError(w, fatal, "Failed to recalculate stats")
				return
			}
		}
		w.Write([]byte("OK"))
	}
}
