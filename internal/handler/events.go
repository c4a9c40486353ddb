package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/middleware"
	"github.com/streamerhub/hub-server-go/internal/redis"
	"github.com/streamerhub/hub-server-go/internal/sse"
)

type EventsHandler struct {
	broker *sse.Broker
}

func NewEventsHandler(broker *sse.Broker) *EventsHandler {
	return &EventsHandler{broker: broker}
}

// ServeHTTP streams community events over SSE. Every connection gets the
// global feed; authenticated users additionally get their personal topic
// (points updates, win notifications).
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	global := h.broker.Subscribe(redis.GlobalTopic)
	defer h.broker.Unsubscribe(global)

	var personal *sse.Client
	userID := ""
	if user != nil {
		userID = user.ID
		personal = h.broker.Subscribe(redis.UserTopic(user.ID))
		defer h.broker.Unsubscribe(personal)
	}

	log.Info().
		Str("userId", userID).
		Msg("sse connection established")

	h.sendEvent(w, flusher, "connected", map[string]any{
		"userId":        userID,
		"authenticated": user != nil,
	})

	ctx := r.Context()

	// nil channels are never ready, so anonymous connections simply skip
	// the personal cases
	var personalEvents <-chan sse.Event
	var personalDone <-chan struct{}
	if personal != nil {
		personalEvents = personal.Events
		personalDone = personal.Done
	}

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("userId", userID).
				Msg("sse connection closed by client")
			return

		case <-global.Done:
			return

		case <-personalDone:
			return

		case event := <-global.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case event := <-personalEvents:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().
					Str("userId", userID).
					Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
