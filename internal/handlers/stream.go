package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phishlens/phishlens/internal/sse"
)

const hydrateCount = 20

// StreamHandler serves SSE streams of completed assessments.
type StreamHandler struct {
	hub    *sse.Hub
	store  HistoryStore
	logger *slog.Logger
}

// NewStreamHandler creates a new StreamHandler. store may be nil.
func NewStreamHandler(hub *sse.Hub, store HistoryStore, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, store: store, logger: logger}
}

// HandleSSE handles GET /api/stream/events.
// It replays recent history when available, then streams live assessments
// with periodic keepalives.
func (sh *StreamHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, cancel := sh.hub.Subscribe(sse.TopicAssessments)
	defer cancel()

	if sh.store != nil {
		sh.hydrate(w, r)
	}
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// hydrate replays recent history oldest first. Failures are logged and the
// stream continues live-only.
func (sh *StreamHandler) hydrate(w http.ResponseWriter, r *http.Request) {
	recent, err := sh.store.RecentAssessments(r.Context(), hydrateCount)
	if err != nil {
		sh.logger.Warn("stream hydration failed", "err", err)
		return
	}
	for i := len(recent) - 1; i >= 0; i-- {
		data, err := json.Marshal(recent[i])
		if err != nil {
			sh.logger.Warn("marshal history entry failed", "id", recent[i].ID, "err", err)
			continue
		}
		fmt.Fprintf(w, "event: assessment\ndata: %s\n\n", data)
	}
}
