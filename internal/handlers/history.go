package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/phishlens/phishlens/internal/db"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryStore reads persisted assessments.
type HistoryStore interface {
	RecentAssessments(ctx context.Context, limit int) ([]db.HistoryEntry, error)
}

// HistoryHandler serves stored assessments.
type HistoryHandler struct {
	store HistoryStore
}

// NewHistoryHandler creates a new HistoryHandler. A nil store disables it.
func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List handles GET /api/history?limit=N.
func (hh *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if hh.store == nil {
		jsonError(w, "history is not enabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			jsonError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := hh.store.RecentAssessments(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to fetch history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
