package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/phishlens/phishlens/internal/messaging"
	"github.com/phishlens/phishlens/internal/ratelimit"
)

// MessageHandler serves the extension message channel over plain HTTP.
type MessageHandler struct {
	handler *messaging.Handler
	limiter *ratelimit.Limiter
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(handler *messaging.Handler, limiter *ratelimit.Limiter) *MessageHandler {
	return &MessageHandler{handler: handler, limiter: limiter}
}

// Message handles POST /v1/message.
func (mh *MessageHandler) Message(w http.ResponseWriter, r *http.Request) {
	if mh.limiter.Check(w, r, ratelimit.Message) {
		return
	}

	var req messaging.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid message", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, mh.handler.Handle(r.Context(), req))
}
