// Package messaging answers the extension's background message channel.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phishlens/phishlens/internal/features"
	"github.com/phishlens/phishlens/internal/predict"
)

// ActionCheckURL asks for a feature-based verdict on a URL.
const ActionCheckURL = "checkURL"

// GenericError is the only failure text the channel ever returns.
const GenericError = "Error: Could not process the URL."

// Request is an inbound message.
type Request struct {
	Action string `json:"action"`
	URL    string `json:"url"`
}

// Reply is the answer to a Request. Exactly one field is set.
type Reply struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FeaturePredictor classifies a feature vector.
type FeaturePredictor interface {
	PredictFeatures(ctx context.Context, vec features.Vector) (*predict.FeatureVerdict, error)
}

// Handler answers messages.
type Handler struct {
	predictor FeaturePredictor
	logger    *slog.Logger
}

// NewHandler creates a new message handler.
func NewHandler(predictor FeaturePredictor, logger *slog.Logger) *Handler {
	return &Handler{predictor: predictor, logger: logger}
}

// Handle answers req. It never returns an error: failures become reply text.
func (h *Handler) Handle(ctx context.Context, req Request) Reply {
	if req.Action != ActionCheckURL {
		return Reply{Error: "unsupported action"}
	}

	vec, err := features.Extract(req.URL)
	if err != nil {
		h.logger.Error("feature extraction failed", "url", req.URL, "err", err)
		return Reply{Result: GenericError}
	}

	verdict, err := h.predictor.PredictFeatures(ctx, vec)
	if err != nil {
		h.logger.Error("feature prediction failed", "url", req.URL, "err", err)
		return Reply{Result: GenericError}
	}

	if verdict.Phishing() {
		return Reply{Result: fmt.Sprintf("The URL %s is phishing!", req.URL)}
	}
	return Reply{Result: fmt.Sprintf("The URL %s is legitimate.", req.URL)}
}
