package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/phishlens/phishlens/internal/assess"
	"github.com/phishlens/phishlens/internal/presenter"
	"github.com/phishlens/phishlens/internal/ratelimit"
)

// AssessHandler is the JSON assessment API used by the extension.
type AssessHandler struct {
	pipeline *assess.Pipeline
	limiter  *ratelimit.Limiter
}

// NewAssessHandler creates a new AssessHandler.
func NewAssessHandler(pipeline *assess.Pipeline, limiter *ratelimit.Limiter) *AssessHandler {
	return &AssessHandler{pipeline: pipeline, limiter: limiter}
}

type assessRequest struct {
	URL    string `json:"url"`
	TabURL string `json:"tab_url"`
}

type assessResponse struct {
	Surface      presenter.Surface `json:"surface"`
	OriginalURL  string            `json:"original_url"`
	CheckedURL   string            `json:"checked_url"`
	Probability  float64           `json:"probability"`
	Percent      int               `json:"percent"`
	Tier         presenter.Tier    `json:"tier"`
	Color        string            `json:"color"`
	Message      string            `json:"message"`
	Advice       string            `json:"advice"`
	AnalyticsURL string            `json:"analytics_url,omitempty"`
}

// Assess handles POST /v1/assess. A tab_url selects the tab surface,
// otherwise url is checked as typed input.
func (ah *AssessHandler) Assess(w http.ResponseWriter, r *http.Request) {
	if ah.limiter.Check(w, r, ratelimit.Assess) {
		return
	}

	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	surface, raw := presenter.SurfaceInput, req.URL
	if req.URL == "" && req.TabURL != "" {
		surface, raw = presenter.SurfaceTab, req.TabURL
	}

	out, err := ah.pipeline.Check(r.Context(), surface, raw)
	if err != nil {
		if assess.IsValidation(err) {
			jsonError(w, assess.Notice(err), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	a := out.Assessment
	writeJSON(w, http.StatusOK, assessResponse{
		Surface:      out.Surface,
		OriginalURL:  a.OriginalURL,
		CheckedURL:   a.CheckedURL,
		Probability:  a.Probability,
		Percent:      a.Percent,
		Tier:         a.Tier,
		Color:        a.Color,
		Message:      a.Message,
		Advice:       a.Advice,
		AnalyticsURL: out.AnalyticsURL,
	})
}
