package handlers

import (
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phishlens/phishlens/internal/analytics"
	"github.com/phishlens/phishlens/internal/presenter"
)

// AnalyticsHandler serves the analytics page and individual chart images.
type AnalyticsHandler struct {
	renderer *analytics.Renderer
	logger   *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(renderer *analytics.Renderer, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{renderer: renderer, logger: logger}
}

type chartData struct {
	Title string
	Image template.URL
}

type analyticsData struct {
	Notice string
	Charts []chartData
}

// Page handles GET /analytics?data=... and inlines every chart.
func (ah *AnalyticsHandler) Page(w http.ResponseWriter, r *http.Request) {
	explanation, err := analytics.DecodeQuery(r.URL.Query())
	if err != nil || explanation.Empty() {
		if err != nil {
			ah.logger.Warn("analytics data unreadable", "err", err)
		}
		render(w, ah.logger, "analytics.html", analyticsData{Notice: presenter.NoticeNoAnalytics})
		return
	}

	images := ah.renderer.RenderAll(explanation)

	var data analyticsData
	for _, kind := range analytics.Kinds {
		c := chartData{Title: kind.Title()}
		if img, ok := images[kind]; ok {
			c.Image = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
		}
		data.Charts = append(data.Charts, c)
	}
	render(w, ah.logger, "analytics.html", data)
}

// Chart handles GET /analytics/chart/{kind}.png?data=... A chart without
// data is answered with 204.
func (ah *AnalyticsHandler) Chart(w http.ResponseWriter, r *http.Request) {
	kind, err := analytics.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	explanation, err := analytics.DecodeQuery(r.URL.Query())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := ah.renderer.Render(kind, explanation)
	if err != nil {
		ah.logger.Error("render chart failed", "chart", kind, "err", err)
		jsonError(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	if img == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(img)
}
