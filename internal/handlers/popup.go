package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/phishlens/phishlens/internal/analytics"
	"github.com/phishlens/phishlens/internal/assess"
	"github.com/phishlens/phishlens/internal/presenter"
)

// PopupHandler serves the server-rendered popup. The server holds a single
// popup, so checks through this page are serialized.
type PopupHandler struct {
	mu       sync.Mutex
	popup    *presenter.Popup
	values   map[presenter.Surface]string
	pipeline *assess.Pipeline
	logger   *slog.Logger
}

// NewPopupHandler creates a new PopupHandler.
func NewPopupHandler(pipeline *assess.Pipeline, logger *slog.Logger) *PopupHandler {
	return &PopupHandler{
		popup:    presenter.NewPopup(),
		values:   make(map[presenter.Surface]string),
		pipeline: pipeline,
		logger:   logger,
	}
}

type surfaceData struct {
	Name  presenter.Surface
	Value string
	View  presenter.View
}

type popupData struct {
	Border    string
	TextColor string
	Surfaces  []surfaceData
}

// Show handles GET /.
func (ph *PopupHandler) Show(w http.ResponseWriter, r *http.Request) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	ph.render(w)
}

// CheckInput handles POST /check with form field url.
func (ph *PopupHandler) CheckInput(w http.ResponseWriter, r *http.Request) {
	ph.check(w, r, presenter.SurfaceInput, r.FormValue("url"))
}

// CheckTab handles POST /check-tab with form field tab_url.
func (ph *PopupHandler) CheckTab(w http.ResponseWriter, r *http.Request) {
	ph.check(w, r, presenter.SurfaceTab, r.FormValue("tab_url"))
}

// Clear handles POST /clear.
func (ph *PopupHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	ph.popup.Clear()
	clear(ph.values)
	ph.render(w)
}

// LaunchAnalytics handles GET /analytics/launch/{surface}: it redirects to
// the analytics view for the explanation that surface is showing.
func (ph *PopupHandler) LaunchAnalytics(w http.ResponseWriter, r *http.Request) {
	surface := presenter.Surface(chi.URLParam(r, "surface"))
	if !surface.Valid() {
		http.NotFound(w, r)
		return
	}

	ph.mu.Lock()
	explanation, err := ph.popup.AnalyticsLaunch(surface)
	ph.mu.Unlock()
	if errors.Is(err, presenter.ErrNoAnalytics) {
		http.Error(w, presenter.NoticeNoAnalytics, http.StatusNotFound)
		return
	}

	link, err := analytics.LaunchURL(assess.AnalyticsPath, explanation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}

func (ph *PopupHandler) check(w http.ResponseWriter, r *http.Request, s presenter.Surface, raw string) {
	ph.mu.Lock()
	defer ph.mu.Unlock()

	ph.values[s] = raw
	if _, err := ph.pipeline.Drive(r.Context(), ph.popup, s, raw); err != nil {
		ph.logger.Debug("popup check failed", "surface", s, "err", err)
	}
	ph.render(w)
}

func (ph *PopupHandler) render(w http.ResponseWriter) {
	data := popupData{Border: ph.popup.Border(), TextColor: presenter.ColorDefaultText}
	for _, s := range presenter.Surfaces {
		data.Surfaces = append(data.Surfaces, surfaceData{Name: s, Value: ph.values[s], View: ph.popup.View(s)})
	}
	render(w, ph.logger, "popup.html", data)
}
