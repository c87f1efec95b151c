package handlers

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phishlens/phishlens/internal/analytics"
	"github.com/phishlens/phishlens/internal/assess"
	"github.com/phishlens/phishlens/internal/messaging"
	"github.com/phishlens/phishlens/internal/ratelimit"
	"github.com/phishlens/phishlens/internal/server"
	"github.com/phishlens/phishlens/internal/sse"
	"github.com/phishlens/phishlens/internal/ws"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Deps are the services behind the HTTP surface. History may be nil, which
// disables the history endpoint and stream hydration.
type Deps struct {
	Pipeline *assess.Pipeline
	Messages *messaging.Handler
	Renderer *analytics.Renderer
	Hub      *sse.Hub
	History  HistoryStore
	Limiter  *ratelimit.Limiter
	WS       *ws.Manager
	Logger   *slog.Logger
}

// NewRouter builds the chi router for `phishlens serve`.
func NewRouter(d Deps) http.Handler {
	popup := NewPopupHandler(d.Pipeline, d.Logger)
	api := NewAssessHandler(d.Pipeline, d.Limiter)
	charts := NewAnalyticsHandler(d.Renderer, d.Logger)
	history := NewHistoryHandler(d.History)
	stream := NewStreamHandler(d.Hub, d.History, d.Logger)
	messages := NewMessageHandler(d.Messages, d.Limiter)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(server.CORS)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("pong"))
	})

	// Popup page
	r.Get("/", popup.Show)
	r.Post("/check", popup.CheckInput)
	r.Post("/check-tab", popup.CheckTab)
	r.Post("/clear", popup.Clear)
	r.Get("/analytics/launch/{surface}", popup.LaunchAnalytics)

	// Analytics view
	r.Get("/analytics", charts.Page)
	r.Get("/analytics/chart/{kind}.png", charts.Chart)

	// Extension API
	r.Post("/v1/assess", api.Assess)
	r.Post("/v1/message", messages.Message)
	r.Get("/ws", d.WS.HandleWS)

	r.Get("/api/history", history.List)
	r.Get("/api/stream/events", stream.HandleSSE)

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func render(w http.ResponseWriter, logger *slog.Logger, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("render template failed", "template", name, "err", err)
	}
}
