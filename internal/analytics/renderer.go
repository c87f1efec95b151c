package analytics

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/phishlens/phishlens/internal/predict"
)

// Kind names one of the analytics charts.
type Kind string

const (
	KindSafeBar    Kind = "safe-bar"
	KindUnsafeBar  Kind = "unsafe-bar"
	KindPie        Kind = "pie"
	KindImportance Kind = "importance"
	KindLine       Kind = "line"
)

// Kinds lists every chart in page order.
var Kinds = []Kind{KindSafeBar, KindUnsafeBar, KindPie, KindImportance, KindLine}

// Title returns the chart's display title.
func (k Kind) Title() string {
	switch k {
	case KindSafeBar:
		return "Safe Contributions"
	case KindUnsafeBar:
		return "Unsafe Contributions"
	case KindPie:
		return "Cumulative Pie Chart"
	case KindImportance:
		return "Feature Importance Bar Chart"
	case KindLine:
		return "Prediction Evolution Line Chart"
	}
	return string(k)
}

// ParseKind validates a chart name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("analytics: unknown chart %q", s)
}

// Renderer draws analytics charts as PNG images. Charts with no data are
// skipped: the render methods log a warning and return nil, nil.
type Renderer struct {
	logger *slog.Logger
	width  int
	height int
	render func(Kind, predict.Explanation) ([]byte, error)
}

// NewRenderer creates a renderer producing w×h images. Non-positive sizes
// fall back to 800×400.
func NewRenderer(logger *slog.Logger, w, h int) *Renderer {
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 400
	}
	r := &Renderer{logger: logger, width: w, height: h}
	r.render = r.Render
	return r
}

// Render draws a single chart.
func (r *Renderer) Render(kind Kind, e predict.Explanation) ([]byte, error) {
	switch kind {
	case KindSafeBar:
		return r.bar(kind, ColorSafe, e.TopSafe)
	case KindUnsafeBar:
		return r.bar(kind, ColorUnsafe, e.TopUnsafe)
	case KindPie:
		view, ok := NewPieView(e)
		if !ok || view.Safe+view.Unsafe == 0 {
			return r.skip(kind)
		}
		var buf bytes.Buffer
		if err := drawPie(view, r.width, r.height, &buf); err != nil {
			return nil, fmt.Errorf("analytics: render %s: %w", kind, err)
		}
		return buf.Bytes(), nil
	case KindImportance:
		rows, ok := NewHorizontalView(e)
		if !ok {
			return r.skip(kind)
		}
		return encodePNG(drawHorizontal(rows, r.width, r.height))
	case KindLine:
		view, ok := NewLineView(e)
		if !ok {
			return r.skip(kind)
		}
		if !chartable(view) {
			return encodePNG(drawPoints(view, r.width, r.height))
		}
		var buf bytes.Buffer
		if err := drawLine(view, r.width, r.height, &buf); err != nil {
			return nil, fmt.Errorf("analytics: render %s: %w", kind, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("analytics: unknown chart %q", kind)
}

// RenderAll draws every chart that has data. Skipped charts and charts that
// fail to render are absent from the result; failures are logged.
func (r *Renderer) RenderAll(e predict.Explanation) map[Kind][]byte {
	out := make(map[Kind][]byte, len(Kinds))
	for _, kind := range Kinds {
		img, err := r.render(kind, e)
		if err != nil {
			r.logger.Warn("chart render failed", "chart", kind.Title(), "err", err)
			continue
		}
		if img != nil {
			out[kind] = img
		}
	}
	return out
}

// chartable reports whether go-chart can scale view: it needs at least two
// x positions and two distinct y values.
func chartable(view LineView) bool {
	if max(len(view.Safe), len(view.Unsafe)) < 2 {
		return false
	}
	values := append(append([]float64{}, view.Safe...), view.Unsafe...)
	for _, v := range values[1:] {
		if v != values[0] {
			return true
		}
	}
	return false
}

func (r *Renderer) bar(kind Kind, color string, list []predict.Contribution) ([]byte, error) {
	view, ok := NewBarView(kind.Title(), color, list)
	if !ok {
		return r.skip(kind)
	}
	return encodePNG(drawBars(view, r.width, r.height))
}

func (r *Renderer) skip(kind Kind) ([]byte, error) {
	r.logger.Warn("no data available for chart", "chart", kind.Title())
	return nil, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("analytics: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
