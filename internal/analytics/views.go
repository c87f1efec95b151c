// Package analytics turns SHAP explanations into chart data and renders
// the charts shown on the analytics page.
package analytics

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/phishlens/phishlens/internal/predict"
)

const (
	ColorSafe   = "#1E8449"
	ColorUnsafe = "#C62828"

	// maxLabelLen is the longest label shown untruncated.
	maxLabelLen = 10
)

// TruncateLabel shortens labels longer than maxLabelLen runes to their
// first maxLabelLen-1 runes plus an ellipsis.
func TruncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= maxLabelLen {
		return label
	}
	runes := []rune(label)
	return string(runes[:maxLabelLen-1]) + "…"
}

// Bar is one column of a contribution bar chart.
type Bar struct {
	Label string
	Value float64
	// Height is |value| relative to the largest |value| in the list, in [0,1].
	Height float64
}

// BarView is the custom bar chart for one side of the explanation.
type BarView struct {
	Title string
	Color string
	Bars  []Bar
}

// NewBarView builds the bar chart for list in caller order. It reports
// false when the list is empty.
func NewBarView(title, color string, list []predict.Contribution) (BarView, bool) {
	if len(list) == 0 {
		return BarView{}, false
	}

	maxVal := 0.0
	for _, c := range list {
		maxVal = math.Max(maxVal, math.Abs(c.ShapValue))
	}

	view := BarView{Title: title, Color: color, Bars: make([]Bar, 0, len(list))}
	for _, c := range list {
		v := math.Abs(c.ShapValue)
		h := 0.0
		if maxVal > 0 {
			h = v / maxVal
		}
		view.Bars = append(view.Bars, Bar{Label: TruncateLabel(c.Feature), Value: v, Height: h})
	}
	return view, true
}

// PieView holds the total contribution magnitude on each side.
type PieView struct {
	Safe   float64
	Unsafe float64
}

// NewPieView sums |value| per side. It reports false when both lists are
// empty.
func NewPieView(e predict.Explanation) (PieView, bool) {
	if e.Empty() {
		return PieView{}, false
	}
	return PieView{Safe: sumAbs(e.TopSafe), Unsafe: sumAbs(e.TopUnsafe)}, true
}

// HorizontalBar is one row of the combined feature-importance chart.
type HorizontalBar struct {
	Label string
	Value float64
	Color string
}

// NewHorizontalView merges both lists and orders them by |value|
// descending. Ties keep their merged order (safe before unsafe, then rank).
func NewHorizontalView(e predict.Explanation) ([]HorizontalBar, bool) {
	if e.Empty() {
		return nil, false
	}

	all := make([]predict.Contribution, 0, len(e.TopSafe)+len(e.TopUnsafe))
	all = append(all, e.TopSafe...)
	all = append(all, e.TopUnsafe...)
	sort.SliceStable(all, func(i, j int) bool {
		return math.Abs(all[i].ShapValue) > math.Abs(all[j].ShapValue)
	})

	rows := make([]HorizontalBar, 0, len(all))
	for _, c := range all {
		color := ColorSafe
		if c.ShapValue > 0 {
			color = ColorUnsafe
		}
		rows = append(rows, HorizontalBar{Label: TruncateLabel(c.Feature), Value: c.ShapValue, Color: color})
	}
	return rows, true
}

// LineView holds the cumulative contribution series.
//
// Labels is the safe labels followed by the unsafe labels, while both
// series are indexed from zero, so the unsafe series is drawn against the
// safe side's labels.
type LineView struct {
	Labels []string
	Safe   []float64
	Unsafe []float64
}

// NewLineView computes the running signed sums for each side. It reports
// false when both lists are empty.
func NewLineView(e predict.Explanation) (LineView, bool) {
	if e.Empty() {
		return LineView{}, false
	}

	view := LineView{
		Labels: make([]string, 0, len(e.TopSafe)+len(e.TopUnsafe)),
		Safe:   cumulative(e.TopSafe),
		Unsafe: cumulative(e.TopUnsafe),
	}
	for _, c := range e.TopSafe {
		view.Labels = append(view.Labels, TruncateLabel(c.Feature))
	}
	for _, c := range e.TopUnsafe {
		view.Labels = append(view.Labels, TruncateLabel(c.Feature))
	}
	return view, true
}

func cumulative(list []predict.Contribution) []float64 {
	out := make([]float64, len(list))
	sum := 0.0
	for i, c := range list {
		sum += c.ShapValue
		out[i] = sum
	}
	return out
}

func sumAbs(list []predict.Contribution) float64 {
	total := 0.0
	for _, c := range list {
		total += math.Abs(c.ShapValue)
	}
	return total
}
