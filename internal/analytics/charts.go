package analytics

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func chartColor(hex string) drawing.Color {
	c := parseHex(hex)
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// drawPie renders the safe/unsafe magnitude split.
func drawPie(view PieView, w, h int, out io.Writer) error {
	pie := chart.PieChart{
		Title:  "Cumulative Contributions",
		Width:  w,
		Height: h,
		Values: []chart.Value{
			{Value: view.Safe, Label: "Safe Contributions", Style: chart.Style{FillColor: chartColor(ColorSafe)}},
			{Value: view.Unsafe, Label: "Unsafe Contributions", Style: chart.Style{FillColor: chartColor(ColorUnsafe)}},
		},
	}
	return pie.Render(chart.PNG, out)
}

// drawLine renders both cumulative series over the concatenated label axis.
func drawLine(view LineView, w, h int, out io.Writer) error {
	ticks := make([]chart.Tick, 0, len(view.Labels))
	for i, label := range view.Labels {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: asciiLabel(label)})
	}

	var series []chart.Series
	add := func(name string, ys []float64, hex string) {
		if len(ys) == 0 {
			return
		}
		xs := make([]float64, len(ys))
		for i := range xs {
			xs[i] = float64(i)
		}
		col := chartColor(hex)
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
			},
		})
	}
	add("Cumulative Safe Contribution", view.Safe, ColorSafe)
	add("Cumulative Unsafe Contribution", view.Unsafe, ColorUnsafe)

	lo, hi := valueBounds(view.Safe, view.Unsafe)
	ch := chart.Chart{
		Title:      "Prediction Evolution",
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Feature",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(len(view.Labels)-1, 1))},
		},
		YAxis: chart.YAxis{
			Name:  "Cumulative SHAP Value",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, out)
}

// valueBounds returns a padded range covering zero and every value.
func valueBounds(sets ...[]float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, set := range sets {
		for _, v := range set {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if hi == lo {
		return lo, lo + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
