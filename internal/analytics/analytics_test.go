package analytics

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/phishlens/phishlens/internal/predict"
)

func sample() predict.Explanation {
	return predict.Explanation{
		TopSafe: []predict.Contribution{
			{Feature: "domain_age_days", ShapValue: -0.3},
			{Feature: "https", ShapValue: -0.1},
		},
		TopUnsafe: []predict.Contribution{
			{Feature: "nb_hyphens", ShapValue: 0.6},
			{Feature: "length", ShapValue: 0.1},
		},
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"short":           "short",
		"exactly10c":      "exactly10c",
		"domain_age_days": "domain_ag…",
		"ünïcödé_lâbel":   "ünïcödé_l…",
	}
	for in, want := range tests {
		if got := TruncateLabel(in); got != want {
			t.Errorf("TruncateLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewBarView(t *testing.T) {
	view, ok := NewBarView("Safe", ColorSafe, sample().TopSafe)
	if !ok {
		t.Fatal("expected a view")
	}
	if len(view.Bars) != 2 {
		t.Fatalf("bars = %d", len(view.Bars))
	}
	if view.Bars[0].Height != 1 || view.Bars[0].Value != 0.3 {
		t.Errorf("first bar = %+v", view.Bars[0])
	}
	if got := view.Bars[1].Height; got < 0.333 || got > 0.334 {
		t.Errorf("second bar height = %v", got)
	}
	if view.Bars[0].Label != "domain_ag…" {
		t.Errorf("label = %q", view.Bars[0].Label)
	}

	if _, ok := NewBarView("Safe", ColorSafe, nil); ok {
		t.Error("empty list produced a view")
	}
}

func TestNewPieView(t *testing.T) {
	view, ok := NewPieView(sample())
	if !ok {
		t.Fatal("expected a view")
	}
	if view.Safe < 0.399 || view.Safe > 0.401 || view.Unsafe < 0.699 || view.Unsafe > 0.701 {
		t.Errorf("pie = %+v", view)
	}
	if _, ok := NewPieView(predict.Explanation{}); ok {
		t.Error("empty explanation produced a view")
	}
}

func TestNewHorizontalViewOrdering(t *testing.T) {
	e := predict.Explanation{
		TopSafe:   []predict.Contribution{{Feature: "a", ShapValue: -0.2}, {Feature: "b", ShapValue: -0.5}},
		TopUnsafe: []predict.Contribution{{Feature: "c", ShapValue: 0.2}, {Feature: "d", ShapValue: 0.1}},
	}
	rows, ok := NewHorizontalView(e)
	if !ok {
		t.Fatal("expected rows")
	}

	var labels []string
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	// a and c tie on magnitude; the safe entry stays first.
	if got := strings.Join(labels, ","); got != "b,a,c,d" {
		t.Errorf("order = %s", got)
	}
	if rows[0].Color != ColorSafe || rows[2].Color != ColorUnsafe {
		t.Errorf("colors = %s, %s", rows[0].Color, rows[2].Color)
	}
}

func TestNewLineView(t *testing.T) {
	view, ok := NewLineView(sample())
	if !ok {
		t.Fatal("expected a view")
	}
	if len(view.Labels) != 4 {
		t.Errorf("labels = %v", view.Labels)
	}
	wantSafe := []float64{-0.3, -0.4}
	for i, v := range wantSafe {
		if d := view.Safe[i] - v; d > 1e-9 || d < -1e-9 {
			t.Errorf("safe[%d] = %v, want %v", i, view.Safe[i], v)
		}
	}
	if d := view.Unsafe[1] - 0.7; d > 1e-9 || d < -1e-9 {
		t.Errorf("unsafe[1] = %v", view.Unsafe[1])
	}
}

func TestQueryRoundTrip(t *testing.T) {
	link, err := LaunchURL("/analytics", sample())
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/analytics" {
		t.Errorf("path = %s", u.Path)
	}
	got, err := DecodeQuery(u.Query())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.TopSafe) != 2 || got.TopUnsafe[0].Feature != "nb_hyphens" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestEncodeQueryEmptyLists(t *testing.T) {
	q, err := EncodeQuery(predict.Explanation{})
	if err != nil {
		t.Fatal(err)
	}
	values, _ := url.ParseQuery(q)
	if raw := values.Get(QueryParam); raw != `{"top_safe":[],"top_unsafe":[]}` {
		t.Errorf("data = %s", raw)
	}
}

func TestDecodeQueryErrors(t *testing.T) {
	if _, err := DecodeQuery(url.Values{}); !errors.Is(err, ErrMissingData) {
		t.Errorf("missing data error = %v", err)
	}
	if _, err := DecodeQuery(url.Values{QueryParam: {"{not json"}}); err == nil {
		t.Error("expected decode error")
	}
}

func newTestRenderer() *Renderer {
	return NewRenderer(slog.New(slog.NewTextHandler(io.Discard, nil)), 400, 240)
}

func TestRenderEmptyIsNoop(t *testing.T) {
	r := newTestRenderer()
	for _, kind := range Kinds {
		img, err := r.Render(kind, predict.Explanation{})
		if err != nil || img != nil {
			t.Errorf("Render(%s) on empty = (%d bytes, %v)", kind, len(img), err)
		}
	}

	if all := r.RenderAll(predict.Explanation{}); len(all) != 0 {
		t.Errorf("RenderAll on empty = %d charts", len(all))
	}
}

func TestRenderProducesPNG(t *testing.T) {
	r := newTestRenderer()
	for _, kind := range []Kind{KindSafeBar, KindUnsafeBar, KindImportance} {
		data, err := r.Render(kind, sample())
		if err != nil {
			t.Fatalf("Render(%s): %v", kind, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Render(%s) is not a PNG: %v", kind, err)
		}
		if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 240 {
			t.Errorf("Render(%s) size = %v", kind, b)
		}
	}
}

func TestRenderOneSidedExplanation(t *testing.T) {
	r := newTestRenderer()
	e := predict.Explanation{TopUnsafe: sample().TopUnsafe}

	img, err := r.Render(KindSafeBar, e)
	if err != nil || img != nil {
		t.Errorf("safe bar with no safe data = (%d bytes, %v)", len(img), err)
	}
	img, err = r.Render(KindUnsafeBar, e)
	if err != nil || len(img) == 0 {
		t.Errorf("unsafe bar = (%d bytes, %v)", len(img), err)
	}
}

func TestRenderLineSingleContribution(t *testing.T) {
	r := newTestRenderer()
	cases := map[string]predict.Explanation{
		"unsafe only": {TopUnsafe: []predict.Contribution{{Feature: "nb_hyphens", ShapValue: 0.4}}},
		"one each": {
			TopSafe:   []predict.Contribution{{Feature: "https", ShapValue: -0.2}},
			TopUnsafe: []predict.Contribution{{Feature: "length", ShapValue: 0.3}},
		},
		"flat": {TopUnsafe: []predict.Contribution{
			{Feature: "length", ShapValue: 0.3},
			{Feature: "nb_dots", ShapValue: 0},
		}},
	}
	for name, e := range cases {
		data, err := r.Render(KindLine, e)
		if err != nil {
			t.Fatalf("%s: Render(line): %v", name, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: line chart is not a PNG: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 240 {
			t.Errorf("%s: line chart size = %v", name, b)
		}
	}
}

func TestRenderAllSkipsFailedChart(t *testing.T) {
	var logs bytes.Buffer
	r := NewRenderer(slog.New(slog.NewTextHandler(&logs, nil)), 400, 240)
	r.render = func(kind Kind, e predict.Explanation) ([]byte, error) {
		if kind == KindPie {
			return nil, errors.New("boom")
		}
		return r.Render(kind, e)
	}

	all := r.RenderAll(sample())
	if _, ok := all[KindPie]; ok {
		t.Error("failed chart should be skipped")
	}
	if len(all) != len(Kinds)-1 {
		t.Errorf("RenderAll = %d charts, want %d", len(all), len(Kinds)-1)
	}
	if !strings.Contains(logs.String(), "chart render failed") {
		t.Errorf("failure not logged: %s", logs.String())
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("pie"); err != nil || k != KindPie {
		t.Errorf("ParseKind(pie) = %s, %v", k, err)
	}
	if _, err := ParseKind("radar"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestValueBounds(t *testing.T) {
	lo, hi := valueBounds([]float64{-1, 1})
	if lo >= -1 || hi <= 1 {
		t.Errorf("bounds = [%v, %v]", lo, hi)
	}
	lo, hi = valueBounds(nil)
	if lo != 0 || hi != 1 {
		t.Errorf("degenerate bounds = [%v, %v]", lo, hi)
	}
}
