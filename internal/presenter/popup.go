package presenter

import (
	"errors"

	"github.com/phishlens/phishlens/internal/predict"
)

// ErrNoAnalytics is returned when analytics are requested without any
// explanation data to show.
var ErrNoAnalytics = errors.New("no analytics data available")

// User-facing notices.
const (
	NoticeEmptyInput  = "Please enter a URL."
	NoticeInvalidURL  = "Please enter a valid URL."
	NoticeInternalURL = "This is a Chrome internal URL."
	NoticeNoAnalytics = "No analytics data available."
)

// Surface identifies one of the popup's independent check areas.
type Surface string

const (
	SurfaceInput Surface = "input"
	SurfaceTab   Surface = "tab"
)

// Surfaces lists every surface in display order.
var Surfaces = []Surface{SurfaceInput, SurfaceTab}

// Valid reports whether s is a known surface.
func (s Surface) Valid() bool {
	return s == SurfaceInput || s == SurfaceTab
}

// State is a surface's display state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateShown   State = "shown"
	StateFailed  State = "failed"
)

// View is what one surface currently displays.
type View struct {
	State State
	// Notice is a validation or failure message shown instead of a result.
	Notice           string
	NoticeColor      string
	Assessment       *Assessment
	AnalyticsVisible bool
}

// Popup tracks both surfaces and the shared border color. It mirrors a
// single UI and is not safe for concurrent use.
type Popup struct {
	views  map[Surface]*View
	border string
}

// NewPopup returns a popup with every surface idle.
func NewPopup() *Popup {
	p := &Popup{views: make(map[Surface]*View, len(Surfaces))}
	p.Clear()
	return p
}

// View returns a copy of the surface's current view.
func (p *Popup) View(s Surface) View {
	if v, ok := p.views[s]; ok {
		return *v
	}
	return View{State: StateIdle}
}

// Border returns the container border color.
func (p *Popup) Border() string { return p.border }

// Clear resets every surface to idle and restores the default border.
func (p *Popup) Clear() {
	for _, s := range Surfaces {
		p.views[s] = &View{State: StateIdle}
	}
	p.border = ColorDefaultBorder
}

// Begin starts a check on s. Any previous result, notice or analytics
// affordance on either surface is cleared first.
func (p *Popup) Begin(s Surface) {
	p.Clear()
	p.views[s].State = StateLoading
}

// Reject shows a validation message on s without sending a request.
func (p *Popup) Reject(s Surface, msg string) {
	p.Clear()
	p.views[s].Notice = msg
	p.views[s].NoticeColor = ColorNotice
}

// Complete shows a result on s. Completions for a surface that is not
// loading are stale and ignored; it reports whether the result was applied.
func (p *Popup) Complete(s Surface, a Assessment) bool {
	v, ok := p.views[s]
	if !ok || v.State != StateLoading {
		return false
	}
	v.State = StateShown
	v.Assessment = &a
	v.AnalyticsVisible = true
	p.border = a.Color
	return true
}

// Fail shows a failure message on s. Like Complete, it only applies while
// the surface is loading.
func (p *Popup) Fail(s Surface, msg string) bool {
	v, ok := p.views[s]
	if !ok || v.State != StateLoading {
		return false
	}
	v.State = StateFailed
	v.Notice = msg
	v.NoticeColor = ColorNotice
	return true
}

// AnalyticsLaunch returns the explanation shown on s, to be handed to the
// analytics view.
func (p *Popup) AnalyticsLaunch(s Surface) (predict.Explanation, error) {
	v := p.View(s)
	if v.State != StateShown || v.Assessment == nil || v.Assessment.Explanation.Empty() {
		return predict.Explanation{}, ErrNoAnalytics
	}
	return v.Assessment.Explanation, nil
}
