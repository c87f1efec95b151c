// Package assess runs a URL check end to end: normalization, prediction,
// presentation, then history and live events.
package assess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phishlens/phishlens/internal/analytics"
	"github.com/phishlens/phishlens/internal/db"
	"github.com/phishlens/phishlens/internal/predict"
	"github.com/phishlens/phishlens/internal/presenter"
	"github.com/phishlens/phishlens/internal/sse"
	"github.com/phishlens/phishlens/internal/urlnorm"
)

// AnalyticsPath is the base of analytics launch links.
const AnalyticsPath = "/analytics"

// Predictor scores a URL.
type Predictor interface {
	PredictURL(ctx context.Context, target string) (*predict.PredictionResult, error)
}

// Recorder persists completed assessments.
type Recorder interface {
	InsertAssessment(ctx context.Context, e *db.HistoryEntry) error
}

// Publisher fans events out to live subscribers.
type Publisher interface {
	Publish(topic string, event sse.Event)
}

// Outcome is a completed check.
type Outcome struct {
	Surface      presenter.Surface    `json:"surface"`
	Assessment   presenter.Assessment `json:"assessment"`
	AnalyticsURL string               `json:"analytics_url,omitempty"`
}

// Pipeline wires the normalizer and prediction client together. Recorder
// and Publisher are optional.
type Pipeline struct {
	predictor  Predictor
	normalizer *urlnorm.Normalizer
	recorder   Recorder
	publisher  Publisher
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder stores every completed assessment.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithPublisher publishes every completed assessment on sse.TopicAssessments.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// NewPipeline creates a new assessment pipeline.
func NewPipeline(predictor Predictor, normalizer *urlnorm.Normalizer, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{predictor: predictor, normalizer: normalizer, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Target normalizes raw for surface. Errors are urlnorm validation errors.
func (p *Pipeline) Target(s presenter.Surface, raw string) (urlnorm.Target, error) {
	switch s {
	case presenter.SurfaceInput:
		return p.normalizer.Normalize(raw)
	case presenter.SurfaceTab:
		return p.normalizer.NormalizeTab(raw)
	}
	return urlnorm.Target{}, fmt.Errorf("unknown surface %q", s)
}

// Assess predicts target and builds the outcome. Prediction errors are
// returned unchanged so callers can match them with errors.Is.
func (p *Pipeline) Assess(ctx context.Context, s presenter.Surface, target urlnorm.Target) (*Outcome, error) {
	result, err := p.predictor.PredictURL(ctx, target.URL)
	if err != nil {
		p.logger.Warn("prediction failed", "surface", s, "url", target.URL, "err", err)
		return nil, err
	}

	out := &Outcome{
		Surface:    s,
		Assessment: presenter.Assess(result, target.Original, target.URL),
	}
	if !result.Explanations.Empty() {
		link, err := analytics.LaunchURL(AnalyticsPath, result.Explanations)
		if err != nil {
			return nil, err
		}
		out.AnalyticsURL = link
	}

	p.logger.Info("url assessed",
		"surface", s,
		"url", target.URL,
		"probability", out.Assessment.Probability,
		"tier", out.Assessment.Tier,
	)
	p.record(ctx, out)
	return out, nil
}

// Check runs Target then Assess.
func (p *Pipeline) Check(ctx context.Context, s presenter.Surface, raw string) (*Outcome, error) {
	target, err := p.Target(s, raw)
	if err != nil {
		return nil, err
	}
	return p.Assess(ctx, s, target)
}

// Drive runs a check and applies every transition to popup: validation
// failures are rejected without a request, otherwise the surface loads and
// then completes or fails.
func (p *Pipeline) Drive(ctx context.Context, popup *presenter.Popup, s presenter.Surface, raw string) (*Outcome, error) {
	target, err := p.Target(s, raw)
	if err != nil {
		popup.Reject(s, Notice(err))
		return nil, err
	}

	popup.Begin(s)
	out, err := p.Assess(ctx, s, target)
	if err != nil {
		popup.Fail(s, Notice(err))
		return nil, err
	}
	popup.Complete(s, out.Assessment)
	return out, nil
}

// record stores and publishes out. Failures are only logged.
func (p *Pipeline) record(ctx context.Context, out *Outcome) {
	a := out.Assessment
	explanation, err := json.Marshal(a.Explanation)
	if err != nil {
		p.logger.Error("encode explanation failed", "err", err)
		explanation = nil
	}
	entry := &db.HistoryEntry{
		Surface:     string(out.Surface),
		OriginalURL: a.OriginalURL,
		CheckedURL:  a.CheckedURL,
		Probability: a.Probability,
		Tier:        string(a.Tier),
		Color:       a.Color,
		Explanation: explanation,
	}

	if p.recorder != nil {
		if err := p.recorder.InsertAssessment(ctx, entry); err != nil {
			p.logger.Error("record assessment failed", "err", err)
		}
	}

	if p.publisher != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			p.logger.Error("encode event failed", "err", err)
			return
		}
		p.publisher.Publish(sse.TopicAssessments, sse.Event{Type: "assessment", Data: data})
	}
}

// Notice is the user-facing text for a check error.
func Notice(err error) string {
	switch {
	case errors.Is(err, urlnorm.ErrEmptyInput):
		return presenter.NoticeEmptyInput
	case errors.Is(err, urlnorm.ErrInvalidURL):
		return presenter.NoticeInvalidURL
	case errors.Is(err, urlnorm.ErrInternalURL):
		return presenter.NoticeInternalURL
	case errors.Is(err, predict.ErrUnavailable):
		return "The prediction service is unavailable. Please try again later."
	case errors.Is(err, predict.ErrBackend), errors.Is(err, predict.ErrMalformedResponse):
		return "Error: " + err.Error()
	}
	return "Error: Could not process the URL."
}

// IsValidation reports whether err came from URL validation rather than
// from the prediction service.
func IsValidation(err error) bool {
	return errors.Is(err, urlnorm.ErrEmptyInput) ||
		errors.Is(err, urlnorm.ErrInvalidURL) ||
		errors.Is(err, urlnorm.ErrInternalURL)
}
