package messaging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phishlens/phishlens/internal/features"
	"github.com/phishlens/phishlens/internal/predict"
)

type fakePredictor struct {
	verdict int
	err     error
	got     features.Vector
}

func (f *fakePredictor) PredictFeatures(_ context.Context, vec features.Vector) (*predict.FeatureVerdict, error) {
	f.got = vec
	if f.err != nil {
		return nil, f.err
	}
	return &predict.FeatureVerdict{RandomForestPrediction: f.verdict}, nil
}

func newHandler(p FeaturePredictor) *Handler {
	return NewHandler(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name string
		pred *fakePredictor
		req  Request
		want Reply
	}{
		{
			name: "phishing",
			pred: &fakePredictor{verdict: 1},
			req:  Request{Action: ActionCheckURL, URL: "http://1.2.3.4@evil-site.com/a/b/c"},
			want: Reply{Result: "The URL http://1.2.3.4@evil-site.com/a/b/c is phishing!"},
		},
		{
			name: "legitimate",
			pred: &fakePredictor{verdict: 0},
			req:  Request{Action: ActionCheckURL, URL: "https://example.com"},
			want: Reply{Result: "The URL https://example.com is legitimate."},
		},
		{
			name: "backend failure",
			pred: &fakePredictor{err: predict.ErrUnavailable},
			req:  Request{Action: ActionCheckURL, URL: "https://example.com"},
			want: Reply{Result: GenericError},
		},
		{
			name: "unparseable url",
			pred: &fakePredictor{},
			req:  Request{Action: ActionCheckURL, URL: "not a url"},
			want: Reply{Result: GenericError},
		},
		{
			name: "unknown action",
			pred: &fakePredictor{},
			req:  Request{Action: "scan", URL: "https://example.com"},
			want: Reply{Error: "unsupported action"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newHandler(tt.pred).Handle(context.Background(), tt.req)
			if got != tt.want {
				t.Errorf("Handle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHandleSendsExtractedFeatures(t *testing.T) {
	pred := &fakePredictor{}
	newHandler(pred).Handle(context.Background(), Request{Action: ActionCheckURL, URL: "http://1.2.3.4@evil-site.com/a/b/c"})
	if pred.got[features.HaveIP] != 1 || pred.got[features.PathDepth] != 3 {
		t.Errorf("features = %v", pred.got)
	}
}
