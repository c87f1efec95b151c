package predict

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phishlens/phishlens/internal/features"
)

func TestPredictURL(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"final_probability": 0.734,
			"shap_explanations": {
				"top_safe": [{"feature": "domain_age", "shap_value": -0.21}],
				"top_unsafe": [{"feature": "nb_hyphens", "shap_value": 0.3}, {"feature": "length_url", "shap_value": 0.1}]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	result, err := client.PredictURL(context.Background(), "http://evil-site.com")
	if err != nil {
		t.Fatalf("PredictURL error: %v", err)
	}

	if gotBody["url"] != "http://evil-site.com" {
		t.Errorf("request body = %v", gotBody)
	}
	if result.FinalProbability != 0.734 {
		t.Errorf("FinalProbability = %v", result.FinalProbability)
	}
	if len(result.Explanations.TopSafe) != 1 || result.Explanations.TopSafe[0].Feature != "domain_age" {
		t.Errorf("TopSafe = %+v", result.Explanations.TopSafe)
	}
	if len(result.Explanations.TopUnsafe) != 2 || result.Explanations.TopUnsafe[1].ShapValue != 0.1 {
		t.Errorf("TopUnsafe = %+v", result.Explanations.TopUnsafe)
	}
}

func TestPredictURLEmptyExplanationFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"final_probability": 0.1, "shap_explanations": []}`)
	}))
	defer server.Close()

	result, err := NewClient(server.URL, time.Second).PredictURL(context.Background(), "http://a.com")
	if err != nil {
		t.Fatalf("PredictURL error: %v", err)
	}
	if !result.Explanations.Empty() {
		t.Errorf("expected empty explanation, got %+v", result.Explanations)
	}
}

func TestPredictFeatures(t *testing.T) {
	var gotBody struct {
		Features []float64 `json:"features"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"random_forest_prediction": 1}`)
	}))
	defer server.Close()

	vec := features.Vector{1, 1, 34, 3, 1, 0, 0, 0, 0}
	verdict, err := NewClient(server.URL, time.Second).PredictFeatures(context.Background(), vec)
	if err != nil {
		t.Fatalf("PredictFeatures error: %v", err)
	}
	if !verdict.Phishing() {
		t.Errorf("expected phishing verdict, got %+v", verdict)
	}
	if len(gotBody.Features) != features.Size || gotBody.Features[2] != 34 {
		t.Errorf("features sent = %v", gotBody.Features)
	}
}

func TestPredictErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{"backend error with details", http.StatusInternalServerError, `{"error": "Feature extraction failed", "details": "timeout"}`, ErrBackend, "Feature extraction failed (timeout)"},
		{"backend error plain text", http.StatusBadRequest, `URL is required`, ErrBackend, "status 400"},
		{"html body", http.StatusOK, `<html>oops</html>`, ErrMalformedResponse, "not JSON"},
		{"null probability", http.StatusOK, `{"final_probability": null, "shap_explanations": []}`, ErrMalformedResponse, "final_probability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second).PredictURL(context.Background(), "http://a.com")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err, tt.message)
			}
		})
	}
}

func TestPredictUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	_, err := NewClient(endpoint, time.Second).PredictFeatures(context.Background(), features.Vector{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestPredictContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"final_probability": 0.5}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, time.Second).PredictURL(ctx, "http://a.com")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want it to wrap context.DeadlineExceeded", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0)
	if c.Endpoint() != DefaultEndpoint {
		t.Errorf("Endpoint = %q", c.Endpoint())
	}
	if c.http.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", c.http.Timeout)
	}
}
