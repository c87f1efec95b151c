// Package predict is the HTTP client for the remote phishing prediction
// service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/phishlens/phishlens/internal/features"
)

const (
	// DefaultEndpoint is where the prediction service listens by default.
	DefaultEndpoint = "http://127.0.0.1:5000/predict"
	// DefaultTimeout bounds a single round trip.
	DefaultTimeout = 15 * time.Second
	maxResponseLen = 1 << 20 // 1 MiB
)

var (
	// ErrUnavailable wraps transport failures: refused connections,
	// timeouts, cancelled contexts, truncated bodies.
	ErrUnavailable = errors.New("prediction service unavailable")
	// ErrBackend wraps non-2xx responses.
	ErrBackend = errors.New("prediction service error")
	// ErrMalformedResponse wraps bodies that are not the expected JSON.
	ErrMalformedResponse = errors.New("malformed prediction response")
)

// BackendError carries the status and error text of a failed response.
type BackendError struct {
	Status  int
	Message string
	Details string
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("prediction service returned status %d", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *BackendError) Unwrap() error { return ErrBackend }

// Client posts prediction requests to a single fixed endpoint. Requests are
// never retried.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for endpoint. Zero values select
// DefaultEndpoint and DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// PredictURL submits {"url": target} and returns the probability and
// explanation.
func (c *Client) PredictURL(ctx context.Context, target string) (*PredictionResult, error) {
	data, err := c.post(ctx, map[string]string{"url": target})
	if err != nil {
		return nil, err
	}

	prob := gjson.GetBytes(data, "final_probability")
	if prob.Type != gjson.Number {
		return nil, fmt.Errorf("%w: final_probability missing or not a number", ErrMalformedResponse)
	}

	var result PredictionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &result, nil
}

// PredictFeatures submits {"features": [...]} and returns the verdict.
func (c *Client) PredictFeatures(ctx context.Context, vec features.Vector) (*FeatureVerdict, error) {
	data, err := c.post(ctx, map[string]features.Vector{"features": vec})
	if err != nil {
		return nil, err
	}

	pred := gjson.GetBytes(data, "random_forest_prediction")
	if pred.Type != gjson.Number {
		return nil, fmt.Errorf("%w: random_forest_prediction missing or not a number", ErrMalformedResponse)
	}
	return &FeatureVerdict{RandomForestPrediction: int(pred.Int())}, nil
}

// post sends payload as JSON and returns the raw body of a successful,
// well-formed response.
func (c *Client) post(ctx context.Context, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("predict: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("predict: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		be := &BackendError{Status: resp.StatusCode}
		if gjson.ValidBytes(data) {
			be.Message = gjson.GetBytes(data, "error").String()
			be.Details = gjson.GetBytes(data, "details").String()
		}
		return nil, be
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}
	return data, nil
}
