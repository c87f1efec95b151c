package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/phishlens/phishlens/internal/predict"
)

// QueryParam carries the JSON-encoded explanation in analytics URLs.
const QueryParam = "data"

// ErrMissingData is returned when an analytics URL has no data parameter.
var ErrMissingData = errors.New("analytics: missing data parameter")

// EncodeQuery serializes e into a query string of the form "data=<json>".
func EncodeQuery(e predict.Explanation) (string, error) {
	if e.TopSafe == nil {
		e.TopSafe = []predict.Contribution{}
	}
	if e.TopUnsafe == nil {
		e.TopUnsafe = []predict.Contribution{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("analytics: encode explanation: %w", err)
	}
	return url.Values{QueryParam: {string(data)}}.Encode(), nil
}

// LaunchURL returns base with the encoded explanation attached, e.g.
// "/analytics?data=...".
func LaunchURL(base string, e predict.Explanation) (string, error) {
	q, err := EncodeQuery(e)
	if err != nil {
		return "", err
	}
	return base + "?" + q, nil
}

// DecodeQuery reads the explanation from query values.
func DecodeQuery(values url.Values) (predict.Explanation, error) {
	raw := values.Get(QueryParam)
	if raw == "" {
		return predict.Explanation{}, ErrMissingData
	}
	var e predict.Explanation
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return predict.Explanation{}, fmt.Errorf("analytics: decode data: %w", err)
	}
	return e, nil
}
