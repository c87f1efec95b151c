package predict

import (
	"bytes"
	"encoding/json"
)

// Contribution is one feature's signed SHAP attribution. Positive values
// push towards phishing, negative values towards legitimate.
type Contribution struct {
	Feature   string  `json:"feature"`
	ShapValue float64 `json:"shap_value"`
}

// Explanation holds the backend's ranked contributions on each side.
type Explanation struct {
	TopSafe   []Contribution `json:"top_safe"`
	TopUnsafe []Contribution `json:"top_unsafe"`
}

// Empty reports whether neither side has any contribution.
func (e Explanation) Empty() bool {
	return len(e.TopSafe) == 0 && len(e.TopUnsafe) == 0
}

// UnmarshalJSON accepts the backend's empty-array fallback, sent when
// explanation generation fails, as an empty Explanation.
func (e *Explanation) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || (len(trimmed) > 0 && trimmed[0] == '[') {
		*e = Explanation{}
		return nil
	}
	type plain Explanation
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*e = Explanation(p)
	return nil
}

// PredictionResult is the response to a URL prediction.
type PredictionResult struct {
	FinalProbability float64     `json:"final_probability"`
	Explanations     Explanation `json:"shap_explanations"`
}

// FeatureVerdict is the response to a feature-vector prediction.
type FeatureVerdict struct {
	RandomForestPrediction int `json:"random_forest_prediction"`
}

// Phishing reports whether the backend flagged the URL.
func (v FeatureVerdict) Phishing() bool {
	return v.RandomForestPrediction == 1
}
