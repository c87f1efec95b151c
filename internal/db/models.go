package db

import (
	"encoding/json"
	"time"
)

// HistoryEntry is one persisted assessment.
type HistoryEntry struct {
	ID          int64           `json:"id"`
	Surface     string          `json:"surface"`
	OriginalURL string          `json:"original_url"`
	CheckedURL  string          `json:"checked_url"`
	Probability float64         `json:"probability"`
	Tier        string          `json:"tier"`
	Color       string          `json:"color"`
	Explanation json.RawMessage `json:"shap_explanations,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
