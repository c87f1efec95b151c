// Package presenter maps prediction probabilities to user-facing risk tiers
// and tracks the popup's per-surface display state.
package presenter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/phishlens/phishlens/internal/predict"
)

// Tier is a discrete risk category.
type Tier string

const (
	TierSafe        Tier = "safe"
	TierVeryLowRisk Tier = "very-low-risk"
	TierModerate    Tier = "moderate"
	TierWarning     Tier = "warning"
	TierDanger      Tier = "danger"
)

// Colors used by the popup.
const (
	ColorDefaultBorder = "#ddd"
	ColorDefaultText   = "#333"
	ColorNotice        = "red"
)

// Assessment is the presentable outcome of one prediction.
type Assessment struct {
	OriginalURL string              `json:"original_url"`
	CheckedURL  string              `json:"checked_url"`
	Probability float64             `json:"probability"`
	Percent     int                 `json:"percent"`
	Tier        Tier                `json:"tier"`
	Color       string              `json:"color"`
	Message     string              `json:"message"`
	Advice      string              `json:"advice"`
	Explanation predict.Explanation `json:"shap_explanations"`
}

// Text joins the message and advice for plain-text output.
func (a Assessment) Text() string {
	return a.Message + " " + a.Advice
}

// Truncate keeps two decimals of p without rounding. It cuts the shortest
// decimal form of p, so 0.29 stays 0.29 and 0.199999999995 becomes 0.19.
func Truncate(p float64) float64 {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s) > dot+3 {
		s = s[:dot+3]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return p
	}
	return v
}

// Classify returns the tier and color for p after truncation.
func Classify(p float64) (Tier, string) {
	p = Truncate(p)
	switch {
	case p < 0.2:
		return TierSafe, "#1E8449"
	case p < 0.3:
		return TierVeryLowRisk, "#2E7D32"
	case p < 0.5:
		// #558B2F belongs to the band below 0.3 and is never reached here.
		switch {
		case p < 0.3:
			return TierModerate, "#558B2F"
		case p < 0.4:
			return TierModerate, "#9E9D24"
		default:
			return TierModerate, "#F9A825"
		}
	case p < 0.8:
		switch {
		case p < 0.6:
			return TierWarning, "#F57F17"
		case p < 0.7:
			return TierWarning, "#EF6C00"
		default:
			return TierWarning, "#D84315"
		}
	default:
		if p < 0.9 {
			return TierDanger, "#C62828"
		}
		return TierDanger, "#B71C1C"
	}
}

// Assess builds the Assessment for a prediction. Messages embed originalURL,
// the address as the user saw it.
func Assess(result *predict.PredictionResult, originalURL, checkedURL string) Assessment {
	p := Truncate(result.FinalProbability)
	tier, color := Classify(p)
	percent := int(math.Round(p * 100))

	a := Assessment{
		OriginalURL: originalURL,
		CheckedURL:  checkedURL,
		Probability: p,
		Percent:     percent,
		Tier:        tier,
		Color:       color,
		Explanation: result.Explanations,
	}

	switch tier {
	case TierSafe:
		a.Message = fmt.Sprintf("%s is assessed as safe to access.", originalURL)
		a.Advice = "Enjoy browsing!"
	case TierVeryLowRisk:
		a.Message = fmt.Sprintf("%s is assessed as very low risk.", originalURL)
		a.Advice = "Likely safe to access."
	case TierModerate:
		a.Message = fmt.Sprintf("Caution: %s has a moderate risk with a risk probability of %d%%.", originalURL, percent)
		a.Advice = "Verify the source before proceeding."
	case TierWarning:
		a.Message = fmt.Sprintf("Warning: %s is assessed as unsafe with a risk probability of %d%%.", originalURL, percent)
		a.Advice = "Avoid sharing sensitive information."
	case TierDanger:
		a.Message = fmt.Sprintf("Danger: %s is identified as unsafe with a very high risk.", originalURL)
		a.Advice = "Avoid accessing this link or sharing any information."
	}
	return a
}
