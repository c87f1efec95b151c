// Package features derives the fixed-size numeric vector used by the
// message-driven check path.
package features

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size is the number of slots in a Vector.
const Size = 9

// Slot indexes into a Vector.
const (
	HaveIP = iota
	HaveAt
	URLLength
	PathDepth
	PrefixSuffix
	// The remaining slots cannot be computed client-side and are always zero.
	WebTraffic
	IFrame
	MouseOver
	WebForwards
)

// Names labels each slot in order.
var Names = [Size]string{
	"have_ip",
	"have_at",
	"url_length",
	"path_depth",
	"prefix_suffix",
	"web_traffic",
	"iframe",
	"mouse_over",
	"web_forwards",
}

var ipv4Pattern = regexp.MustCompile(`(\d{1,3}\.){3}\d{1,3}`)

// Vector is an ordered feature vector. It marshals as a JSON array.
type Vector [Size]float64

// Extract computes the feature vector for an absolute URL. The IP and @
// checks look at the whole string, so an address hidden in the userinfo
// still counts.
func Extract(rawURL string) (Vector, error) {
	var v Vector

	u, err := url.Parse(rawURL)
	if err != nil {
		return v, fmt.Errorf("features: parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return v, fmt.Errorf("features: %q is not an absolute URL", rawURL)
	}

	v[HaveIP] = flag(ipv4Pattern.MatchString(rawURL))
	v[HaveAt] = flag(strings.Contains(rawURL, "@"))
	v[URLLength] = float64(utf8.RuneCountInString(rawURL))
	v[PathDepth] = float64(pathDepth(u.EscapedPath()))
	v[PrefixSuffix] = flag(strings.Contains(u.Hostname(), "-"))
	return v, nil
}

func pathDepth(path string) int {
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
