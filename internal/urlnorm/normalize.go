// Package urlnorm validates and canonicalizes URLs before they are sent to
// the prediction backend.
package urlnorm

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrEmptyInput is returned when the input is blank after trimming.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidURL is returned when the candidate fails the strict URL pattern.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrInternalURL is returned for browser-internal tab addresses.
	ErrInternalURL = errors.New("browser internal URL")
)

// DefaultSearchEngines are hosts whose query strings are stripped so search
// terms are never submitted as the URL under test.
var DefaultSearchEngines = []string{
	"google.com",
	"bing.com",
	"yahoo.com",
	"duckduckgo.com",
	"baidu.com",
	"ask.com",
	"aol.com",
}

// strictURL accepts http(s) URLs with a dotted host or IPv4 address and an
// optional port, path, query and fragment.
var strictURL = regexp.MustCompile(`(?i)^(https?://)` +
	`((([a-z\d]([a-z\d-]*[a-z\d])*)\.)+[a-z]{2,}|((\d{1,3}\.){3}\d{1,3}))` +
	`(:\d+)?(/[-a-z\d%@_.~+&:]*)*` +
	`(\?[;&a-z\d%@_.,~+:=|!-]*)?` +
	`(#[-a-z\d%@_.,~+&:=|!]*)?$`)

var whitespace = regexp.MustCompile(`\s`)

// Target is a normalized URL ready for prediction.
type Target struct {
	// Original is the trimmed text as the user supplied it. Result messages
	// embed this value rather than URL.
	Original string
	// URL is what gets sent to the backend.
	URL string
}

// Normalizer applies scheme defaulting, search-engine stripping and
// validation. The zero value uses DefaultSearchEngines.
type Normalizer struct {
	SearchEngines []string
}

// New returns a Normalizer for the given search-engine hosts. An empty list
// falls back to DefaultSearchEngines.
func New(searchEngines []string) *Normalizer {
	return &Normalizer{SearchEngines: searchEngines}
}

// Normalize prepares text typed into the input box.
func (n *Normalizer) Normalize(raw string) (Target, error) {
	original := strings.TrimSpace(raw)
	if original == "" {
		return Target{}, ErrEmptyInput
	}

	candidate := original
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "http://" + candidate
	}
	if base, ok := n.stripSearchEngine(candidate); ok {
		candidate = base
	}

	if !Valid(candidate) {
		return Target{}, ErrInvalidURL
	}
	return Target{Original: original, URL: candidate}, nil
}

// NormalizeTab prepares the address of the active browser tab. Tab
// addresses come from the browser rather than the user, so only internal
// pages are rejected and the strict pattern is not applied.
func (n *Normalizer) NormalizeTab(raw string) (Target, error) {
	addr := strings.TrimSpace(raw)
	if IsInternal(addr) {
		return Target{}, ErrInternalURL
	}
	candidate := addr
	if base, ok := n.stripSearchEngine(addr); ok {
		candidate = base
	}
	return Target{Original: addr, URL: candidate}, nil
}

// IsInternal reports whether addr is empty or a browser-internal page.
func IsInternal(addr string) bool {
	return addr == "" || strings.HasPrefix(addr, "chrome://") || addr == "about:blank"
}

// Valid reports whether s matches the strict URL pattern and contains no
// whitespace.
func Valid(s string) bool {
	return strictURL.MatchString(s) && !whitespace.MatchString(s)
}

// stripSearchEngine returns origin+path when the host belongs to a known
// search engine. Unparseable input is left for validation to reject.
func (n *Normalizer) stripSearchEngine(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	engines := n.SearchEngines
	if len(engines) == 0 {
		engines = DefaultSearchEngines
	}
	host := strings.ToLower(u.Hostname())
	for _, engine := range engines {
		if strings.Contains(host, engine) {
			path := u.EscapedPath()
			if path == "" {
				path = "/"
			}
			return u.Scheme + "://" + u.Host + path, true
		}
	}
	return "", false
}
