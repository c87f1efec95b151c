package urlnorm

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name     string
		input    string
		wantURL  string
		wantOrig string
	}{
		{"scheme added", "example.com", "http://example.com", "example.com"},
		{"https untouched", "https://good.com", "https://good.com", "https://good.com"},
		{"search query stripped", "https://www.google.com/search?q=x", "https://www.google.com/search", "https://www.google.com/search?q=x"},
		{"bare search engine gets root path", "bing.com?q=phish", "http://bing.com/", "bing.com?q=phish"},
		{"fragment stripped on search engine", "https://duckduckgo.com/?q=a#frag", "https://duckduckgo.com/", "https://duckduckgo.com/?q=a#frag"},
		{"surrounding whitespace trimmed", "  https://good.com/login  ", "https://good.com/login", "https://good.com/login"},
		{"ipv4 host with port", "http://10.0.0.1:8080/admin", "http://10.0.0.1:8080/admin", "http://10.0.0.1:8080/admin"},
		{"query kept on normal host", "https://shop.example.org/cart?id=42&x=y", "https://shop.example.org/cart?id=42&x=y", "https://shop.example.org/cart?id=42&x=y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if got.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tt.wantURL)
			}
			if got.Original != tt.wantOrig {
				t.Errorf("Original = %q, want %q", got.Original, tt.wantOrig)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	n := New(nil)

	tests := []struct {
		input string
		want  error
	}{
		{"", ErrEmptyInput},
		{"   \t ", ErrEmptyInput},
		{"not a url", ErrInvalidURL},
		{"http://a b.com", ErrInvalidURL},
		{"localhost", ErrInvalidURL},
		{"ftp://files.example.com", ErrInvalidURL},
		{"http://example.c", ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := n.Normalize(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Normalize(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestNormalizeCustomSearchEngines(t *testing.T) {
	n := New([]string{"search.example.net"})

	got, err := n.Normalize("https://search.example.net/results?q=bank")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != "https://search.example.net/results" {
		t.Errorf("URL = %q", got.URL)
	}

	// The default list no longer applies.
	got, err = n.Normalize("https://www.google.com/search?q=x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != "https://www.google.com/search?q=x" {
		t.Errorf("URL = %q, want query kept", got.URL)
	}
}

func TestNormalizeTab(t *testing.T) {
	n := New(nil)

	for _, addr := range []string{"", "chrome://extensions", "about:blank"} {
		if _, err := n.NormalizeTab(addr); !errors.Is(err, ErrInternalURL) {
			t.Errorf("NormalizeTab(%q) error = %v, want ErrInternalURL", addr, err)
		}
	}

	got, err := n.NormalizeTab("https://www.google.com/search?q=login+paypal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != "https://www.google.com/search" {
		t.Errorf("URL = %q", got.URL)
	}
	if got.Original != "https://www.google.com/search?q=login+paypal" {
		t.Errorf("Original = %q", got.Original)
	}

	// Tab addresses skip the strict pattern.
	got, err = n.NormalizeTab("http://localhost:3000/dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != "http://localhost:3000/dev" {
		t.Errorf("URL = %q", got.URL)
	}
}
