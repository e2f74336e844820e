package qr

import (
	"strings"
	"testing"
)

func TestAbsolute(t *testing.T) {
	tests := []struct {
		name string
		base string
		link string
		want string
	}{
		{"Already absolute http", "https://example.com", "http://other.com/x", "http://other.com/x"},
		{"Already absolute https", "https://example.com", "https://other.com/x", "https://other.com/x"},
		{"Relative path", "https://example.com", "s/abc123xy", "https://example.com/s/abc123xy"},
		{"Leading slash", "https://example.com", "/s/abc123xy", "https://example.com/s/abc123xy"},
		{"Trailing slash on base", "https://example.com/", "s/abc123xy", "https://example.com/s/abc123xy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Absolute(tt.base, tt.link); got != tt.want {
				t.Errorf("Absolute(%q, %q) = %q, want %q", tt.base, tt.link, got, tt.want)
			}
		})
	}
}

func TestDataURL(t *testing.T) {
	got := DataURL("https://example.com/s/abc123xy")
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("DataURL() = %q, want data:image/png;base64 prefix", got[:min(len(got), 40)])
	}
}

func TestDataURLDeterministic(t *testing.T) {
	a := DataURL("https://example.com/s/abc123xy")
	b := DataURL("https://example.com/s/abc123xy")
	if a != b {
		t.Error("DataURL() not deterministic for identical input")
	}
}

func TestDataURLMalformedInput(t *testing.T) {
	// Beyond QR capacity; the deriver must return an empty artifact, not fail
	huge := strings.Repeat("x", 8000)
	if got := DataURL(huge); got != "" {
		t.Errorf("DataURL(oversized) = %d bytes, want empty", len(got))
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
