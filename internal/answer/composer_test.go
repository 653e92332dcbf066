package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHitText verifies the ordered key probe and blank-value skipping.
func TestHitText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta map[string]any
		want string
	}{
		{"text key first", map[string]any{"text": "a", "content": "b"}, "a"},
		{"content fallback", map[string]any{"content": "b"}, "b"},
		{"page_content fallback", map[string]any{"page_content": "c"}, "c"},
		{"body fallback", map[string]any{"body": "d"}, "d"},
		{"blank skipped", map[string]any{"text": "  ", "content": "b"}, "b"},
		{"non-string skipped", map[string]any{"text": 42, "content": "b"}, "b"},
		{"nothing usable", map[string]any{"other": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, hitText(tt.meta))
		})
	}
}

// TestHitSourceName verifies source key order and path component reduction.
func TestHitSourceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta map[string]any
		want string
	}{
		{"unix path", map[string]any{"source": "data/uploads/manual.pdf"}, "manual.pdf"},
		{"windows path", map[string]any{"source": `C:\docs\manual.pdf`}, "manual.pdf"},
		{"bare name", map[string]any{"source": "manual.pdf"}, "manual.pdf"},
		{"file key fallback", map[string]any{"file": "notes.txt"}, "notes.txt"},
		{"path key fallback", map[string]any{"path": "/srv/a/b.md"}, "b.md"},
		{"no source", map[string]any{"text": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, hitSourceName(tt.meta))
		})
	}
}

// TestSanitizeAnswer verifies chunk tag stripping and whitespace collapse.
func TestSanitizeAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"chunk tag stripped", "Viz [manual.pdf#chunk=3] strana 4.", "Viz strana 4."},
		{"multiple tags", "[a.txt#chunk=1] text [b.txt#chunk=2]", "text"},
		{"whitespace collapsed", "a  b\n\nc\t\td", "a b c d"},
		{"trimmed", "  odpověď  ", "odpověď"},
		{"plain text untouched", "běžná odpověď", "běžná odpověď"},
		{"bracket without tag kept", "pole [0] zůstává", "pole [0] zůstává"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizeAnswer(tt.in))
		})
	}
}

// TestBuildRAGPrompt verifies the fixed section labels and context joining.
func TestBuildRAGPrompt(t *testing.T) {
	t.Parallel()

	got := buildRAGPrompt([]string{"první chunk", "druhý chunk"}, "otázka?")
	assert.Equal(t, "CONTEXT:\nprvní chunk\n\ndruhý chunk\n\nQUESTION: otázka?\n\nANSWER:", got)
}
