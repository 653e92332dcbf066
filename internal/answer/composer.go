package answer

import (
	"regexp"
	"strings"
)

// Metadata keys probed, in order, when extracting the chunk text and the
// display source from a retrieval hit. The extra keys tolerate collections
// written by other ingestion tools.
var (
	textKeys   = []string{"text", "content", "page_content", "body"}
	sourceKeys = []string{"source", "file", "filename", "path"}
)

// chunkTagRe matches leaked chunk-reference tags like "[doc.pdf#chunk=3]"
// that models sometimes copy out of the context block.
var chunkTagRe = regexp.MustCompile(`\[[^\]\n]*#chunk=\d+\]`)

// multiSpaceRe matches runs of two or more whitespace characters.
var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// hitText returns the first non-blank string value among the known text
// keys, or "" when the hit carries no usable text.
func hitText(meta map[string]any) string {
	for _, k := range textKeys {
		if s, ok := meta[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// hitSourceName returns a display-friendly source label: the first non-blank
// string among the known source keys, reduced to its trailing path component
// (both '/' and '\' are treated as separators).
func hitSourceName(meta map[string]any) string {
	var raw string
	for _, k := range sourceKeys {
		if s, ok := meta[k].(string); ok && strings.TrimSpace(s) != "" {
			raw = s
			break
		}
	}
	if raw == "" {
		return ""
	}
	if i := strings.LastIndexAny(raw, `/\`); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

// sanitizeAnswer strips leaked chunk tags, collapses whitespace runs to a
// single space, and trims.
func sanitizeAnswer(s string) string {
	s = chunkTagRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// buildRAGPrompt embeds the retrieved context and the question with the
// fixed section labels the extractive fallback also understands.
func buildRAGPrompt(contextParts []string, query string) string {
	return "CONTEXT:\n" + strings.Join(contextParts, "\n\n") + "\n\nQUESTION: " + query + "\n\nANSWER:"
}
