package llm

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// NoAnswer is the fixed reply when the extractive fallback finds nothing
// usable in the provided context.
const NoAnswer = "Z poskytnutého kontextu nedokážu odpovědět."

// promptSectionRe locates the context block and the question inside a RAG
// user prompt. Prompts without the section labels are treated as pure context.
var promptSectionRe = regexp.MustCompile(`(?is)(?:CONTEXT|KONTEKST):\s*(.*?)\n\n(?:QUESTION|DOTAZ):\s*(.*)$`)

// wordRe matches word-like tokens for overlap scoring.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_\-']+`)

// chunkTagRe matches leaked chunk-reference tags like "[doc.pdf#chunk=3]".
var chunkTagRe = regexp.MustCompile(`\[[^\]\n]*#chunk=\d+\]`)

// multiSpaceRe matches runs of two or more whitespace characters.
var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// extractiveChat is the offline substitute for a chat completion: it pulls
// the context and question out of the user prompt and answers extractively.
func extractiveChat(user string) string {
	contextBlock, question := user, ""
	if m := promptSectionRe.FindStringSubmatch(user); m != nil {
		contextBlock, question = m[1], m[2]
	}
	if answer := extractiveAnswer(contextBlock, question); answer != "" {
		return answer
	}
	return NoAnswer
}

// extractiveAnswer splits the context into sentence-like units, scores each
// by token overlap with the question, and joins the top three. When nothing
// scores, the first two units stand in so the caller still gets something
// grounded in the context.
func extractiveAnswer(contextBlock, question string) string {
	parts := splitUnits(contextBlock)
	qTokens := tokenSet(question)

	type scored struct {
		score int
		text  string
	}
	var ranked []scored
	for _, p := range parts {
		score := overlap(qTokens, tokenSet(p))
		if score > 0 {
			ranked = append(ranked, scored{score: score, text: strings.TrimSpace(p)})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var top []string
	if len(ranked) == 0 {
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				top = append(top, s)
			}
			if len(top) == 2 {
				break
			}
		}
	} else {
		for i, r := range ranked {
			if i == 3 {
				break
			}
			top = append(top, r.text)
		}
	}

	answer := strings.TrimSpace(strings.Join(top, " "))
	answer = chunkTagRe.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(multiSpaceRe.ReplaceAllString(answer, " "))
	return answer
}

// splitUnits cuts text into sentence-like units: after ./?/! followed by
// whitespace, and on newline runs.
func splitUnits(text string) []string {
	var parts []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			parts = append(parts, cur.String())
			cur.Reset()
			for i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			continue
		}
		cur.WriteRune(r)
		if (r == '.' || r == '?' || r == '!') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			parts = append(parts, cur.String())
			cur.Reset()
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) && runes[i+1] != '\n' {
				i++
			}
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// tokenSet returns the set of lowercased word tokens in s.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[tok] = struct{}{}
	}
	return set
}

// overlap counts tokens present in both sets.
func overlap(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
