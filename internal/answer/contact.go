package answer

import (
	"context"
	"regexp"
	"strings"
)

// contactScanTopK is the wide retrieval width used to scan stored chunks
// for structured contacts.
const contactScanTopK = 200

// emailRe matches standard local@domain.tld addresses.
var emailRe = regexp.MustCompile(`(?i)[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// phoneRe loosely matches runs of at least nine digit groups, optionally
// prefixed with a country code.
var phoneRe = regexp.MustCompile(`(?:(?:\+?\s?(?:420|421)|\+?\s?\d{1,3})\s*)?(?:\d\s*){9,}`)

// contactAnswer performs a wide retrieval and scans the hit texts for email
// and phone patterns. When nothing structured is found it reports ok=false
// and the caller falls through to the standard retrieval-augmented path.
func (r *Router) contactAnswer(ctx context.Context, qvec []float32) (ChatResponse, bool) {
	hits := r.store.Search(ctx, qvec, contactScanTopK)

	var emails, phones []string
	seenContact := make(map[string]bool)
	citations := []Citation{}
	seenSource := make(map[string]bool)

	for _, h := range hits {
		text := hitText(h.Meta)
		if text == "" {
			continue
		}

		found := false
		for _, e := range emailRe.FindAllString(text, -1) {
			key := strings.ToLower(e)
			if !seenContact[key] {
				seenContact[key] = true
				emails = append(emails, e)
			}
			found = true
		}
		for _, p := range phoneRe.FindAllString(text, -1) {
			normalized := strings.Join(strings.Fields(p), " ")
			if !seenContact[normalized] {
				seenContact[normalized] = true
				phones = append(phones, normalized)
			}
			found = true
		}

		if !found {
			continue
		}
		if fname := hitSourceName(h.Meta); fname != "" && !seenSource[fname] {
			seenSource[fname] = true
			score := float64(h.Score)
			citations = append(citations, Citation{Source: fname, Score: &score})
		}
	}

	if len(emails) == 0 && len(phones) == 0 {
		return ChatResponse{}, false
	}

	var lines []string
	for _, e := range emails {
		lines = append(lines, "E-mail: "+e)
	}
	for _, p := range phones {
		lines = append(lines, "Telefon: "+p)
	}

	return ChatResponse{
		Answer:    "Našel jsem tyto kontakty:\n" + strings.Join(lines, "\n"),
		Citations: citations,
	}, true
}
