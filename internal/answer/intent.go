// Package answer implements the query intent router and answer composer.
// An incoming query is classified into exactly one intent by ordered
// heuristic predicates, then dispatched to the matching strategy: local
// calculator, clock, web search, contact lookup, retrieval-augmented
// answer, or a plain chat completion.
package answer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Intent is the classified purpose of a user query.
type Intent int

const (
	// IntentGeneral routes through retrieval first, then plain chat.
	IntentGeneral Intent = iota
	// IntentTime answers with the current server time.
	IntentTime
	// IntentCalc evaluates an arithmetic expression found in the query.
	IntentCalc
	// IntentContact scans stored chunks for email/phone contacts.
	IntentContact
	// IntentWeb answers from external web search results.
	IntentWeb
)

// String returns the intent label used in logs and metrics.
func (i Intent) String() string {
	switch i {
	case IntentTime:
		return "time"
	case IntentCalc:
		return "calc"
	case IntentContact:
		return "contact"
	case IntentWeb:
		return "web"
	default:
		return "general"
	}
}

// Trigger phrase sets, matched as substrings of the accent-stripped,
// lowercased query. The detection language mix (Czech + English) follows
// the deployments this service fronts.
var (
	timeTriggers    = []string{"kolik je hodin", "cas", "time is it", "datum", "date today"}
	contactTriggers = []string{"email", "e-mail", "mail", "telefon", "phone", "contact", "kontakt"}
	webTriggers     = []string{"vyhledej", "najdi na webu", "google", "search the web", "what is", "who is"}
)

// accentStripper removes combining marks after NFKD decomposition,
// so "čas" and "cas" normalize identically.
var accentStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Detect classifies a raw query into exactly one intent. Rules are evaluated
// top to bottom; the first match wins. Pure function: no state, no I/O.
//
// The "po" exclusion on the time rule suppresses time classification for any
// query containing that substring (e.g. "pozdě", "po obědě"). It is preserved
// as literal behavior pending product review.
func Detect(query string) Intent {
	ql := strings.TrimSpace(stripAccents(strings.ToLower(query)))

	if containsAny(ql, timeTriggers) && !strings.Contains(ql, "po") {
		return IntentTime
	}

	if strings.ContainsFunc(ql, unicode.IsDigit) && strings.ContainsAny(ql, "+-*/^%") {
		return IntentCalc
	}

	if containsAny(ql, contactTriggers) {
		return IntentContact
	}

	if containsAny(ql, webTriggers) {
		return IntentWeb
	}

	return IntentGeneral
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// stripAccents removes diacritics via NFKD decomposition.
func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}
