package answer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// CannotCompute is the fixed reply for expressions that fail extraction,
// validation, or evaluation. Returned as a normal answer, never an error.
const CannotCompute = "Tohle nedokážu spočítat."

// resultPrefix precedes the numeric value in a successful calculator answer.
const resultPrefix = "Výsledek: "

// mathTokenRe matches contiguous runs of calculator-friendly characters
// inside a natural-language sentence.
var mathTokenRe = regexp.MustCompile(`[ \t0-9.,+\-*/()^%]+`)

// calcWhitelistRe validates a normalized expression before evaluation.
// Anything outside this set (letters, semicolons, ...) is rejected outright.
var calcWhitelistRe = regexp.MustCompile(`^[ \t0-9.+\-*/()^%]+$`)

// ExtractMathExpression pulls a contiguous arithmetic expression out of a
// natural sentence: the longest run of allowed characters that contains at
// least one digit, ties broken by first occurrence. Decimal commas are
// normalized to points. Returns "" when the sentence holds no candidate.
//
//	ExtractMathExpression("kolik je 2+2?") == "2+2"
func ExtractMathExpression(query string) string {
	var best string
	for _, cand := range mathTokenRe.FindAllString(query, -1) {
		if !strings.ContainsFunc(cand, unicode.IsDigit) {
			continue
		}
		cand = strings.TrimSpace(cand)
		if len(cand) > len(best) {
			best = cand
		}
	}
	if best == "" {
		return ""
	}
	return strings.ReplaceAll(best, ",", ".")
}

// CalcAnswer extracts and evaluates the arithmetic expression in the query.
// The normalized expression is validated against a character whitelist and
// evaluated by the sandboxed numeric evaluator — numbers and operators only,
// no names, no calls. Any failure yields the fixed CannotCompute string.
func CalcAnswer(query string) string {
	expr := ExtractMathExpression(query)
	if expr == "" {
		expr = query
	}
	if !calcWhitelistRe.MatchString(expr) {
		return CannotCompute
	}

	val, err := evalExpression(expr)
	if err != nil {
		return CannotCompute
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return CannotCompute
	}

	return resultPrefix + formatNumber(val)
}

// formatNumber renders integral results without a decimal part
// ("Výsledek: 4", not "Výsledek: 4.0") and everything else with the
// shortest exact representation.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
