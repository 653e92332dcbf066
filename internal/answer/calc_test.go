package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractMathExpression covers extraction of the arithmetic run from
// natural-language sentences.
func TestExtractMathExpression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"czech question", "kolik je 2+2?", "2+2"},
		{"longest run wins", "mám 3 jablka, kolik je 10*4+2", "10*4+2"},
		{"decimal comma normalized", "spočítej 7,5+1", "7.5+1"},
		{"parentheses kept", "výsledek (2+3)*4 prosím", "(2+3)*4"},
		{"no digits", "kolik je plus minus", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractMathExpression(tt.query))
		})
	}
}

// TestCalcAnswer covers evaluation, formatting, and the fixed failure reply.
func TestCalcAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"simple sum", "kolik je 2+2?", "Výsledek: 4"},
		{"operator precedence", "2+2*3", "Výsledek: 10"},
		{"parentheses", "(2+2)*3", "Výsledek: 12"},
		{"division", "10/4", "Výsledek: 2.5"},
		{"modulo", "10%3", "Výsledek: 1"},
		{"power", "2^10", "Výsledek: 1024"},
		{"negative base power", "-2^2", "Výsledek: -4"},
		{"negative exponent", "2^-1", "Výsledek: 0.5"},
		{"decimal comma", "7,5+1", "Výsledek: 8.5"},
		{"division by zero", "1/0", CannotCompute},
		{"letters rejected", "abc", CannotCompute},
		{"dangling operator", "2+", CannotCompute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalcAnswer(tt.query))
		})
	}
}

// TestCalcAnswer_IntegralFormatting verifies integral results render with no
// decimal part.
func TestCalcAnswer_IntegralFormatting(t *testing.T) {
	t.Parallel()

	got := CalcAnswer("2+2")
	assert.Equal(t, "Výsledek: 4", got)
	assert.NotContains(t, got, "4.0")
}

// TestEvalExpression exercises the sandboxed evaluator directly.
func TestEvalExpression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want float64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"2^3^2", 512}, // right-associative
		{"-(2+3)", -5},
		{"+4", 4},
		{"10 % 4", 2},
		// Floored modulo: the result follows the divisor's sign.
		{"-7 % 3", 2},
		{"7 % -3", -2},
		{"-7 % -3", -1},
		{"1.5*2", 3},
	}

	for _, tt := range tests {
		v, err := evalExpression(tt.expr)
		require.NoError(t, err, "expr: %q", tt.expr)
		assert.InDelta(t, tt.want, v, 1e-9, "expr: %q", tt.expr)
	}
}

// TestEvalExpression_Errors verifies malformed expressions fail instead of
// producing a value.
func TestEvalExpression_Errors(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "()", "1/0", "5%0", "(1+2", "1..2", "."} {
		_, err := evalExpression(expr)
		assert.Error(t, err, "expr: %q", expr)
	}
}
