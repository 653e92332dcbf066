package answer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// evalExpression evaluates a purely numeric arithmetic expression.
// Supported: decimal numbers, + - * / % ^ (exponentiation), unary minus and
// plus, parentheses. There are deliberately no identifiers, no function
// calls, and no side effects — the evaluator IS the sandbox, so query text
// can never execute anything.
//
// Precedence (loosest to tightest): additive, multiplicative, unary sign,
// exponentiation (right-associative, so -2^2 == -4 and 2^-1 == 0.5).
func evalExpression(expr string) (float64, error) {
	p := &exprParser{input: []rune(expr)}
	v, err := p.parseAdditive()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("eval: unexpected character %q at %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

// exprParser is a small recursive-descent parser over a rune slice.
type exprParser struct {
	input []rune
	pos   int
}

// parseAdditive handles '+' and '-'.
func (p *exprParser) parseAdditive() (float64, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.accept('+'):
			right, err := p.parseMultiplicative()
			if err != nil {
				return 0, err
			}
			left += right
		case p.accept('-'):
			right, err := p.parseMultiplicative()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseMultiplicative handles '*', '/' and '%'.
func (p *exprParser) parseMultiplicative() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.accept('*'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.accept('/'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("eval: division by zero")
			}
			left /= right
		case p.accept('%'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("eval: modulo by zero")
			}
			left = floorMod(left, right)
		default:
			return left, nil
		}
	}
}

// parseUnary handles prefix '-' and '+'.
func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.accept('-') {
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	if p.accept('+') {
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower handles '^', binding tighter than unary sign on its left and
// allowing a signed exponent on its right.
func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if !p.accept('^') {
		return base, nil
	}
	exp, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

// parsePrimary handles numbers and parenthesized subexpressions.
func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.accept('(') {
		v, err := p.parseAdditive()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.accept(')') {
			return 0, fmt.Errorf("eval: missing closing parenthesis at %d", p.pos)
		}
		return v, nil
	}
	return p.parseNumber()
}

// parseNumber scans a decimal literal.
func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	seenDot := false
	for p.pos < len(p.input) {
		r := p.input[p.pos]
		if unicode.IsDigit(r) {
			p.pos++
			continue
		}
		if r == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		if p.pos < len(p.input) {
			return 0, fmt.Errorf("eval: expected number at %d, found %q", p.pos, p.input[p.pos])
		}
		return 0, fmt.Errorf("eval: unexpected end of expression")
	}

	lit := string(p.input[start:p.pos])
	if strings.Trim(lit, ".") == "" {
		return 0, fmt.Errorf("eval: invalid number %q", lit)
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("eval: invalid number %q: %w", lit, err)
	}
	return v, nil
}

// floorMod is floored modulo: the result takes the sign of the divisor,
// so -7 % 3 == 2 and 7 % -3 == -2. math.Mod truncates instead, which
// would flip the sign for mixed-sign operands.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// accept consumes r when it is the next rune.
func (p *exprParser) accept(r rune) bool {
	if p.pos < len(p.input) && p.input[p.pos] == r {
		p.pos++
		return true
	}
	return false
}

// skipSpaces advances past spaces and tabs.
func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}
