package chat

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyExpression = errors.New("empty expression")
	ErrDivisionByZero  = errors.New("division by zero")
)

// EvalExpression evaluates an arithmetic cost expression such as "400*4" or
// "(12,5+3)/2". Supported: + - * / parentheses, unary minus, dot or comma decimals.
func EvalExpression(input string) (decimal.Decimal, error) {
	p := &exprParser{src: strings.TrimSpace(input)}
	if p.src == "" {
		return decimal.Zero, ErrEmptyExpression
	}
	v, err := p.parseSum()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return decimal.Zero, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// sum := product (('+'|'-') product)*
func (p *exprParser) parseSum() (decimal.Decimal, error) {
	left, err := p.parseProduct()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Add(right)
		case '-':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

// product := unary (('*'|'/') unary)*
func (p *exprParser) parseProduct() (decimal.Decimal, error) {
	left, err := p.parseUnary()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Mul(right)
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return decimal.Zero, err
			}
			if right.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			left = left.DivRound(right, 8)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (decimal.Decimal, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseUnary()
		return v.Neg(), err
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (decimal.Decimal, error) {
	c := p.peek()
	if c == '(' {
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return decimal.Zero, err
		}
		if p.peek() != ')' {
			return decimal.Zero, errors.New("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		if c == 0 {
			return decimal.Zero, errors.New("unexpected end of expression")
		}
		return decimal.Zero, fmt.Errorf("unexpected %q at position %d", c, start)
	}
	lit := strings.ReplaceAll(p.src[start:p.pos], ",", ".")
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", lit)
	}
	return v, nil
}
