package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spendlog/internal/core"
)

// DateLayout is the day format accepted by commands.
const DateLayout = "02.01.2006"

var ErrMalformedExpense = errors.New("expected '<name> <cost expression>'")

// ParseDate reads a DD.MM.YYYY day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use DD.MM.YYYY", s)
	}
	return t, nil
}

// ParseExpense splits "<name with spaces> <expression>" at the last space.
func ParseExpense(input string) (string, float64, error) {
	input = strings.TrimSpace(input)
	i := strings.LastIndexByte(input, ' ')
	if i <= 0 {
		return "", 0, ErrMalformedExpense
	}
	name := strings.TrimSpace(input[:i])
	if name == "" {
		return "", 0, ErrMalformedExpense
	}
	v, err := EvalExpression(input[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("cost %q: %w", input[i+1:], err)
	}
	cost := v.InexactFloat64()
	if err := core.CheckCost(cost); err != nil {
		return "", 0, fmt.Errorf("cost %q: %w", input[i+1:], err)
	}
	return name, cost, nil
}

// splitCommand separates "/cmd rest". A "/cmd@botname" suffix is dropped.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	cmd, rest, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}
