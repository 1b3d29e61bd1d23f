// Package tokens estimates token usage for prompt budgeting.
package tokens

import "unicode/utf8"

// DefaultCharsPerToken matches the common ~4 characters per token heuristic.
const DefaultCharsPerToken = 4

// Counter estimates the token cost of a piece of text.
type Counter interface {
	Count(text string) int
}

// CharCounter estimates tokens from the rune length of the text. It is
// deterministic and never fails, which is all the budgeting logic needs.
type CharCounter struct {
	CharsPerToken int
}

// Count implements Counter, rounding up so any non-empty text costs at least one token.
func (c CharCounter) Count(text string) int {
	per := c.CharsPerToken
	if per <= 0 {
		per = DefaultCharsPerToken
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + per - 1) / per
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) int

// Count implements Counter.
func (f CounterFunc) Count(text string) int {
	return f(text)
}
