package tokens_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chative-sms/relay/internal/relay/tokens"
)

func TestCharCounter(t *testing.T) {
	tests := []struct {
		name string
		per  int
		text string
		want int
	}{
		{"empty", 4, "", 0},
		{"single char", 4, "a", 1},
		{"exact multiple", 4, "abcdefgh", 2},
		{"rounds up", 4, "abcdefghi", 3},
		{"default ratio", 0, "abcde", 2},
		{"runes not bytes", 2, "สวัสดี", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokens.CharCounter{CharsPerToken: tt.per}.Count(tt.text))
		})
	}
}

func TestCounterFunc(t *testing.T) {
	c := tokens.CounterFunc(func(s string) int { return len(s) * 10 })
	assert.Equal(t, 30, c.Count("abc"))
}
