package chunking_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative-sms/relay/internal/relay/chunking"
)

func TestSplitShortText(t *testing.T) {
	assert.Equal(t, []string{"hello there"}, chunking.Split("  hello there \n", 960))
	assert.Nil(t, chunking.Split("   ", 10))
	assert.Equal(t, []string{"no limit"}, chunking.Split("no limit", 0))
}

func TestSplitPrefersWhitespace(t *testing.T) {
	got := chunking.Split("the quick brown fox jumps", 10)
	assert.Equal(t, []string{"the quick", "brown fox", "jumps"}, got)
}

func TestSplitHardSplitsLongWords(t *testing.T) {
	got := chunking.Split("abcdefghijklmnop", 5)
	assert.Equal(t, []string{"abcde", "fghij", "klmno", "p"}, got)
}

func TestSplitBoundsAndPreservesWords(t *testing.T) {
	text := strings.Repeat("ยินดีต้อนรับ hello world ", 200)
	chunks := chunking.Split(text, 960)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 960)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}
