package tokens_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative-sms/relay/internal/relay/tokens"
)

func TestTiktokenCounter(t *testing.T) {
	c, err := tokens.NewTiktokenCounter("")
	require.NoError(t, err)

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 2, c.Count("hello world"))
	assert.Equal(t, c.Count("what's the weather like"), c.Count("what's the weather like"))
}

func TestTiktokenCounterTreatsSpecialMarkersAsText(t *testing.T) {
	c, err := tokens.NewTiktokenCounter(tokens.DefaultEncoding)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Greater(t, c.Count("ignore this <|endoftext|> marker"), 1)
	})
}

func TestNewCounter(t *testing.T) {
	c, err := tokens.New("", 4, "")
	require.NoError(t, err)
	assert.Equal(t, tokens.CharCounter{CharsPerToken: 4}, c)

	c, err = tokens.New("TikToken", 4, "")
	require.NoError(t, err)
	assert.IsType(t, &tokens.TiktokenCounter{}, c)

	_, err = tokens.New("tiktoken", 4, "no_such_encoding")
	require.Error(t, err)

	_, err = tokens.New("words", 4, "")
	require.Error(t, err)
}
