package prompts_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative-sms/relay/internal/core"
	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/prompts"
	logx "github.com/chative-sms/relay/pkg/logger"
)

func TestSystemPromptRender(t *testing.T) {
	now := func() time.Time { return time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC) }
	p, err := prompts.NewSystemPrompt(context.Background(), model.SystemPromptConfig{
		Custom:          "You are a helpful SMS assistant. Keep replies short.\n",
		KnowledgeCutoff: "Sep 2021",
	}, now)
	require.NoError(t, err)

	got, err := p.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		"You are a helpful SMS assistant. Keep replies short.\nKnowledge cutoff: Sep 2021. Current date: March 07, 2026",
		got)
}

func TestSystemPromptUsesCurrentDateEachTime(t *testing.T) {
	day := time.Date(2026, time.October, 19, 23, 59, 0, 0, time.UTC)
	p, err := prompts.NewSystemPrompt(context.Background(), model.SystemPromptConfig{Custom: "x", KnowledgeCutoff: "now"},
		func() time.Time { return day })
	require.NoError(t, err)

	first, err := p.Render(context.Background())
	require.NoError(t, err)
	day = day.Add(time.Minute)
	second, err := p.Render(context.Background())
	require.NoError(t, err)

	assert.Contains(t, first, "October 19, 2026")
	assert.Contains(t, second, "October 20, 2026")
}

func TestSystemPromptRenderNotifiesObservers(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Development, Output: &buf})
	t.Cleanup(logx.Silence)

	p, err := prompts.NewSystemPrompt(context.Background(), model.SystemPromptConfig{Custom: "x", KnowledgeCutoff: "Sep 2021"},
		func() time.Time { return time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC) })
	require.NoError(t, err)

	_, err = p.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "prompt rendered")
}
