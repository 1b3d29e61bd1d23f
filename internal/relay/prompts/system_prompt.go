package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/chative-sms/relay/internal/relay/llm/observers"
	"github.com/chative-sms/relay/internal/relay/model"
	logx "github.com/chative-sms/relay/pkg/logger"
)

//go:embed template/system_prompt.txt
var systemPromptTemplate string

// DateLayout renders dates like "October 19, 2026".
const DateLayout = "January 02, 2006"

// SystemPrompt renders the per-request system prompt. The current date is
// embedded, so it must be rendered fresh for every request.
type SystemPrompt struct {
	config   model.SystemPromptConfig
	runnable compose.Runnable[map[string]any, []*schema.Message]
	now      func() time.Time
}

// NewSystemPrompt compiles the template into a one-node chain; now defaults
// to time.Now.
func NewSystemPrompt(ctx context.Context, config model.SystemPromptConfig, now func() time.Time) (*SystemPrompt, error) {
	if now == nil {
		now = time.Now
	}
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(strings.TrimRight(systemPromptTemplate, "\n")),
	)

	chain := compose.NewChain[map[string]any, []*schema.Message]()
	chain.AppendChatTemplate(tpl, compose.WithNodeName("system_prompt"))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling system prompt chain")
		return nil, fmt.Errorf("error compiling system prompt chain: %w", err)
	}
	return &SystemPrompt{config: config, runnable: runnable, now: now}, nil
}

// Render runs the template chain with the prompt observers attached.
func (p *SystemPrompt) Render(ctx context.Context) (string, error) {
	vars := map[string]any{
		"Custom": strings.TrimSpace(p.config.Custom),
		"Cutoff": p.config.KnowledgeCutoff,
		"Date":   p.now().Format(DateLayout),
	}
	msgs, err := p.runnable.Invoke(ctx, vars, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
