package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/schema"

	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/sessions"
	logx "github.com/chative-sms/relay/pkg/logger"
)

// AnthropicConfig controls an AnthropicCompleter.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature *float64
	HTTPClient  *http.Client
	MaxRetries  *int
}

// AnthropicCompleter calls the Anthropic Messages API.
type AnthropicCompleter struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature *float64
}

// NewAnthropicCompleter constructs a completer from config.
func NewAnthropicCompleter(cfg AnthropicConfig) (*AnthropicCompleter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, errors.New("anthropic: model is required")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*cfg.MaxRetries))
	}

	return &AnthropicCompleter{
		client:      anthropic.NewClient(opts...),
		model:       modelName,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Generate implements the completer contract. System-role history entries are
// folded into the system prompt since the Messages API only accepts user and
// assistant turns.
func (c *AnthropicCompleter) Generate(ctx context.Context, system string, history []sessions.MessageNode) (string, error) {
	var systemText strings.Builder
	systemText.WriteString(strings.TrimSpace(system))

	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, n := range history {
		content := n.Content()
		if strings.TrimSpace(content) == "" {
			continue
		}
		switch n.Role() {
		case schema.User:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		case schema.Assistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		case schema.System:
			systemText.WriteString("\n")
			systemText.WriteString(content)
		}
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  messages,
	}
	if s := systemText.String(); s != "" {
		req.System = []anthropic.TextBlockParam{{Text: s}}
	}
	if c.temperature != nil {
		req.Temperature = anthropic.Float(*c.temperature)
	}

	msg, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var reply strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			reply.WriteString(text.Text)
		}
	}
	out := strings.TrimSpace(reply.String())
	if out == "" {
		return "", ErrEmptyReply
	}

	inC, outC, totalC := model.ComputeCost(&schema.TokenUsage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}, model.ResolvePricing(c.model))
	logx.Debug().
		Str("model", c.model).
		Int64("prompt_tokens", msg.Usage.InputTokens).
		Int64("completion_tokens", msg.Usage.OutputTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	return out, nil
}
