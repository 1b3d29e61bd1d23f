package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/chative-sms/relay/internal/relay/llm/observers"
	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/sessions"
	logx "github.com/chative-sms/relay/pkg/logger"
)

// ErrEmptyReply is returned when the model produced no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// ChatModelCompleter runs an eino chat model through a compiled chain so the
// observer callbacks see every call.
type ChatModelCompleter struct {
	runnable  compose.Runnable[[]*schema.Message, *schema.Message]
	modelName string
}

// NewGeminiChatModel creates the Gemini chat model used for replies.
func NewGeminiChatModel(ctx context.Context, apiCfg model.GeminiConfig, respCfg model.ResponseModelConfig) (*gemini.ChatModel, error) {
	if strings.TrimSpace(apiCfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if apiCfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = apiCfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       respCfg.Model,
		Temperature: &respCfg.Temperature,
		MaxTokens:   &respCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}
	return chatModel, nil
}

// NewChatModelCompleter compiles cm into a single-node chain.
func NewChatModelCompleter(ctx context.Context, cm einomodel.BaseChatModel, modelName string) (*ChatModelCompleter, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(cm)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling completion chain")
		return nil, fmt.Errorf("error compiling completion chain: %w", err)
	}
	return &ChatModelCompleter{runnable: runnable, modelName: modelName}, nil
}

// Generate sends the system prompt followed by the history and returns the reply text.
func (c *ChatModelCompleter) Generate(ctx context.Context, system string, history []sessions.MessageNode) (string, error) {
	msgs := make([]*schema.Message, 0, len(history)+1)
	msgs = append(msgs, schema.SystemMessage(system))
	for _, n := range history {
		msgs = append(msgs, n.Message())
	}

	out, err := c.runnable.Invoke(ctx, msgs, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", ErrEmptyReply
	}
	c.logUsage(out)
	return strings.TrimSpace(out.Content), nil
}

func (c *ChatModelCompleter) logUsage(out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(c.modelName))
	logx.Debug().
		Str("model", c.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}
