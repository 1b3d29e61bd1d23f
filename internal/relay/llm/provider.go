// Package llm adapts completion services to the relay's history model.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/sessions"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Completer produces the assistant reply for a system prompt and ordered history.
type Completer interface {
	Generate(ctx context.Context, system string, history []sessions.MessageNode) (string, error)
}

// Config selects and configures the completion provider.
type Config struct {
	Response  model.ResponseModelConfig
	Gemini    model.GeminiConfig
	Anthropic model.AnthropicConfig
}

// NewCompleter builds the provider named by cfg.Response.Provider.
func NewCompleter(ctx context.Context, cfg Config) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Response.Provider)) {
	case ProviderGemini, "":
		cm, err := NewGeminiChatModel(ctx, cfg.Gemini, cfg.Response)
		if err != nil {
			return nil, err
		}
		return NewChatModelCompleter(ctx, cm, cfg.Response.Model)
	case ProviderAnthropic:
		temperature := float64(cfg.Response.Temperature)
		return NewAnthropicCompleter(AnthropicConfig{
			APIKey:      cfg.Anthropic.APIKey,
			Model:       cfg.Anthropic.Model,
			BaseURL:     cfg.Anthropic.BaseURL,
			MaxTokens:   cfg.Response.MaxTokens,
			Temperature: &temperature,
		})
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Response.Provider)
	}
}
