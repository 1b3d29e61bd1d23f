package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative-sms/relay/internal/relay/llm"
	"github.com/chative-sms/relay/internal/relay/model"
	logx "github.com/chative-sms/relay/pkg/logger"
)

func newAnthropicServer(t *testing.T, status int, body string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if captured != nil {
			assert.NoError(t, json.Unmarshal(raw, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAnthropic(t *testing.T, baseURL string) *llm.AnthropicCompleter {
	t.Helper()
	retries := 0
	c, err := llm.NewAnthropicCompleter(llm.AnthropicConfig{
		APIKey:     "test-key",
		Model:      "claude-sonnet-4-5",
		BaseURL:    baseURL,
		MaxTokens:  256,
		MaxRetries: &retries,
	})
	require.NoError(t, err)
	return c
}

func TestAnthropicCompleterGenerate(t *testing.T) {
	logx.Silence()
	var req map[string]any
	srv := newAnthropicServer(t, http.StatusOK, `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"content": [{"type": "text", "text": "It is Monday."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 20, "output_tokens": 4}
	}`, &req)

	got, err := newTestAnthropic(t, srv.URL).Generate(context.Background(), "be brief", history())
	require.NoError(t, err)
	assert.Equal(t, "It is Monday.", got)

	assert.Equal(t, "claude-sonnet-4-5", req["model"])
	assert.EqualValues(t, 256, req["max_tokens"])
	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 3)
	system, ok := req["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "be brief", system[0].(map[string]any)["text"])
}

func TestAnthropicCompleterServerError(t *testing.T) {
	srv := newAnthropicServer(t, http.StatusInternalServerError,
		`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`, nil)

	_, err := newTestAnthropic(t, srv.URL).Generate(context.Background(), "sys", history())
	assert.Error(t, err)
}

func TestNewAnthropicCompleterValidates(t *testing.T) {
	_, err := llm.NewAnthropicCompleter(llm.AnthropicConfig{Model: "m"})
	assert.Error(t, err)
	_, err = llm.NewAnthropicCompleter(llm.AnthropicConfig{APIKey: "k"})
	assert.Error(t, err)
}

func TestNewCompleterUnknownProvider(t *testing.T) {
	_, err := llm.NewCompleter(context.Background(), llm.Config{
		Response: model.ResponseModelConfig{Provider: "palm"},
	})
	assert.Error(t, err)
}

func TestNewCompleterGeminiRequiresKey(t *testing.T) {
	_, err := llm.NewCompleter(context.Background(), llm.Config{
		Response: model.ResponseModelConfig{Provider: "gemini", Model: "gemini-2.5-flash"},
	})
	assert.Error(t, err)
}
