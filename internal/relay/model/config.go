package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	MaxPromptTokens int           `envconfig:"MAX_PROMPT_TOKENS" default:"8000"`
	MaxChunkLength  int           `envconfig:"MAX_CHUNK_LENGTH" default:"960"`
	Tokenizer       string        `envconfig:"TOKENIZER" default:"chars"`
	CharsPerToken   int           `envconfig:"CHARS_PER_TOKEN" default:"4"`
	TokenEncoding   string        `envconfig:"TIKTOKEN_ENCODING" default:"cl100k_base"`
	ApologyMessage  string        `envconfig:"APOLOGY_MESSAGE" default:"Sorry, that message is too long for me to process. Please send something shorter."`
	FailureMessage  string        `envconfig:"FAILURE_MESSAGE"`
	IdleTTL         time.Duration `envconfig:"SESSION_IDLE_TTL" default:"0"`
	SweepInterval   time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

type SystemPromptConfig struct {
	Custom          string `envconfig:"CUSTOM_SYSTEM_PROMPT" required:"true"`
	KnowledgeCutoff string `envconfig:"KNOWLEDGE_CUTOFF" default:"Sep 2021"`
}

type ResponseModelConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
}

type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

type AnthropicConfig struct {
	APIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	Model   string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`
	BaseURL string `envconfig:"ANTHROPIC_BASE_URL"`
}

type TwilioConfig struct {
	AccountSID  string `envconfig:"TWILIO_ACCOUNT_SID" required:"true"`
	AuthToken   string `envconfig:"TWILIO_AUTH_TOKEN" required:"true"`
	PhoneNumber string `envconfig:"TWILIO_PHONE_NUMBER" required:"true"`
}

type TranscriptConfig struct {
	Store     string        `envconfig:"TRANSCRIPT_STORE" default:"none"`
	TTL       time.Duration `envconfig:"TRANSCRIPT_TTL" default:"168h"`
	SQLiteDSN string        `envconfig:"SQLITE_DSN" default:"transcripts.db"`
}

type HTTPConfig struct {
	Addr           string        `envconfig:"HTTP_ADDR" default:":5000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
}
