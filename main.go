package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chative-sms/relay/internal/core"
	"github.com/chative-sms/relay/internal/relay/delivery"
	"github.com/chative-sms/relay/internal/relay/llm"
	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/pipeline"
	"github.com/chative-sms/relay/internal/relay/prompts"
	"github.com/chative-sms/relay/internal/relay/repo"
	"github.com/chative-sms/relay/internal/relay/sessions"
	"github.com/chative-sms/relay/internal/relay/tokens"
	"github.com/chative-sms/relay/internal/relay/webhook"
	logx "github.com/chative-sms/relay/pkg/logger"
	pkgredis "github.com/chative-sms/relay/pkg/redis"
)

// AppConfig defines all configurable parameters for the relay, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	HTTP       model.HTTPConfig
	Redis      pkgredis.Config
	Transcript model.TranscriptConfig

	// Collaborators
	Twilio    model.TwilioConfig
	Response  model.ResponseModelConfig
	Gemini    model.GeminiConfig
	Anthropic model.AnthropicConfig

	// Relay behaviour
	Prompt       model.SystemPromptConfig
	Conversation model.ConversationConfig
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: cfg.Environment})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("relay stopped")
	}
}

func run(ctx context.Context, cfg AppConfig) error {
	completer, err := llm.NewCompleter(ctx, llm.Config{
		Response:  cfg.Response,
		Gemini:    cfg.Gemini,
		Anthropic: cfg.Anthropic,
	})
	if err != nil {
		return fmt.Errorf("build completer: %w", err)
	}

	sender, err := delivery.NewTwilioSender(cfg.Twilio)
	if err != nil {
		return fmt.Errorf("build sender: %w", err)
	}

	transcripts, err := newTranscriptRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build transcript store: %w", err)
	}
	if transcripts != nil {
		defer transcripts.Close()
	}

	counter, err := tokens.New(cfg.Conversation.Tokenizer, cfg.Conversation.CharsPerToken, cfg.Conversation.TokenEncoding)
	if err != nil {
		return fmt.Errorf("build token counter: %w", err)
	}

	systemPrompt, err := prompts.NewSystemPrompt(ctx, cfg.Prompt, nil)
	if err != nil {
		return fmt.Errorf("build system prompt: %w", err)
	}

	registry := sessions.NewRegistry()
	sweeper := sessions.NewSweeper(registry, cfg.Conversation.IdleTTL, cfg.Conversation.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	p := pipeline.New(
		registry,
		completer,
		sender,
		systemPrompt,
		counter,
		transcripts,
		pipeline.Config{
			MaxPromptTokens: cfg.Conversation.MaxPromptTokens,
			MaxChunkLength:  cfg.Conversation.MaxChunkLength,
			ApologyMessage:  cfg.Conversation.ApologyMessage,
			FailureMessage:  cfg.Conversation.FailureMessage,
		},
	)

	if cfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := webhook.NewHandler(p, registry, cfg.HTTP.RequestTimeout)
	if transcripts != nil {
		handler.WithTranscripts(transcripts)
	}
	router := webhook.NewRouter(handler)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("provider", cfg.Response.Provider).
			Int("max_prompt_tokens", cfg.Conversation.MaxPromptTokens).
			Msg("relay listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.RequestTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newTranscriptRepository(ctx context.Context, cfg AppConfig) (model.TranscriptRepository, error) {
	store := strings.ToLower(strings.TrimSpace(cfg.Transcript.Store))
	logx.Debug().Str("store", store).Msg("initializing transcript store")

	switch store {
	case "", "none":
		return nil, nil
	case "memory":
		return repo.NewMemoryTranscriptRepository(), nil
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		return &redisTranscripts{
			RedisTranscriptRepository: repo.NewRedisTranscriptRepository(rdb, cfg.Transcript.TTL),
			close:                     rdb.Close,
		}, nil
	case "sqlite":
		return repo.NewSQLiteTranscriptRepository(ctx, cfg.Transcript.SQLiteDSN)
	default:
		return nil, fmt.Errorf("unknown TRANSCRIPT_STORE %q", cfg.Transcript.Store)
	}
}

// redisTranscripts closes the client it owns together with the repository.
type redisTranscripts struct {
	*repo.RedisTranscriptRepository
	close func() error
}

func (r *redisTranscripts) Close() error {
	return r.close()
}
