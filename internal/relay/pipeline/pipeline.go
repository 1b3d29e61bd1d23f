// Package pipeline runs one inbound SMS through the sender's session, the
// completion service and outbound delivery.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	errx "github.com/chative-sms/relay/internal/core/error"
	"github.com/chative-sms/relay/internal/relay/chunking"
	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/sessions"
	"github.com/chative-sms/relay/internal/relay/tokens"
	logx "github.com/chative-sms/relay/pkg/logger"
)

// DefaultApologyMessage is sent when a message cannot fit the prompt budget.
const DefaultApologyMessage = "Sorry, that message is too long for me to process. Please send something shorter."

// Completer produces the assistant reply for a system prompt and ordered history.
type Completer interface {
	Generate(ctx context.Context, system string, history []sessions.MessageNode) (string, error)
}

// Sender delivers an SMS body to a recipient.
type Sender interface {
	Send(ctx context.Context, body, to string) error
}

// PromptRenderer produces the system prompt for the current request.
type PromptRenderer interface {
	Render(ctx context.Context) (string, error)
}

// Config carries the budget and delivery settings.
type Config struct {
	MaxPromptTokens int
	MaxChunkLength  int
	ApologyMessage  string
	FailureMessage  string
}

// Pipeline handles inbound messages. It is safe for concurrent use.
type Pipeline struct {
	registry    *sessions.Registry
	completer   Completer
	sender      Sender
	prompt      PromptRenderer
	counter     tokens.Counter
	transcripts model.TranscriptRepository
	cfg         Config
}

// New wires a pipeline. transcripts may be nil.
func New(
	registry *sessions.Registry,
	completer Completer,
	sender Sender,
	prompt PromptRenderer,
	counter tokens.Counter,
	transcripts model.TranscriptRepository,
	cfg Config,
) *Pipeline {
	if cfg.ApologyMessage == "" {
		cfg.ApologyMessage = DefaultApologyMessage
	}
	return &Pipeline{
		registry:    registry,
		completer:   completer,
		sender:      sender,
		prompt:      prompt,
		counter:     counter,
		transcripts: transcripts,
		cfg:         cfg,
	}
}

// Handle processes one message from senderID and returns the reply text.
//
// Blank messages are ignored. When the message cannot fit the budget the
// apology is sent and an error wrapping errx.ErrBudgetExhausted is returned.
// Completion failures leave the user message in history. Delivery errors are
// returned together with the reply; session state is unaffected by them.
func (p *Pipeline) Handle(ctx context.Context, senderID, userText string) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", nil
	}
	masked := logx.MaskSender(senderID)

	reply, err := p.converse(ctx, senderID, userText)
	if err != nil {
		switch {
		case errors.Is(err, errx.ErrBudgetExhausted):
			p.archive(ctx, senderID, userText, "", model.OutcomeBudgetExhausted)
			return "", errx.WrapBudget(err)
		case errors.Is(err, errx.ErrPromptRender):
			logx.Error().Err(err).Str("sender", masked).Msg("system prompt render failed")
			p.notifyFailure(ctx, senderID)
			p.archive(ctx, senderID, userText, "", model.OutcomePromptFailed)
			return "", err
		}

		logx.Error().Err(err).Str("sender", masked).Msg("completion failed")
		p.notifyFailure(ctx, senderID)
		p.archive(ctx, senderID, userText, "", model.OutcomeFailed)
		return "", err
	}

	deliveryErr := p.deliver(ctx, senderID, reply)
	p.archive(ctx, senderID, userText, reply, model.OutcomeReplied)
	if deliveryErr != nil {
		return reply, errx.WrapDelivery(deliveryErr)
	}
	logx.Info().Str("sender", masked).Msg("Sent response")
	return reply, nil
}

// converse runs the part of the request that holds the sender's exclusive section.
func (p *Pipeline) converse(ctx context.Context, senderID, userText string) (string, error) {
	buf := p.registry.Acquire(senderID)
	defer buf.Unlock()

	buf.Append(sessions.NewNode(schema.User, userText, p.counter))

	system, err := p.prompt.Render(ctx)
	if err != nil {
		return "", errx.WrapPrompt(err)
	}
	systemNode := sessions.NewNode(schema.System, system, p.counter)

	if err := buf.EvictToFit(systemNode.Tokens(), p.cfg.MaxPromptTokens); err != nil {
		// still inside the section, so the apology cannot overtake a later reply
		p.apologize(ctx, senderID)
		return "", err
	}

	start := time.Now()
	reply, err := p.completer.Generate(ctx, systemNode.Content(), buf.Snapshot())
	if err != nil {
		return "", errx.WrapCompletion(err)
	}
	buf.Append(sessions.NewNode(schema.Assistant, reply, p.counter))

	logx.Debug().
		Str("sender", logx.MaskSender(senderID)).
		Int("history", buf.Len()).
		Int("history_tokens", buf.TotalTokens()).
		Int("system_tokens", systemNode.Tokens()).
		Dur("latency", time.Since(start)).
		Msg("completion done")
	return reply, nil
}

func (p *Pipeline) apologize(ctx context.Context, senderID string) {
	masked := logx.MaskSender(senderID)
	logx.Warn().Str("sender", masked).Msg("message exceeds prompt budget; sending apology")
	if err := p.sender.Send(ctx, p.cfg.ApologyMessage, senderID); err != nil {
		logx.Error().Err(err).Str("sender", masked).Msg("failed to send apology")
	}
}

// notifyFailure sends FailureMessage when one is configured.
func (p *Pipeline) notifyFailure(ctx context.Context, senderID string) {
	if p.cfg.FailureMessage == "" {
		return
	}
	if err := p.sender.Send(ctx, p.cfg.FailureMessage, senderID); err != nil {
		logx.Error().Err(err).Str("sender", logx.MaskSender(senderID)).Msg("failed to send failure notice")
	}
}

// deliver sends every chunk in order, continuing past failures.
func (p *Pipeline) deliver(ctx context.Context, to, reply string) error {
	var errs []error
	chunks := chunking.Split(reply, p.cfg.MaxChunkLength)
	for i, chunk := range chunks {
		if err := p.sender.Send(ctx, chunk, to); err != nil {
			logx.Error().Err(err).
				Str("sender", logx.MaskSender(to)).
				Int("chunk", i+1).
				Int("chunks", len(chunks)).
				Msg("failed to deliver chunk")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) archive(ctx context.Context, sender, userText, reply, outcome string) {
	if p.transcripts == nil {
		return
	}
	ex := model.Exchange{
		Sender:    sender,
		UserText:  userText,
		Reply:     reply,
		Outcome:   outcome,
		Tokens:    p.counter.Count(userText) + p.counter.Count(reply),
		CreatedAt: time.Now(),
	}
	if err := p.transcripts.Append(context.WithoutCancel(ctx), ex); err != nil {
		logx.Warn().Err(err).Str("sender", logx.MaskSender(sender)).Msg("failed to archive exchange")
	}
}
