package model

import (
	"context"
	"time"
)

// Exchange is one archived request/response pair for a sender.
type Exchange struct {
	Sender    string    `json:"sender"`
	UserText  string    `json:"user_text"`
	Reply     string    `json:"reply"`
	Outcome   string    `json:"outcome"`
	Tokens    int       `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OutcomeReplied         = "replied"
	OutcomeBudgetExhausted = "budget_exhausted"
	OutcomeFailed          = "failed"
	OutcomePromptFailed    = "prompt_failed"
)

// TranscriptRepository is a write-mostly audit log of exchanges. It is never
// used to rebuild in-memory sessions.
type TranscriptRepository interface {
	// Append records an exchange for the sender
	Append(ctx context.Context, ex Exchange) error

	// Recent returns up to limit most recent exchanges for the sender, oldest first
	Recent(ctx context.Context, sender string, limit int) ([]Exchange, error)

	// Count returns the number of archived exchanges for the sender
	Count(ctx context.Context, sender string) (int, error)

	Close() error
}
