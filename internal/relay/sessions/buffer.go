package sessions

import (
	"sync"
	"time"

	errx "github.com/chative-sms/relay/internal/core/error"
)

// Buffer is one sender's conversation history with a running token total.
//
// Lock and Unlock delimit the sender's exclusive section. Every other method
// must be called while holding it; Registry.Acquire returns a locked buffer.
type Buffer struct {
	mu sync.Mutex

	history     []MessageNode
	totalTokens int
	lastUsed    time.Time
	retired     bool
}

func newBuffer(now time.Time) *Buffer {
	return &Buffer{lastUsed: now}
}

func (b *Buffer) Lock()   { b.mu.Lock() }
func (b *Buffer) Unlock() { b.mu.Unlock() }

// Append adds node to the end of the history.
func (b *Buffer) Append(node MessageNode) {
	b.history = append(b.history, node)
	b.totalTokens += node.Tokens()
}

// EvictToFit drops the oldest entries until totalTokens+extra fits maxBudget.
// The last remaining entry is never evicted: if it alone does not fit,
// errx.ErrBudgetExhausted is returned and the history keeps that one entry.
func (b *Buffer) EvictToFit(extra, maxBudget int) error {
	for b.totalTokens+extra > maxBudget {
		if len(b.history) <= 1 {
			return errx.ErrBudgetExhausted
		}
		oldest := b.history[0]
		b.history[0] = MessageNode{}
		b.history = b.history[1:]
		b.totalTokens -= oldest.Tokens()
	}
	return nil
}

// Snapshot returns a copy of the history, oldest first.
func (b *Buffer) Snapshot() []MessageNode {
	out := make([]MessageNode, len(b.history))
	copy(out, b.history)
	return out
}

// Contents projects the history onto message contents, oldest first.
func (b *Buffer) Contents() []string {
	out := make([]string, len(b.history))
	for i, n := range b.history {
		out[i] = n.Content()
	}
	return out
}

func (b *Buffer) Len() int         { return len(b.history) }
func (b *Buffer) TotalTokens() int { return b.totalTokens }

// touch records activity for the idle sweeper.
func (b *Buffer) touch(now time.Time) { b.lastUsed = now }
