// Package sessions holds per-sender conversation state: token-budgeted
// history buffers and the registry that owns them.
package sessions

import (
	"sync"
	"time"
)

// Registry maps sender identifiers to their Buffer. Exactly one live buffer
// exists per sender; lookups only hold the registry mutex briefly, so senders
// never wait on each other's exclusive sections.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Buffer
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Buffer),
		now:      time.Now,
	}
}

// GetOrCreate returns the sender's buffer, creating it on first contact.
func (r *Registry) GetOrCreate(senderID string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.sessions[senderID]; ok {
		return b
	}
	b := newBuffer(r.now())
	r.sessions[senderID] = b
	return b
}

// Acquire returns the sender's buffer with its exclusive section held.
// The caller must Unlock it. A buffer retired by the sweeper while we were
// waiting on its lock is skipped and a fresh one is fetched.
func (r *Registry) Acquire(senderID string) *Buffer {
	for {
		b := r.GetOrCreate(senderID)
		b.Lock()
		if !b.retired {
			b.touch(r.now())
			return b
		}
		b.Unlock()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stats summarises live sessions. Busy sessions (currently locked) are
// counted but not inspected.
type Stats struct {
	Sessions    int `json:"sessions"`
	Busy        int `json:"busy"`
	Messages    int `json:"messages"`
	TotalTokens int `json:"total_tokens"`
}

// Stats returns a best-effort snapshot without blocking on busy senders.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{Sessions: len(r.sessions)}
	for _, b := range r.sessions {
		if !b.mu.TryLock() {
			st.Busy++
			continue
		}
		st.Messages += b.Len()
		st.TotalTokens += b.TotalTokens()
		b.mu.Unlock()
	}
	return st
}

// RemoveIdle retires and removes sessions unused for longer than ttl.
// Sessions whose exclusive section is held are left alone.
func (r *Registry) RemoveIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for sender, b := range r.sessions {
		if !b.mu.TryLock() {
			continue
		}
		if now.Sub(b.lastUsed) > ttl {
			b.retired = true
			delete(r.sessions, sender)
			removed++
		}
		b.mu.Unlock()
	}
	return removed
}
