package repo

import (
	"context"
	"sync"

	"github.com/chative-sms/relay/internal/relay/model"
)

// MemoryTranscriptRepository keeps exchanges in process memory, mainly for
// local runs and tests.
type MemoryTranscriptRepository struct {
	mu        sync.RWMutex
	exchanges map[string][]model.Exchange
}

func NewMemoryTranscriptRepository() *MemoryTranscriptRepository {
	return &MemoryTranscriptRepository{exchanges: make(map[string][]model.Exchange)}
}

func (r *MemoryTranscriptRepository) Append(_ context.Context, ex model.Exchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges[ex.Sender] = append(r.exchanges[ex.Sender], ex)
	return nil
}

func (r *MemoryTranscriptRepository) Recent(_ context.Context, sender string, limit int) ([]model.Exchange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.exchanges[sender]
	if limit <= 0 {
		return []model.Exchange{}, nil
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]model.Exchange, len(all))
	copy(out, all)
	return out, nil
}

func (r *MemoryTranscriptRepository) Count(_ context.Context, sender string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exchanges[sender]), nil
}

func (r *MemoryTranscriptRepository) Close() error { return nil }

var _ model.TranscriptRepository = (*MemoryTranscriptRepository)(nil)
