package sessions

import (
	"context"
	"sync"
	"time"

	logx "github.com/chative-sms/relay/pkg/logger"
)

// DefaultSweepInterval is used when a Sweeper is built with a non-positive interval.
const DefaultSweepInterval = time.Minute

// Sweeper periodically removes idle sessions from a Registry.
type Sweeper struct {
	registry *Registry
	ttl      time.Duration
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSweeper creates a sweeper that retires sessions idle for longer than ttl.
func NewSweeper(registry *Registry, ttl, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		registry: registry,
		ttl:      ttl,
		interval: interval,
	}
}

// Start launches the sweep loop. It is a no-op when ttl is disabled or the
// loop is already running.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.ttl <= 0 {
		return
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(sweepCtx, s.done)
}

// Stop cancels the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the sweep loop is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		close(done)
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Debug().Msg("session sweeper stopping")
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce performs a single pass and returns the number of removed sessions.
func (s *Sweeper) SweepOnce() int {
	start := time.Now()
	removed := s.registry.RemoveIdle(s.ttl)
	if removed > 0 {
		logx.Info().
			Int("removed", removed).
			Int("remaining", s.registry.Len()).
			Dur("duration", time.Since(start)).
			Msg("removed idle sessions")
	}
	return removed
}
