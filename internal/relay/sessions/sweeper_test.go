package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "github.com/chative-sms/relay/pkg/logger"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry() (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	r := NewRegistry()
	r.now = clock.now
	return r, clock
}

func TestRemoveIdle(t *testing.T) {
	r, clock := newTestRegistry()

	r.Acquire("old").Unlock()
	clock.advance(10 * time.Minute)
	r.Acquire("fresh").Unlock()
	clock.advance(time.Minute)

	assert.Equal(t, 1, r.RemoveIdle(5*time.Minute))
	assert.Equal(t, 1, r.Len())
	assert.Zero(t, r.RemoveIdle(0))
}

func TestRemoveIdleSkipsLockedSessions(t *testing.T) {
	r, clock := newTestRegistry()

	b := r.Acquire("busy")
	clock.advance(time.Hour)

	assert.Zero(t, r.RemoveIdle(time.Minute))
	b.Unlock()
	assert.Equal(t, 1, r.RemoveIdle(time.Minute))
}

func TestAcquireSkipsRetiredBuffer(t *testing.T) {
	r, clock := newTestRegistry()

	stale := r.GetOrCreate("sender")
	clock.advance(time.Hour)
	require.Equal(t, 1, r.RemoveIdle(time.Minute))

	b := r.Acquire("sender")
	defer b.Unlock()
	assert.NotSame(t, stale, b)
	assert.True(t, stale.retired)
	assert.Same(t, b, r.GetOrCreate("sender"))
}

func TestSweeperStartStop(t *testing.T) {
	logx.Silence()
	r, clock := newTestRegistry()
	r.Acquire("old").Unlock()
	clock.advance(time.Hour)

	s := NewSweeper(r, time.Minute, 5*time.Millisecond)
	s.Start(context.Background())
	s.Start(context.Background())
	require.True(t, s.Running())

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())
	s.Stop()
}

func TestSweeperDisabledWithoutTTL(t *testing.T) {
	s := NewSweeper(NewRegistry(), 0, 0)
	s.Start(context.Background())
	assert.False(t, s.Running())
	assert.Equal(t, DefaultSweepInterval, s.interval)
}
