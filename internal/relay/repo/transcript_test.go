package repo_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative-sms/relay/internal/relay/model"
	"github.com/chative-sms/relay/internal/relay/repo"
	logx "github.com/chative-sms/relay/pkg/logger"
)

func newRedisRepo(t *testing.T) (*repo.RedisTranscriptRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return repo.NewRedisTranscriptRepository(rdb, time.Hour), mr
}

func newSQLiteRepo(t *testing.T) *repo.SQLiteTranscriptRepository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "transcripts.db")
	r, err := repo.NewSQLiteTranscriptRepository(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func exchange(sender string, i int) model.Exchange {
	return model.Exchange{
		Sender:    sender,
		UserText:  fmt.Sprintf("question %d", i),
		Reply:     fmt.Sprintf("answer %d", i),
		Outcome:   model.OutcomeReplied,
		Tokens:    i * 10,
		CreatedAt: time.Date(2026, 5, 1, 12, 0, i, 0, time.UTC),
	}
}

func TestTranscriptRepositories(t *testing.T) {
	logx.Silence()
	impls := map[string]func(t *testing.T) model.TranscriptRepository{
		"memory": func(t *testing.T) model.TranscriptRepository { return repo.NewMemoryTranscriptRepository() },
		"redis": func(t *testing.T) model.TranscriptRepository {
			r, _ := newRedisRepo(t)
			return r
		},
		"sqlite": func(t *testing.T) model.TranscriptRepository { return newSQLiteRepo(t) },
	}

	for name, build := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := build(t)

			for i := 1; i <= 5; i++ {
				require.NoError(t, r.Append(ctx, exchange("+1555", i)))
			}
			require.NoError(t, r.Append(ctx, exchange("+1666", 9)))

			n, err := r.Count(ctx, "+1555")
			require.NoError(t, err)
			assert.Equal(t, 5, n)

			recent, err := r.Recent(ctx, "+1555", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, "question 4", recent[0].UserText)
			assert.Equal(t, "answer 5", recent[1].Reply)
			assert.Equal(t, 50, recent[1].Tokens)
			assert.True(t, recent[1].CreatedAt.Equal(exchange("+1555", 5).CreatedAt))

			none, err := r.Recent(ctx, "+nobody", 10)
			require.NoError(t, err)
			assert.Empty(t, none)

			zero, err := r.Recent(ctx, "+1555", 0)
			require.NoError(t, err)
			assert.Empty(t, zero)

			n, err = r.Count(ctx, "+nobody")
			require.NoError(t, err)
			assert.Zero(t, n)

			assert.NoError(t, r.Close())
		})
	}
}

func TestRedisTranscriptSetsTTL(t *testing.T) {
	r, mr := newRedisRepo(t)
	require.NoError(t, r.Append(context.Background(), exchange("+1555", 1)))

	assert.Equal(t, time.Hour, mr.TTL("transcript:+1555:exchanges"))
}

func TestRedisTranscriptUnavailable(t *testing.T) {
	logx.Silence()
	r, mr := newRedisRepo(t)
	mr.Close()

	err := r.Append(context.Background(), exchange("+1555", 1))
	assert.Error(t, err)
}
