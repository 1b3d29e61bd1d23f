package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/chative-sms/relay/internal/core/error"
	"github.com/chative-sms/relay/internal/relay/model"
	logx "github.com/chative-sms/relay/pkg/logger"
)

type RedisTranscriptRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisTranscriptRepository(rdb redis.Cmdable, ttl time.Duration) *RedisTranscriptRepository {
	return &RedisTranscriptRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisTranscriptRepository) transcriptKey(sender string) string {
	return fmt.Sprintf("transcript:%s:exchanges", sender)
}

func (r *RedisTranscriptRepository) Append(ctx context.Context, ex model.Exchange) error {
	b, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}
	key := r.transcriptKey(ex.Sender)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push exchange to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on transcript key")
		}
	}
	return nil
}

func (r *RedisTranscriptRepository) Recent(ctx context.Context, sender string, limit int) ([]model.Exchange, error) {
	if limit <= 0 {
		return []model.Exchange{}, nil
	}
	key := r.transcriptKey(sender)

	rows, err := r.rdb.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.Exchange{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load transcript from redis")
		return nil, errx.WrapRedis(err)
	}

	out := make([]model.Exchange, 0, len(rows))
	for i, s := range rows {
		var ex model.Exchange
		if err := json.Unmarshal([]byte(s), &ex); err != nil {
			return nil, fmt.Errorf("unmarshal exchange at index %d: %w", i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func (r *RedisTranscriptRepository) Count(ctx context.Context, sender string) (int, error) {
	key := r.transcriptKey(sender)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get transcript length from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

// Close is a no-op; the client is owned by the caller.
func (r *RedisTranscriptRepository) Close() error {
	return nil
}

var _ model.TranscriptRepository = (*RedisTranscriptRepository)(nil)
