package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps hits in one sorted set per key, scored by Unix
// milliseconds, so several server instances share one limit.
//
// Keys: {prefix}{key} -> ZSET of "<ms>:<uuid>" members.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default "growthkit:rl:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore wraps client. The caller owns the client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "growthkit:rl:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Record(ctx context.Context, key string, at time.Time, window time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	ms := at.UnixMilli()
	rk := s.prefix + key

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rk, "-inf", strconv.FormatInt(ms-window.Milliseconds(), 10))
	pipe.ZAdd(ctx, rk, redis.Z{Score: float64(ms), Member: strconv.FormatInt(ms, 10) + ":" + uuid.NewString()})
	pipe.PExpire(ctx, rk, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return goerr.Wrap(err, "failed to record hit in redis", goerr.V("key", rk))
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string, since time.Time) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, errors.New("redis client is nil")
	}
	rk := s.prefix + key
	scores, err := s.client.ZRangeByScoreWithScores(ctx, rk, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read hits from redis", goerr.V("key", rk))
	}
	hits := make([]time.Time, 0, len(scores))
	for _, z := range scores {
		hits = append(hits, time.UnixMilli(int64(z.Score)))
	}
	return hits, nil
}
