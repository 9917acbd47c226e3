package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestLimiterSixthRequestRejected(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			l := &Limiter{Window: time.Minute, Max: 5, Store: store, Now: clock.Now}
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				ok, err := l.Allow(ctx, "1.2.3.4")
				require.NoError(t, err)
				assert.True(t, ok, "request %d", i+1)
				clock.Advance(time.Second)
			}
			ok, err := l.Allow(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.False(t, ok)

			// Other keys are independent.
			ok, err = l.Allow(ctx, "5.6.7.8")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			l := &Limiter{Window: time.Minute, Max: 5, Store: store, Now: clock.Now}
			ctx := context.Background()

			for i := 0; i < 6; i++ {
				_, err := l.Allow(ctx, "k")
				require.NoError(t, err)
			}
			clock.Advance(59 * time.Second)
			ok, err := l.Allow(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok, "rejected attempts still count")

			// A hit exactly one window old no longer counts.
			clock.Advance(time.Minute)
			ok, err = l.Allow(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLimiterDefaults(t *testing.T) {
	l := New(NewMemoryStore())
	assert.Equal(t, time.Minute, l.Window)
	assert.Equal(t, 5, l.Max)

	zero := &Limiter{Store: NewMemoryStore()}
	for i := 0; i < DefaultMax; i++ {
		ok, err := zero.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := zero.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLimiterCheck(t *testing.T) {
	l := &Limiter{Window: time.Minute, Max: 1, Store: NewMemoryStore()}
	require.NoError(t, l.Check(context.Background(), "k"))
	assert.ErrorIs(t, l.Check(context.Background(), "k"), ErrLimited)
}

type brokenStore struct{}

func (brokenStore) Record(context.Context, string, time.Time, time.Duration) error {
	return errors.New("down")
}

func (brokenStore) Get(context.Context, string, time.Time) ([]time.Time, error) {
	return nil, nil
}

func TestLimiterStoreError(t *testing.T) {
	l := New(brokenStore{})
	ok, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestMemoryStorePrune(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := newClock().t
	require.NoError(t, s.Record(ctx, "a", base, time.Minute))
	require.NoError(t, s.Record(ctx, "b", base.Add(30*time.Second), time.Minute))
	assert.Equal(t, 2, s.Keys())

	s.Prune(base.Add(10 * time.Second))
	assert.Equal(t, 1, s.Keys())
	hits, err := s.Get(ctx, "b", base)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMemoryStoreContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	assert.ErrorIs(t, s.Record(ctx, "k", time.Now(), time.Minute), context.Canceled)
	_, err := s.Get(ctx, "k", time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisStoreExpiresKeys(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	at := time.Now()
	require.NoError(t, s.Record(ctx, "k", at, time.Minute))

	assert.True(t, mr.Exists("growthkit:rl:k"))
	assert.Equal(t, time.Minute, mr.TTL("growthkit:rl:k"))
	hits, err := s.Get(ctx, "k", at.Add(-time.Second))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, at.UnixMilli(), hits[0].UnixMilli())

	mr.FastForward(time.Minute + time.Second)
	assert.False(t, mr.Exists("growthkit:rl:k"))
}

func TestRedisStorePrefixAndNilClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, WithRedisPrefix("test:"))
	require.NoError(t, s.Record(context.Background(), "k", time.Now(), time.Minute))
	assert.True(t, mr.Exists("test:k"))

	empty := NewRedisStore(nil)
	assert.Error(t, empty.Record(context.Background(), "k", time.Now(), time.Minute))
	_, err := empty.Get(context.Background(), "k", time.Now())
	assert.Error(t, err)
}
