// Package ratelimit implements a per-key sliding-window limiter over a
// pluggable hit store.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Defaults match the contact form: five submissions per minute per client.
const (
	DefaultWindow = time.Minute
	DefaultMax    = 5
)

var ErrLimited = errors.New("rate limit exceeded")

// Store keeps hit timestamps per key.
type Store interface {
	// Record adds a hit at the given time. Hits older than window may be
	// dropped.
	Record(ctx context.Context, key string, at time.Time, window time.Duration) error
	// Get returns hits strictly after since, oldest first.
	Get(ctx context.Context, key string, since time.Time) ([]time.Time, error)
}

// Limiter admits at most Max hits per key within any trailing Window. Every
// attempt is recorded, rejected ones included, so a client that keeps
// retrying stays limited.
type Limiter struct {
	Window time.Duration
	Max    int
	Store  Store
	// Now defaults to time.Now.
	Now func() time.Time
}

// New returns a limiter with the default window and maximum.
func New(store Store) *Limiter {
	return &Limiter{Window: DefaultWindow, Max: DefaultMax, Store: store}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	window, limit := l.Window, l.Max
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultMax
	}

	at := now()
	if err := l.Store.Record(ctx, key, at, window); err != nil {
		return false, goerr.Wrap(err, "failed to record hit", goerr.V("key", key))
	}
	hits, err := l.Store.Get(ctx, key, at.Add(-window))
	if err != nil {
		return false, goerr.Wrap(err, "failed to read hits", goerr.V("key", key))
	}
	return len(hits) <= limit, nil
}

// Check is Allow returning ErrLimited instead of false.
func (l *Limiter) Check(ctx context.Context, key string) error {
	ok, err := l.Allow(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return goerr.Wrap(ErrLimited, "too many requests", goerr.V("key", key))
	}
	return nil
}
