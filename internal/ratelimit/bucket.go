package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Bucket is a process-local token bucket gating outbound upstream calls.
//
// State is never shared across processes: each instance refills and drains
// independently, so with N instances the effective aggregate rate is
// N x RefillPerSec. That is a documented property of the deployment, not
// something this type tries to compensate for.
type Bucket struct {
	mu           sync.Mutex
	capacity     float64
	refillPerSec float64
	tokens       float64
	last         time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Bucket)

// WithClock replaces the wall clock and sleeper, for tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Bucket) {
		b.now = now
		b.sleep = sleep
	}
}

func New(capacity int, refillPerSec float64, opts ...Option) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillPerSec <= 0 {
		refillPerSec = 1
	}
	b := &Bucket{
		capacity:     float64(capacity),
		refillPerSec: refillPerSec,
		tokens:       float64(capacity),
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.last = b.now()
	return b
}

// Acquire reserves one token, waiting when the bucket is empty. It never
// rejects; the only failure mode is context cancellation while waiting.
//
// The wait is a fixed interval of ceil(1000/refillPerSec) milliseconds rather
// than the exact remaining deficit. After the wait the token is taken
// unconditionally (floored at zero), so a burst of blocked callers drains at
// roughly the refill rate instead of queueing precisely.
func (b *Bucket) Acquire(ctx context.Context) error {
	b.mu.Lock()
	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		b.mu.Unlock()
		return nil
	}
	wait := b.waitInterval()
	b.mu.Unlock()

	if err := b.sleep(ctx, wait); err != nil {
		return err
	}

	b.mu.Lock()
	b.refill()
	b.tokens = math.Max(0, b.tokens-1)
	b.mu.Unlock()
	return nil
}

// Tokens reports the currently available tokens after a refill.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

func (b *Bucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillPerSec)
		b.last = now
	}
}

func (b *Bucket) waitInterval() time.Duration {
	ms := math.Ceil(1000 / b.refillPerSec)
	return time.Duration(ms) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
