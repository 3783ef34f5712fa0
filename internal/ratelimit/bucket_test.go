package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock advances only when the bucket sleeps.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	asleep time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.asleep += d
	c.now = c.now.Add(d)
	return nil
}

func newTestBucket(capacity int, refill float64) (*Bucket, *fakeClock) {
	clk := newFakeClock()
	return New(capacity, refill, WithClock(clk.Now, clk.Sleep)), clk
}

func TestBurstWithinCapacityDoesNotWait(t *testing.T) {
	b, clk := newTestBucket(5, 1)

	for i := 0; i < 5; i++ {
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if len(clk.slept) != 0 {
		t.Fatalf("expected no waits within burst capacity, got %v", clk.slept)
	}
}

func TestSixthCallWaitsOneInterval(t *testing.T) {
	b, clk := newTestBucket(5, 1)

	for i := 0; i < 5; i++ {
		_ = b.Acquire(context.Background())
	}
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("sixth acquire: %v", err)
	}
	if len(clk.slept) != 1 || clk.slept[0] != 1000*time.Millisecond {
		t.Fatalf("expected one 1000ms wait, got %v", clk.slept)
	}
}

func TestFractionalRefillRateRoundsWaitUp(t *testing.T) {
	b, clk := newTestBucket(1, 0.3)

	_ = b.Acquire(context.Background())
	_ = b.Acquire(context.Background())

	// ceil(1000/0.3) = 3334ms
	if len(clk.slept) != 1 || clk.slept[0] != 3334*time.Millisecond {
		t.Fatalf("expected one 3334ms wait, got %v", clk.slept)
	}
}

func TestLongRunRateBounded(t *testing.T) {
	const calls = 50
	b, clk := newTestBucket(5, 2)

	start := clk.Now()
	for i := 0; i < calls; i++ {
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	elapsed := clk.Now().Sub(start).Seconds()

	// 5 tokens ride the initial burst; the remainder must have been paced at
	// no more than the refill rate (within the fixed-interval rounding).
	paced := float64(calls - 5)
	if elapsed > 0 {
		rate := paced / elapsed
		if rate > 2.05 {
			t.Fatalf("long-run rate %.2f exceeds refill rate", rate)
		}
	}
}

func TestRefillIsCappedAtCapacity(t *testing.T) {
	b, clk := newTestBucket(3, 10)

	// Idle long enough to refill far beyond capacity.
	clk.now = clk.now.Add(time.Hour)

	if got := b.Tokens(); got != 3 {
		t.Fatalf("tokens = %v, want capacity 3", got)
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	clk := newFakeClock()
	b := New(1, 1, WithClock(clk.Now, func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))

	_ = b.Acquire(context.Background())
	if err := b.Acquire(context.Background()); err != context.Canceled {
		t.Fatalf("expected context.Canceled while waiting, got %v", err)
	}
}
