package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func newTestLimiter(rpm, tpm int, interval time.Duration) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := NewLimiter(rpm, tpm, interval, time.Minute, nil)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestEstimateTokens(t *testing.T) {
	tests := map[string]int{
		"":      0,
		"a":     1,
		"abcd":  1,
		"abcde": 2,
		"é":     1, // 2 bytes
	}
	for in, want := range tests {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLimiter_MinimumSpacing(t *testing.T) {
	l, clock := newTestLimiter(50, 40000, 1200*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, 10); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}

	want := []time.Duration{1200 * time.Millisecond, 1200 * time.Millisecond}
	if diff := cmp.Diff(want, clock.slept); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if got := l.Stats().Requests; got != 3 {
		t.Errorf("Expected 3 requests in window, got %d", got)
	}
}

func TestLimiter_RequestBudgetWaitsForRollover(t *testing.T) {
	l, clock := newTestLimiter(2, 0, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, 1); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}

	if diff := cmp.Diff([]time.Duration{time.Minute}, clock.slept); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if got := l.Stats().Requests; got != 1 {
		t.Errorf("Expected window to restart with 1 request, got %d", got)
	}
}

func TestLimiter_TokenBudgetWaitsForRollover(t *testing.T) {
	l, clock := newTestLimiter(0, 100, 0)
	ctx := context.Background()

	if err := l.Wait(ctx, 60); err != nil {
		t.Fatal(err)
	}
	if err := l.Wait(ctx, 60); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]time.Duration{time.Minute}, clock.slept); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if got := l.Stats().InputTokens; got != 60 {
		t.Errorf("Expected 60 input tokens in new window, got %d", got)
	}
}

func TestLimiter_OversizedRequestOnFreshWindow(t *testing.T) {
	l, clock := newTestLimiter(0, 100, 0)

	if err := l.Wait(context.Background(), 500); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 0 {
		t.Errorf("Expected no wait, got %v", clock.slept)
	}
}

func TestLimiter_RecordOutputTokens(t *testing.T) {
	l, _ := newTestLimiter(0, 0, 0)
	if err := l.Wait(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	l.Record(42)
	l.Record(8)

	if got := l.Stats().OutputTokens; got != 50 {
		t.Errorf("Expected 50 output tokens, got %d", got)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l, _ := newTestLimiter(1, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx, 1); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
