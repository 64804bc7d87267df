package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ppiankov/incidentcheck/internal/llm"
)

// ErrRetryBudgetExhausted wraps the last error once attempts or total time run out
var ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

// Injectable for tests
var (
	retrySleepFunc  = sleepContext
	retryNowFunc    = time.Now
	retryJitterFunc = func(limit time.Duration) time.Duration {
		if limit <= 0 {
			return 0
		}
		return time.Duration(rand.Int64N(int64(limit) + 1))
	}
)

// RetryPolicy retries transient oracle failures with exponential backoff and jitter.
//
// Ordinary transient errors (timeouts, 5xx, resets) get at most MaxAttempts tries.
// Overload answers (429, 503, 529) are retried until MaxTotal has elapsed, so a
// busy oracle is waited out instead of failing after a few seconds.
type RetryPolicy struct {
	MaxAttempts int           // Tries for ordinary transient errors, including the first
	BaseDelay   time.Duration // Delay after the first failure
	MaxDelay    time.Duration // Cap on the exponential delay, before jitter
	Multiplier  float64       // Growth factor between attempts
	Jitter      time.Duration // Upper bound of the random delay added to each wait
	MaxTotal    time.Duration // Wall-clock budget for the whole call, 0 = unbounded
	Logger      *slog.Logger
}

// DefaultRetryPolicy returns 3 attempts, 1s doubling to 8s, 1s jitter, 60s total
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
		Multiplier:  2,
		Jitter:      time.Second,
		MaxTotal:    60 * time.Second,
	}
}

// Backoff returns the delay before retry number attempt (1-based), without jitter
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}

	delay := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= mult
		if p.MaxDelay > 0 && delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Do runs fn until it succeeds, fails permanently, or the budget runs out.
// Only errors for which llm.IsTransient holds are retried.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := retryNowFunc()
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !llm.IsTransient(err) {
			return err
		}
		// The caller's own deadline or cancellation ends the loop
		if ctx.Err() != nil {
			return err
		}

		overloaded := llm.IsOverloaded(err) || llm.IsRateLimited(err)
		attemptsLeft := p.MaxAttempts <= 0 || attempt < p.MaxAttempts
		if overloaded && p.MaxTotal > 0 {
			attemptsLeft = true
		}
		if !attemptsLeft {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetryBudgetExhausted, attempt, err)
		}

		delay := p.Backoff(attempt) + retryJitterFunc(p.Jitter)
		elapsed := retryNowFunc().Sub(start)
		if p.MaxTotal > 0 && elapsed+delay > p.MaxTotal {
			return fmt.Errorf("%w after %d attempts in %s: %w", ErrRetryBudgetExhausted, attempt, elapsed.Round(time.Millisecond), err)
		}

		logger.Warn("transient oracle failure, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Bool("overloaded", overloaded),
			slog.String("error", err.Error()))

		if sleepErr := retrySleepFunc(ctx, delay); sleepErr != nil {
			return fmt.Errorf("retry wait interrupted: %w", sleepErr)
		}
	}
}
