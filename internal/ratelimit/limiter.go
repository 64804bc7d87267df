package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces the per-process request and input-token budgets of the
// inference oracle, plus a minimum spacing between consecutive requests
type Limiter struct {
	mu sync.Mutex

	requestsPerMinute    int
	inputTokensPerMinute int
	window               time.Duration
	spacing              *rate.Limiter

	windowStart  time.Time
	requests     int // requests in the current window
	inputTokens  int // estimated input tokens in the current window
	outputTokens int // output tokens in the current window
	lastRequest  time.Time

	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger
}

// Stats is a snapshot of the current window
type Stats struct {
	Requests     int
	InputTokens  int
	OutputTokens int
	WindowStart  time.Time
	LastRequest  time.Time
}

// NewLimiter creates a limiter. Zero budgets disable the matching check
func NewLimiter(requestsPerMinute, inputTokensPerMinute int, minInterval, window time.Duration, logger *slog.Logger) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	return &Limiter{
		requestsPerMinute:    requestsPerMinute,
		inputTokensPerMinute: inputTokensPerMinute,
		window:               window,
		spacing:              rate.NewLimiter(limit, 1),
		now:                  time.Now,
		sleep:                sleepContext,
		logger:               logger,
	}
}

// EstimateTokens approximates a token count as ceil(bytes/4)
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Wait blocks until a request carrying inputTokens may be sent, then
// counts it against the current window
func (l *Limiter) Wait(ctx context.Context, inputTokens int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.now()
		l.rollover(now)

		if l.requestsPerMinute > 0 && l.requests >= l.requestsPerMinute {
			wait := l.windowStart.Add(l.window).Sub(now)
			l.mu.Unlock()
			l.logger.Info("request budget exhausted, waiting for window rollover",
				slog.Int("requests", l.requestsPerMinute),
				slog.Duration("wait", wait))
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		// A single oversized request on a fresh window is let through
		if l.inputTokensPerMinute > 0 && l.inputTokens > 0 && l.inputTokens+inputTokens > l.inputTokensPerMinute {
			wait := l.windowStart.Add(l.window).Sub(now)
			used := l.inputTokens
			l.mu.Unlock()
			l.logger.Info("input token budget exhausted, waiting for window rollover",
				slog.Int("used", used),
				slog.Int("requested", inputTokens),
				slog.Duration("wait", wait))
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		delay := l.spacing.ReserveN(now, 1).DelayFrom(now)
		l.requests++
		l.inputTokens += inputTokens
		l.lastRequest = now.Add(delay)
		l.mu.Unlock()

		if delay > 0 {
			l.logger.Debug("spacing request", slog.Duration("delay", delay))
			return l.sleep(ctx, delay)
		}
		return nil
	}
}

// Record adds the output tokens of a completed request to the window
func (l *Limiter) Record(outputTokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(l.now())
	l.outputTokens += outputTokens
}

// Stats returns a snapshot of the current window
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Requests:     l.requests,
		InputTokens:  l.inputTokens,
		OutputTokens: l.outputTokens,
		WindowStart:  l.windowStart,
		LastRequest:  l.lastRequest,
	}
}

// rollover starts a new window once the current one has elapsed. Caller holds mu
func (l *Limiter) rollover(now time.Time) {
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.requests = 0
		l.inputTokens = 0
		l.outputTokens = 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
