package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/incidentcheck/internal/llm"
)

// Caller sends oracle requests through the limiter with the retry policy.
// It is shared by the statement extractor and the fact verifier.
type Caller struct {
	provider       llm.Provider
	limiter        *Limiter
	policy         RetryPolicy
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// NewCaller composes a provider with a limiter and retry policy.
// A nil limiter disables budgeting; attemptTimeout <= 0 disables the per-attempt deadline.
func NewCaller(provider llm.Provider, limiter *Limiter, policy RetryPolicy, attemptTimeout time.Duration, logger *slog.Logger) *Caller {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Caller{
		provider:       provider,
		limiter:        limiter,
		policy:         policy,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

// Provider returns the wrapped provider
func (c *Caller) Provider() llm.Provider {
	return c.provider
}

// Call sends req, waiting for budget before every attempt
func (c *Caller) Call(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	inputTokens := EstimateTokens(req.System) + EstimateTokens(req.Prompt)

	var resp *llm.CompletionResponse
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, inputTokens); err != nil {
				return err
			}
		}

		attemptCtx := ctx
		if c.attemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
			defer cancel()
		}

		started := time.Now()
		r, err := c.provider.Complete(attemptCtx, req)
		if err != nil {
			return err
		}

		if c.limiter != nil {
			out := r.OutputTokens
			if out == 0 {
				out = EstimateTokens(r.Text)
			}
			c.limiter.Record(out)
		}
		c.logger.Debug("oracle call completed",
			slog.String("provider", c.provider.Name()),
			slog.Duration("duration", time.Since(started)),
			slog.Int("input_tokens", r.InputTokens),
			slog.Int("output_tokens", r.OutputTokens))

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
