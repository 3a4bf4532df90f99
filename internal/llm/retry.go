package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Retry policy defaults.
const (
	DefaultRetryMaxAttempts     = 3
	DefaultRetryInitialInterval = 250 * time.Millisecond
	DefaultRetryMaxInterval     = 5 * time.Second
	DefaultRetryMultiplier      = 2.0
)

// RetryPolicy controls the optional retry hook. Retry is the caller's
// responsibility: a bare Client never retries; wrap it with WithRetry to
// apply a policy.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int `json:"max_attempts" validate:"min=1"`

	// InitialInterval is the backoff before the first retry.
	InitialInterval time.Duration `json:"initial_interval"`

	// MaxInterval caps the exponential backoff.
	MaxInterval time.Duration `json:"max_interval"`

	// Multiplier grows the interval between attempts.
	Multiplier float64 `json:"multiplier"`

	// UseJitter randomizes each delay in [0, backoff] to spread retries.
	UseJitter bool `json:"use_jitter"`
}

// DefaultRetryPolicy returns the standard exponential backoff policy with
// full jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     DefaultRetryMaxAttempts,
		InitialInterval: DefaultRetryInitialInterval,
		MaxInterval:     DefaultRetryMaxInterval,
		Multiplier:      DefaultRetryMultiplier,
		UseJitter:       true,
	}
}

// retryClient wraps a Client with a RetryPolicy.
type retryClient struct {
	inner  Client
	policy RetryPolicy
	logger *slog.Logger
}

// WithRetry wraps client so that retryable provider failures are retried
// under the given policy. Non-retryable failures (auth, schema-level, context
// cancellation) surface immediately. A provider-supplied Retry-After delay
// takes precedence over the computed backoff.
func WithRetry(client Client, policy RetryPolicy, logger *slog.Logger) Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retryClient{inner: client, policy: policy, logger: logger}
}

// Complete attempts the call up to MaxAttempts times.
func (r *retryClient) Complete(ctx context.Context, prompt string, cfg Config) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		reply, err := r.inner.Complete(ctx, prompt, cfg)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		var provErr *ProviderError
		if !errors.As(err, &provErr) || !provErr.IsRetryable() {
			return "", err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.backoff(attempt, provErr)
		r.logger.Warn("retrying provider call",
			"provider", cfg.Provider,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// backoff computes the delay before the next attempt: exponential growth
// capped at MaxInterval, full jitter when enabled, overridden by a
// provider-suggested Retry-After.
func (r *retryClient) backoff(attempt int, provErr *ProviderError) time.Duration {
	if after := provErr.GetRetryAfter(); after > 0 {
		return after
	}

	base := r.policy.InitialInterval
	if base <= 0 {
		base = time.Millisecond // prevent hot looping
	}
	for i := 1; i < attempt; i++ {
		multiplier := r.policy.Multiplier
		if multiplier < 1.0 {
			multiplier = 1.0
		}
		base = time.Duration(float64(base) * multiplier)
		if base > r.policy.MaxInterval {
			base = r.policy.MaxInterval
			break
		}
	}

	if r.policy.UseJitter {
		// Full jitter: random in [0, base]. Non-cryptographic rand is fine here.
		jitterMs := rand.Int64N(base.Milliseconds() + 1)
		return time.Duration(jitterMs) * time.Millisecond
	}
	return base
}
