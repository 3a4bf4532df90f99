package llm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingClient fails a fixed number of times before succeeding.
type countingClient struct {
	failures int32
	err      error
	calls    atomic.Int32
}

func (c *countingClient) Complete(_ context.Context, _ string, _ Config) (string, error) {
	n := c.calls.Add(1)
	if n <= atomic.LoadInt32(&c.failures) {
		return "", c.err
	}
	return "ok", nil
}

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestWithRetry(t *testing.T) {
	cfg := DefaultConfig("mock", "m")
	ctx := context.Background()

	t.Run("retries retryable failures until success", func(t *testing.T) {
		inner := &countingClient{failures: 2, err: NewTransportError("mock", "flaky")}
		client := WithRetry(inner, fastPolicy(3), nil)

		reply, err := client.Complete(ctx, "p", cfg)
		require.NoError(t, err)
		assert.Equal(t, "ok", reply)
		assert.Equal(t, int32(3), inner.calls.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		inner := &countingClient{failures: 10, err: NewRateLimitError("mock", "slow down", 0)}
		client := WithRetry(inner, fastPolicy(3), nil)

		_, err := client.Complete(ctx, "p", cfg)
		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, ErrorTypeRateLimit, provErr.Type)
		assert.Equal(t, int32(3), inner.calls.Load())
	})

	t.Run("auth failures are not retried", func(t *testing.T) {
		inner := &countingClient{failures: 10, err: NewAuthError("mock", "bad key")}
		client := WithRetry(inner, fastPolicy(5), nil)

		_, err := client.Complete(ctx, "p", cfg)
		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, ErrorTypeAuth, provErr.Type)
		assert.Equal(t, int32(1), inner.calls.Load(), "non-retryable error must surface immediately")
	})

	t.Run("non-provider errors are not retried", func(t *testing.T) {
		inner := &countingClient{failures: 10, err: context.Canceled}
		client := WithRetry(inner, fastPolicy(5), nil)

		_, err := client.Complete(ctx, "p", cfg)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), inner.calls.Load())
	})

	t.Run("cancellation interrupts the backoff wait", func(t *testing.T) {
		inner := &countingClient{failures: 10, err: NewTransportError("mock", "down")}
		policy := RetryPolicy{MaxAttempts: 3, InitialInterval: time.Minute, MaxInterval: time.Minute}
		client := WithRetry(inner, policy, nil)

		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		_, err := client.Complete(cancelCtx, "p", cfg)
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}

func TestRetryBackoff(t *testing.T) {
	t.Run("retry-after takes precedence", func(t *testing.T) {
		r := &retryClient{policy: fastPolicy(3)}
		provErr := NewRateLimitError("mock", "slow down", 2)
		assert.Equal(t, 2*time.Second, r.backoff(1, provErr))
	})

	t.Run("backoff grows and caps without jitter", func(t *testing.T) {
		r := &retryClient{policy: RetryPolicy{
			MaxAttempts:     5,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     300 * time.Millisecond,
			Multiplier:      2.0,
		}}
		provErr := NewTransportError("mock", "down")

		assert.Equal(t, 100*time.Millisecond, r.backoff(1, provErr))
		assert.Equal(t, 200*time.Millisecond, r.backoff(2, provErr))
		assert.Equal(t, 300*time.Millisecond, r.backoff(3, provErr))
		assert.Equal(t, 300*time.Millisecond, r.backoff(4, provErr))
	})

	t.Run("jitter stays within the computed backoff", func(t *testing.T) {
		r := &retryClient{policy: RetryPolicy{
			MaxAttempts:     3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2.0,
			UseJitter:       true,
		}}
		provErr := NewTransportError("mock", "down")

		for i := 0; i < 50; i++ {
			d := r.backoff(2, provErr)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, 200*time.Millisecond)
		}
	})
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		want       ErrorType
	}{
		{"429 maps to rate limit", 429, "", ErrorTypeRateLimit},
		{"401 maps to auth", 401, "", ErrorTypeAuth},
		{"403 maps to auth", 403, "", ErrorTypeAuth},
		{"408 maps to timeout", 408, "", ErrorTypeTimeout},
		{"504 maps to timeout", 504, "", ErrorTypeTimeout},
		{"500 maps to transport", 500, "", ErrorTypeTransport},
		{"503 maps to transport", 503, "", ErrorTypeTransport},
		{"code beats status", 500, "rate_limit_exceeded", ErrorTypeRateLimit},
		{"auth code beats status", 500, "unauthorized", ErrorTypeAuth},
		{"timeout code beats status", 500, "request_timeout", ErrorTypeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.statusCode, tt.errorCode))
		})
	}
}
