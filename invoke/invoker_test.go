package invoke

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blessan-Alex/MalRag/credentials"
)

func newTestInvoker(t *testing.T, pool *credentials.Pool, opts ...Option) *Invoker {
	t.Helper()
	opts = append([]Option{WithDelay(time.Millisecond)}, opts...)
	inv, err := New(pool, opts...)
	require.NoError(t, err)
	return inv
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilCredentials)

	pool := credentials.NewPool([]string{"k"})
	_, err = New(pool, WithDelay(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidDelay)

	_, err = New(pool, WithAttemptTimeout(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidDelay)

	_, err = New(pool, WithRateLimit(0, 1))
	assert.ErrorIs(t, err, ErrInvalidRateLimit)
}

func TestDo_Success(t *testing.T) {
	inv := newTestInvoker(t, credentials.NewPool([]string{"K1", "K2"}))

	attempts := 0
	got, err := Do(context.Background(), inv, "test", 3, func(ctx context.Context, key string) (string, error) {
		attempts++
		return "ok:" + key, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok:K1", got)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestDo_EventualSuccessRotates(t *testing.T) {
	pool := credentials.NewPool([]string{"K1", "K2", "K3"})
	inv := newTestInvoker(t, pool)

	var used []string
	got, err := Do(context.Background(), inv, "test", 5, func(ctx context.Context, key string) (int, error) {
		used = append(used, key)
		if len(used) < 3 {
			return 0, errors.New("quota exceeded")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"K1", "K2", "K3"}, used)

	cur, _ := pool.Current()
	assert.Equal(t, "K3", cur, "successful credential stays current")
}

func TestDo_Exhausted(t *testing.T) {
	pool := credentials.NewPool([]string{"key-AAAA", "key-BBBB"})
	inv := newTestInvoker(t, pool, WithName("gemini"))

	underlying := errors.New("429 resource exhausted")
	var used []string
	_, err := Do(context.Background(), inv, "transcribe 2048 bytes", 3, func(ctx context.Context, key string) (string, error) {
		used = append(used, key)
		return "", underlying
	})

	require.Error(t, err)
	assert.Len(t, used, 3, "should attempt exactly maxAttempts times")
	assert.Equal(t, []string{"key-AAAA", "key-BBBB", "key-AAAA"}, used)
	assert.ErrorIs(t, err, underlying)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "AAAA", exhausted.CredentialSuffix)
	assert.Contains(t, err.Error(), "429 resource exhausted")
	assert.Contains(t, err.Error(), "transcribe 2048 bytes")
	assert.Contains(t, err.Error(), "gemini")
	assert.NotContains(t, err.Error(), "key-AAAA", "full credential must not leak")

	// Three failures on a pair of keys leaves the cursor advanced, not rolled back.
	cur, _ := pool.Current()
	assert.Equal(t, "key-BBBB", cur)
}

func TestDo_EmptyPoolFailsFast(t *testing.T) {
	inv := newTestInvoker(t, credentials.NewPool(nil))

	attempts := 0
	_, err := Do(context.Background(), inv, "test", 3, func(ctx context.Context, key string) (string, error) {
		attempts++
		return "", nil
	})

	assert.ErrorIs(t, err, credentials.ErrNoCredential)
	assert.Equal(t, 0, attempts)
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	inv := newTestInvoker(t, credentials.NewPool([]string{"k"}))

	for _, n := range []int{0, -1} {
		attempts := 0
		_, err := Do(context.Background(), inv, "test", n, func(ctx context.Context, key string) (string, error) {
			attempts++
			return "", nil
		})
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Equal(t, 0, attempts)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	inv := newTestInvoker(t, credentials.NewPool([]string{"k1", "k2"}))
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := Do(ctx, inv, "test", 10, func(ctx context.Context, key string) (string, error) {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return "", errors.New("error")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestDo_AttemptTimeoutIsRetryable(t *testing.T) {
	pool := credentials.NewPool([]string{"slow", "fast"})
	inv := newTestInvoker(t, pool, WithAttemptTimeout(20*time.Millisecond))

	got, err := Do(context.Background(), inv, "test", 2, func(ctx context.Context, key string) (string, error) {
		if key == "slow" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestDo_FixedDelayBetweenAttempts(t *testing.T) {
	inv := newTestInvoker(t, credentials.NewPool([]string{"k"}), WithDelay(15*time.Millisecond))

	start := time.Now()
	_, err := Do(context.Background(), inv, "test", 3, func(ctx context.Context, key string) (string, error) {
		return "", errors.New("fail")
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	// Two waits, none after the final attempt.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, 45*time.Millisecond+500*time.Millisecond)
}

func TestDo_ConcurrentCallsShareRotation(t *testing.T) {
	pool := credentials.NewPool([]string{"a", "b", "c"})
	inv := newTestInvoker(t, pool, WithDelay(0))

	var calls atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = Do(context.Background(), inv, "test", 2, func(ctx context.Context, key string) (string, error) {
				calls.Add(1)
				return "", errors.New("fail")
			})
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	assert.Equal(t, int32(40), calls.Load())
	_, ok := pool.Current()
	assert.True(t, ok)
}

func TestDo_RateLimit(t *testing.T) {
	inv := newTestInvoker(t, credentials.NewPool([]string{"k"}), WithRateLimit(50, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := Do(context.Background(), inv, "test", 1, func(ctx context.Context, key string) (int, error) {
			return i, nil
		})
		require.NoError(t, err)
	}

	// One token up front, then 20ms per token.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestDo_ShortCredentialNeverLeaks(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pool := credentials.NewPool([]string{"k9Zq"})
	inv := newTestInvoker(t, pool, WithLogger(logger))

	_, err := Do(context.Background(), inv, "x", 1, func(ctx context.Context, key string) (string, error) {
		return "", errors.New("boom")
	})

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "k9Zq")
	assert.Contains(t, logs.String(), "call failed")
	assert.NotContains(t, logs.String(), "k9Zq")
}
