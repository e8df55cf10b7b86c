package invoke

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Blessan-Alex/MalRag/credentials"
)

const (
	// DefaultDelay is the fixed pause between attempts.
	DefaultDelay = time.Second
	// DefaultAttemptTimeout bounds a single provider attempt.
	DefaultAttemptTimeout = 60 * time.Second
)

// CredentialSource supplies the credential for each attempt and advances
// on failure. *credentials.Pool satisfies it.
type CredentialSource interface {
	Current() (string, bool)
	Rotate() (string, bool)
}

var _ CredentialSource = (*credentials.Pool)(nil)

// Operation performs exactly one attempt using credential.
type Operation[T any] func(ctx context.Context, credential string) (T, error)

// Invoker holds the retry policy shared by every call to one provider.
type Invoker struct {
	creds          CredentialSource
	name           string
	delay          time.Duration
	attemptTimeout time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// Option configures an Invoker.
type Option func(*Invoker) error

// WithDelay sets the fixed wait between attempts.
func WithDelay(d time.Duration) Option {
	return func(i *Invoker) error {
		if d < 0 {
			return ErrInvalidDelay
		}
		i.delay = d
		return nil
	}
}

// WithAttemptTimeout bounds each attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(i *Invoker) error {
		if d < 0 {
			return ErrInvalidDelay
		}
		i.attemptTimeout = d
		return nil
	}
}

// WithRateLimit throttles attempts to rps per second with the given burst.
// The limiter is shared by every call made through the invoker.
func WithRateLimit(rps float64, burst int) Option {
	return func(i *Invoker) error {
		if rps <= 0 || burst <= 0 {
			return ErrInvalidRateLimit
		}
		i.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithName labels log lines and errors with the provider name.
func WithName(name string) Option {
	return func(i *Invoker) error {
		i.name = name
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// New creates an Invoker drawing credentials from creds.
func New(creds CredentialSource, opts ...Option) (*Invoker, error) {
	if creds == nil {
		return nil, ErrNilCredentials
	}
	inv := &Invoker{
		creds:          creds,
		delay:          DefaultDelay,
		attemptTimeout: DefaultAttemptTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(inv); err != nil {
			return nil, err
		}
	}
	inv.logger = inv.logger.With("component", "invoker")
	if inv.name != "" {
		inv.logger = inv.logger.With("provider", inv.name)
	}
	return inv, nil
}

// Do runs op up to maxAttempts times. input describes the payload for logs
// and the final error; it must not contain secrets.
//
// The first successful result is returned immediately. After each failure
// the credential source is rotated and, if attempts remain, Do waits the
// configured delay. Rotation is never rolled back. Cancelling ctx stops
// retrying and returns ctx.Err().
func Do[T any](ctx context.Context, inv *Invoker, input string, maxAttempts int, op Operation[T]) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		return zero, ErrInvalidMaxAttempts
	}
	if _, ok := inv.creds.Current(); !ok {
		return zero, credentials.ErrNoCredential
	}

	var lastErr error
	var lastKey string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if inv.limiter != nil {
			if err := inv.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return zero, ctx.Err()
				}
				return zero, fmt.Errorf("rate limiter: %w", err)
			}
		}

		key, ok := inv.creds.Current()
		if !ok {
			return zero, credentials.ErrNoCredential
		}
		lastKey = key

		result, err := runAttempt(ctx, inv, key, op)
		if err == nil {
			if attempt > 1 {
				inv.logger.Debug("call succeeded after retry", "attempt", attempt, "input", input)
			}
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err

		next, _ := inv.creds.Rotate()
		inv.logger.Warn("call failed, rotating credential",
			"attempt", attempt,
			"maxAttempts", maxAttempts,
			"credential", credentials.Mask(key),
			"next", credentials.Mask(next),
			"input", input,
			"error", err)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		if inv.delay > 0 {
			timer := time.NewTimer(inv.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return zero, &ExhaustedError{
		Provider:         inv.name,
		Attempts:         maxAttempts,
		CredentialSuffix: credentials.Suffix(lastKey),
		Input:            input,
		Err:              lastErr,
	}
}

// runAttempt applies the per-attempt timeout. A timeout surfaces as a
// failed attempt, never as cancellation of the caller's context.
func runAttempt[T any](ctx context.Context, inv *Invoker, key string, op Operation[T]) (T, error) {
	if inv.attemptTimeout <= 0 {
		return op(ctx, key)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, inv.attemptTimeout)
	defer cancel()

	result, err := op(attemptCtx, key)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return result, fmt.Errorf("attempt timed out after %s: %w", inv.attemptTimeout, err)
	}
	return result, err
}
