package invoke

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNilCredentials is returned by New when no credential source is given.
	ErrNilCredentials = errors.New("credential source cannot be nil")

	// ErrInvalidDelay is returned for a negative retry delay or timeout.
	ErrInvalidDelay = errors.New("delay cannot be negative")

	// ErrInvalidRateLimit is returned for a non-positive rate or burst.
	ErrInvalidRateLimit = errors.New("rate limit must be positive")
)

// ExhaustedError reports that every attempt of a provider call failed.
// Only the credential suffix is retained.
type ExhaustedError struct {
	Provider         string
	Attempts         int
	CredentialSuffix string
	Input            string
	Err              error
}

func (e *ExhaustedError) Error() string {
	name := e.Provider
	if name == "" {
		name = "provider call"
	}
	return fmt.Sprintf("%s failed after %d attempts (credential ...%s, input: %s): %v",
		name, e.Attempts, e.CredentialSuffix, e.Input, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
