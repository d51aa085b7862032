// Package resilience wraps calls to unreliable upstreams in bounded retry with
// exponential backoff.
package resilience

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryPolicy describes how many times an operation is attempted and how long
// to wait between attempts. Treat values as immutable once built.
type RetryPolicy struct {
	Name        string
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	// Retryable decides whether an error earns another attempt. Nil means IsTransient.
	Retryable func(error) bool
}

// GeminiPolicy is used for primary generative model calls: immediate, +1s, +2s, capped at 8s.
func GeminiPolicy() RetryPolicy {
	return RetryPolicy{
		Name:        "gemini",
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     8 * time.Second,
		Multiplier:  2,
		Retryable:   IsTransient,
	}
}

// VoicePolicy is used for speech synthesis calls, which are cheaper and faster to fail.
// No speech client exists yet; the policy is kept for when one is added.
func VoicePolicy() RetryPolicy {
	return RetryPolicy{
		Name:        "voice",
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2,
		Retryable:   IsTransient,
	}
}

// Validate reports a malformed policy.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return errors.New("retry policy: max attempts must be at least 1")
	case p.InitialWait <= 0:
		return errors.New("retry policy: initial wait must be positive")
	case p.MaxWait < p.InitialWait:
		return fmt.Errorf("retry policy: max wait %s below initial wait %s", p.MaxWait, p.InitialWait)
	case p.Multiplier < 1:
		return errors.New("retry policy: multiplier must be at least 1")
	}
	return nil
}

// Backoff returns the wait before the given 1-based attempt.
// Attempt 1 never waits; attempt n waits min(MaxWait, InitialWait*Multiplier^(n-2)).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	wait := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(attempt-2))
	if wait > float64(p.MaxWait) || math.IsInf(wait, 1) {
		return p.MaxWait
	}
	return time.Duration(wait)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsTransient(err)
	}
	return p.Retryable(err)
}

// FinalFailure is returned once an operation will not be attempted again.
type FinalFailure struct {
	Policy   string
	Attempts int
	// Permanent is set when the last error was not retryable, as opposed to
	// every allowed attempt having been used.
	Permanent bool
	Err       error
}

func (f *FinalFailure) Error() string {
	if f.Permanent {
		return fmt.Sprintf("%s: non-retryable failure after %d attempt(s): %v", f.Policy, f.Attempts, f.Err)
	}
	return fmt.Sprintf("%s: all %d attempts failed: %v", f.Policy, f.Attempts, f.Err)
}

func (f *FinalFailure) Unwrap() error {
	return f.Err
}

// IsFinalFailure reports whether err carries a FinalFailure.
func IsFinalFailure(err error) bool {
	var ff *FinalFailure
	return errors.As(err, &ff)
}
