package resilience

import (
	"context"
	"time"

	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/telemetry"
	"pathpilot-backend/internal/shared/util"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option customizes a single Execute call.
type Option func(*settings)

type settings struct {
	sleep   SleepFunc
	fields  map[string]any
	onRetry func(attempt int, wait time.Duration, err error)
}

// WithSleep replaces the wait implementation.
func WithSleep(fn SleepFunc) Option {
	return func(s *settings) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithFields adds fields to every event emitted by the call.
func WithFields(fields map[string]any) Option {
	return func(s *settings) {
		for k, v := range fields {
			s.fields[k] = v
		}
	}
}

// WithOnRetry registers a hook invoked before each backoff sleep.
func WithOnRetry(fn func(attempt int, wait time.Duration, err error)) Option {
	return func(s *settings) {
		s.onRetry = fn
	}
}

// Execute runs op until it succeeds, returns a non-retryable error, or the
// policy's attempts are used up. Failures come back as *FinalFailure.
func Execute[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}
	cfg := settings{sleep: sleepContext, fields: map[string]any{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := policy.Backoff(attempt)
			telemetry.Warn("api_call_retry", cfg.event(map[string]any{
				"policy":       policy.Name,
				"attempt":      attempt - 1,
				"next_attempt": attempt,
				"wait_ms":      wait.Milliseconds(),
				"error":        scrubbed(lastErr),
			}))
			if cfg.onRetry != nil {
				cfg.onRetry(attempt-1, wait, lastErr)
			}
			if err := cfg.sleep(ctx, wait); err != nil {
				return zero, cfg.fail(policy, attempt-1, false, err, start)
			}
		}

		val, err := op(ctx)
		if err == nil {
			telemetry.Info("api_call_succeeded", cfg.event(map[string]any{
				"policy":      policy.Name,
				"attempts":    attempt,
				"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			}))
			return val, nil
		}
		lastErr = err
		if !policy.retryable(err) {
			return zero, cfg.fail(policy, attempt, true, err, start)
		}
	}
	return zero, cfg.fail(policy, policy.MaxAttempts, false, lastErr, start)
}

func (s settings) fail(policy RetryPolicy, attempts int, permanent bool, err error, start time.Time) error {
	telemetry.Error("api_call_failed_all_retries", s.event(map[string]any{
		"policy":      policy.Name,
		"attempts":    attempts,
		"permanent":   permanent,
		"error":       scrubbed(err),
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	}))
	return &FinalFailure{Policy: policy.Name, Attempts: attempts, Permanent: permanent, Err: err}
}

func (s settings) event(fields map[string]any) map[string]any {
	for k, v := range s.fields {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return fields
}

func scrubbed(err error) string {
	return privacy.Scrub(util.SanitizeError(err))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
