package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pathpilot-backend/internal/shared/telemetry"
)

var errFlaky = errors.New("upstream unavailable")

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func failNTimes(n int, calls *int) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		*calls++
		if *calls <= n {
			return "", errFlaky
		}
		return "ok", nil
	}
}

func TestExecuteSucceedsAfterTransientFailures(t *testing.T) {
	policy := GeminiPolicy()
	for k := 0; k < policy.MaxAttempts; k++ {
		t.Run(fmt.Sprintf("fails_%d", k), func(t *testing.T) {
			var calls int
			sleeper := &recordingSleeper{}
			got, err := Execute(context.Background(), policy, failNTimes(k, &calls), WithSleep(sleeper.sleep))
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got != "ok" {
				t.Fatalf("expected ok, got %q", got)
			}
			if calls != k+1 {
				t.Fatalf("expected %d calls, got %d", k+1, calls)
			}
			if len(sleeper.waits) != k {
				t.Fatalf("expected %d waits, got %d", k, len(sleeper.waits))
			}
		})
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	policy := GeminiPolicy()
	var calls int
	sleeper := &recordingSleeper{}
	_, err := Execute(context.Background(), policy, failNTimes(10, &calls), WithSleep(sleeper.sleep))

	var ff *FinalFailure
	if !errors.As(err, &ff) {
		t.Fatalf("expected FinalFailure, got %T %v", err, err)
	}
	if ff.Attempts != 3 || ff.Permanent {
		t.Fatalf("unexpected failure: %+v", ff)
	}
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteBackoffSchedule(t *testing.T) {
	policy := RetryPolicy{Name: "test", MaxAttempts: 6, InitialWait: time.Second, MaxWait: 8 * time.Second, Multiplier: 2, Retryable: RetryAll}
	var calls int
	sleeper := &recordingSleeper{}
	_, _ = Execute(context.Background(), policy, failNTimes(10, &calls), WithSleep(sleeper.sleep))

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	if len(sleeper.waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), sleeper.waits)
	}
	for i := range want {
		if sleeper.waits[i] != want[i] {
			t.Fatalf("wait before attempt %d = %s, want %s", i+2, sleeper.waits[i], want[i])
		}
	}
}

func TestBackoff(t *testing.T) {
	voice := VoicePolicy()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 0},
		{attempt: 2, want: 500 * time.Millisecond},
		{attempt: 3, want: time.Second},
		{attempt: 5, want: 4 * time.Second},
		{attempt: 6, want: 5 * time.Second},
		{attempt: 60, want: 5 * time.Second},
	}
	for _, tt := range tests {
		if got := voice.Backoff(tt.attempt); got != tt.want {
			t.Fatalf("Backoff(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestExecuteSingleAttemptPolicy(t *testing.T) {
	policy := GeminiPolicy()
	policy.MaxAttempts = 1
	var calls int
	sleeper := &recordingSleeper{}
	_, err := Execute(context.Background(), policy, failNTimes(1, &calls), WithSleep(sleeper.sleep))
	if !IsFinalFailure(err) {
		t.Fatalf("expected FinalFailure, got %v", err)
	}
	if calls != 1 || len(sleeper.waits) != 0 {
		t.Fatalf("expected one call and no waits, got calls=%d waits=%v", calls, sleeper.waits)
	}
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	validation := errors.New("prompt must not be empty")
	var calls int
	_, err := Execute(context.Background(), GeminiPolicy(), func(ctx context.Context) (int, error) {
		calls++
		return 0, validation
	}, WithSleep((&recordingSleeper{}).sleep))

	var ff *FinalFailure
	if !errors.As(err, &ff) || !ff.Permanent {
		t.Fatalf("expected permanent FinalFailure, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestExecuteHonoursCancellationDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Execute(ctx, GeminiPolicy(), func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errFlaky
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call before cancellation, got %d", calls)
	}
}

func TestExecuteRejectsInvalidPolicy(t *testing.T) {
	_, err := Execute(context.Background(), RetryPolicy{MaxAttempts: 0}, func(ctx context.Context) (int, error) {
		t.Fatal("operation must not run")
		return 0, nil
	})
	if err == nil || IsFinalFailure(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteEmitsRetryAndTerminalEvents(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	prev := telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(prev) })

	var calls int
	sleeper := &recordingSleeper{}
	_, err := Execute(context.Background(), GeminiPolicy(), failNTimes(1, &calls),
		WithSleep(sleeper.sleep),
		WithFields(map[string]any{"operation": "analyze_resume"}),
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	retries := observed.FilterMessage("api_call_retry").All()
	if len(retries) != 1 {
		t.Fatalf("expected 1 retry event, got %d", len(retries))
	}
	fields := retries[0].ContextMap()
	if fields["wait_ms"] != int64(1000) || fields["operation"] != "analyze_resume" {
		t.Fatalf("unexpected retry fields: %v", fields)
	}
	if n := observed.FilterMessage("api_call_succeeded").Len(); n != 1 {
		t.Fatalf("expected 1 success event, got %d", n)
	}
}

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("http status %d", int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "429", err: statusErr(http.StatusTooManyRequests), want: true},
		{name: "503", err: statusErr(http.StatusServiceUnavailable), want: true},
		{name: "400", err: statusErr(http.StatusBadRequest), want: false},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "programming error", err: errors.New("prompt must not be empty"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	bad := []RetryPolicy{
		{MaxAttempts: 0, InitialWait: time.Second, MaxWait: time.Second, Multiplier: 1},
		{MaxAttempts: 1, InitialWait: 0, MaxWait: time.Second, Multiplier: 1},
		{MaxAttempts: 1, InitialWait: 2 * time.Second, MaxWait: time.Second, Multiplier: 1},
		{MaxAttempts: 1, InitialWait: time.Second, MaxWait: time.Second, Multiplier: 0.5},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("policy %d: expected validation error", i)
		}
	}
	if err := GeminiPolicy().Validate(); err != nil {
		t.Fatalf("gemini policy invalid: %v", err)
	}
}
