package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	prev := SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })

	Info("api_call_started", map[string]any{"operation": "analyze_resume", "attempt": 1})
	Error("api_call_failed_all_retries", map[string]any{"error": errors.New("boom")})

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "api_call_started" {
		t.Fatalf("unexpected message: %s", entries[0].Message)
	}
	if got := entries[0].ContextMap()["operation"]; got != "analyze_resume" {
		t.Fatalf("unexpected operation field: %v", got)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error rendered as string, got %v", got)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestOwnerField(t *testing.T) {
	if got := OwnerField(42); got != "user-42" {
		t.Fatalf("unexpected owner field: %s", got)
	}
}
