package artifact

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusGenerating, true},
		{StatusGenerating, StatusAnalyzed, true},
		{StatusGenerating, StatusReady, true},
		{StatusGenerating, StatusGenerated, true},
		{StatusGenerating, StatusFailed, true},
		{StatusReady, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusInProgress, true},
		{StatusPending, StatusAnalyzed, false},
		{StatusFailed, StatusReady, false},
		{StatusFailed, StatusGenerating, false},
		{StatusAnalyzed, StatusFailed, false},
		{StatusCompleted, StatusInProgress, false},
	}
	for _, tt := range tests {
		err := Transition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestRegenerate(t *testing.T) {
	for _, s := range []Status{StatusFailed, StatusAnalyzed, StatusGenerated, StatusReady, StatusPending} {
		if err := Regenerate(s); err != nil {
			t.Fatalf("Regenerate(%s): %v", s, err)
		}
	}
	for _, s := range []Status{StatusGenerating, StatusInProgress, StatusCompleted} {
		if err := Regenerate(s); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Regenerate(%s): expected ErrInvalidTransition, got %v", s, err)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(StatusGenerating) || IsTerminal(StatusReady) {
		t.Fatalf("generating and ready are not terminal")
	}
	if !IsTerminal(StatusFailed) || !IsTerminal(StatusAnalyzed) {
		t.Fatalf("failed and analyzed are terminal")
	}
	if Status("bogus").Valid() {
		t.Fatalf("unknown status reported valid")
	}
}
