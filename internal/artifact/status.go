// Package artifact holds the lifecycle shared by every model-produced record.
package artifact

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a generated artifact.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusAnalyzed   Status = "analyzed"
	StatusReady      Status = "ready"
	StatusGenerated  Status = "generated"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrInvalidTransition is returned for a move the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	StatusPending:    {StatusGenerating, StatusFailed},
	StatusGenerating: {StatusAnalyzed, StatusReady, StatusGenerated, StatusFailed},
	StatusReady:      {StatusInProgress, StatusGenerating},
	StatusInProgress: {StatusInProgress, StatusCompleted},
}

// retryable states may only re-enter generating through an explicit new attempt.
var retryable = map[Status]bool{
	StatusFailed:    true,
	StatusAnalyzed:  true,
	StatusGenerated: true,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusGenerating, StatusAnalyzed, StatusReady,
		StatusGenerated, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is allowed without a new attempt.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to.
func Transition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Regenerate validates the move back to generating for an explicit new attempt.
func Regenerate(from Status) error {
	if retryable[from] || CanTransition(from, StatusGenerating) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StatusGenerating)
}

// IsTerminal reports whether no further automatic transition leaves s.
func IsTerminal(s Status) bool {
	switch s {
	case StatusAnalyzed, StatusGenerated, StatusCompleted, StatusFailed:
		return true
	}
	return false
}
