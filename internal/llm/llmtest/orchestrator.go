package llmtest

import (
	"context"
	"time"

	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/orchestrator"
)

// NoSleep skips backoff waits.
func NoSleep(context.Context, time.Duration) error { return nil }

// Orchestrator returns an orchestrator over gen that does not wait between
// retries.
func Orchestrator(gen llm.Generator) *orchestrator.Orchestrator {
	o := orchestrator.New(gen)
	o.Sleep = NoSleep
	return o
}
