// Package llmtest provides scripted generators for service tests.
package llmtest

import (
	"context"
	"sync"

	"pathpilot-backend/internal/llm"
)

// Scripted replays canned responses. Call i returns Errs[i] when set,
// otherwise Responses[i]; calls past the end repeat the last entry.
type Scripted struct {
	mu        sync.Mutex
	Responses []string
	Errs      []error
	prompts   []string
}

// Reply returns a generator that always answers with text.
func Reply(text ...string) *Scripted {
	return &Scripted{Responses: text}
}

// Failing returns a generator that always fails with err.
func Failing(err error) *Scripted {
	return &Scripted{Errs: []error{err}}
}

// Unavailable is a retryable upstream error.
var Unavailable = &llm.StatusError{Provider: "test", Code: 503, Body: "unavailable"}

// Generate implements llm.Generator.
func (s *Scripted) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)

	if i < len(s.Errs) && s.Errs[i] != nil {
		return "", s.Errs[i]
	}
	if i < len(s.Responses) {
		return s.Responses[i], nil
	}
	if len(s.Responses) == 0 {
		if len(s.Errs) > 0 {
			return "", s.Errs[len(s.Errs)-1]
		}
		return "", llm.ErrEmptyResponse
	}
	if len(s.Errs) > len(s.Responses) {
		return "", s.Errs[len(s.Errs)-1]
	}
	return s.Responses[len(s.Responses)-1], nil
}

// Model implements llm.Generator.
func (s *Scripted) Model() string { return "scripted" }

// Calls reports how many times Generate ran.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompt returns the i-th prompt received.
func (s *Scripted) Prompt(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.prompts) {
		return ""
	}
	return s.prompts[i]
}

var _ llm.Generator = (*Scripted)(nil)
