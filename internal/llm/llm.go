package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Generator abstracts a text-generation provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ErrNotConfigured is returned when no provider credentials are available.
var ErrNotConfigured = errors.New("llm provider not configured")

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("llm returned empty response")

// StatusError carries a provider's non-2xx HTTP status.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s http status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Code, body)
}

// HTTPStatus exposes the status code to retry classification.
func (e *StatusError) HTTPStatus() int {
	return e.Code
}

// Unconfigured is the Generator used when no provider key is set.
type Unconfigured struct {
	Provider string
}

// Generate returns ErrNotConfigured.
func (u Unconfigured) Generate(context.Context, string) (string, error) {
	if u.Provider == "" {
		return "", ErrNotConfigured
	}
	return "", fmt.Errorf("%s: %w", u.Provider, ErrNotConfigured)
}

// Model returns an empty model name.
func (Unconfigured) Model() string { return "" }

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Model reports a fixed name for function-backed generators.
func (GeneratorFunc) Model() string { return "func" }

// WithTimeout bounds each Generate call on g. A non-positive d returns g.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return timeoutGenerator{Generator: g, timeout: d}
}

type timeoutGenerator struct {
	Generator
	timeout time.Duration
}

func (t timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Generator.Generate(ctx, prompt)
}
