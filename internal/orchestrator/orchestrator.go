// Package orchestrator drives one model-produced artifact through cache
// lookup, retried generation, normalization and persistence callbacks.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/normalize"
	"pathpilot-backend/internal/resilience"
	"pathpilot-backend/internal/resultcache"
	"pathpilot-backend/internal/shared/metrics"
	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/telemetry"
	"pathpilot-backend/internal/shared/util"
)

// Output selects how raw model text is interpreted.
type Output int

const (
	// OutputObject normalizes a JSON object against Request.Schema.
	OutputObject Output = iota
	// OutputList normalizes a JSON array of Request.Schema elements.
	OutputList
	// OutputText keeps the text with code fences removed.
	OutputText
)

// Request describes one artifact production.
type Request struct {
	Owner     int64
	Operation string
	// Fingerprint enables cache lookup and storage when set.
	Fingerprint string
	Cache       *resultcache.Cache
	// Refresh skips the cache lookup for an explicit new attempt. A usable
	// result still replaces the cache entry.
	Refresh bool
	// Success is the status reported after a usable result. Defaults to ready.
	Success artifact.Status

	Output Output
	Schema normalize.Schema
	Limit  int

	// Begin persists the generating state before any model call.
	Begin func(ctx context.Context) error
	// Prompt builds the prompt once the record exists.
	Prompt func(ctx context.Context) (string, error)
	// Complete persists the terminal success state and returns the artifact id
	// used for the cache entry.
	Complete func(ctx context.Context, out Outcome) (string, error)
	// Fail persists the failed state.
	Fail func(ctx context.Context, err error)
}

// Outcome is the normalized result of a production.
type Outcome struct {
	Status     artifact.Status
	Values     map[string]any
	Items      []map[string]any
	Text       string
	Fallback   bool
	ParseError string
	Preview    string
	Backfilled []string
	Cached     bool
	CachedFrom string
	Model      string
	Attempts   int
}

// GenerationError reports that the model call failed after all retries.
type GenerationError struct {
	Operation string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Operation, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Orchestrator composes the retrier, normalizer and result cache.
type Orchestrator struct {
	Generator llm.Generator
	Policy    resilience.RetryPolicy
	// Sleep overrides backoff waits, mainly for tests.
	Sleep resilience.SleepFunc
}

// New returns an Orchestrator using the primary model retry policy.
func New(gen llm.Generator) *Orchestrator {
	return &Orchestrator{Generator: gen, Policy: resilience.GeminiPolicy()}
}

type generation struct {
	raw      string
	attempts int
}

// Produce runs the request. A cache hit returns without calling the model.
// Retry exhaustion returns *GenerationError; malformed output never errors.
func (o *Orchestrator) Produce(ctx context.Context, req Request) (Outcome, error) {
	if o.Generator == nil {
		return Outcome{}, errors.New("orchestrator: generator is required")
	}
	if req.Prompt == nil {
		return Outcome{}, errors.New("orchestrator: prompt builder is required")
	}
	success := req.Success
	if success == "" {
		success = artifact.StatusReady
	}

	if req.Fingerprint != "" && req.Cache != nil && !req.Refresh {
		entry, err := req.Cache.Lookup(ctx, req.Owner, req.Fingerprint)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s: cache lookup: %w", req.Operation, err)
		}
		if entry != nil {
			return Outcome{Status: success, Values: entry.Payload, Cached: true, CachedFrom: entry.ArtifactID}, nil
		}
	}

	if req.Begin != nil {
		if err := req.Begin(ctx); err != nil {
			return Outcome{}, err
		}
	}

	prompt, err := req.Prompt(ctx)
	if err != nil {
		o.fail(ctx, req, err)
		return Outcome{}, err
	}

	telemetry.Info("api_call_started", map[string]any{
		"operation":     req.Operation,
		"user_id":       telemetry.OwnerField(req.Owner),
		"prompt_length": len(prompt),
		"model":         o.Generator.Model(),
		"request_id":    telemetry.RequestIDFromContext(ctx),
	})

	var gen generation
	if req.Cache != nil {
		// Coalesced callers share this call, so it must outlive the first
		// caller's cancellation. Each attempt is still bounded by the
		// provider timeout.
		shared := context.WithoutCancel(ctx)
		v, _, err := req.Cache.Do(req.Owner, req.Fingerprint, func() (any, error) {
			return o.generate(shared, req, prompt)
		})
		if err != nil {
			o.fail(ctx, req, err)
			return Outcome{}, &GenerationError{Operation: req.Operation, Err: err}
		}
		gen = v.(generation)
	} else {
		gen, err = o.generate(ctx, req, prompt)
		if err != nil {
			o.fail(ctx, req, err)
			return Outcome{}, &GenerationError{Operation: req.Operation, Err: err}
		}
	}

	out := o.interpret(req, gen.raw)
	out.Status = success
	out.Model = o.Generator.Model()
	out.Attempts = gen.attempts
	if out.Fallback {
		metrics.IncNormalizeFallback()
		telemetry.Warn("normalize_fallback_used", map[string]any{
			"operation":   req.Operation,
			"user_id":     telemetry.OwnerField(req.Owner),
			"parse_error": privacy.Scrub(out.ParseError),
			"preview":     out.Preview,
		})
	} else if len(out.Backfilled) > 0 {
		telemetry.Info("normalize_fields_backfilled", map[string]any{
			"operation": req.Operation,
			"fields":    out.Backfilled,
		})
	}

	artifactID := ""
	if req.Complete != nil {
		artifactID, err = req.Complete(ctx, out)
		if err != nil {
			o.fail(ctx, req, err)
			return Outcome{}, err
		}
	}

	if req.Fingerprint != "" && req.Cache != nil && !out.Fallback && len(out.Values) > 0 {
		entry := resultcache.Entry{
			OwnerID:     req.Owner,
			Fingerprint: req.Fingerprint,
			ArtifactID:  artifactID,
			Payload:     out.Values,
		}
		if err := req.Cache.Store(ctx, entry); err != nil {
			telemetry.Error("cache_store_failed", map[string]any{
				"operation": req.Operation,
				"user_id":   telemetry.OwnerField(req.Owner),
				"error":     privacy.Scrub(util.SanitizeError(err)),
			})
		}
	}
	return out, nil
}

func (o *Orchestrator) generate(ctx context.Context, req Request, prompt string) (generation, error) {
	policy := o.Policy
	if policy.MaxAttempts == 0 {
		policy = resilience.GeminiPolicy()
	}
	attempts := 0
	opts := []resilience.Option{
		resilience.WithFields(map[string]any{
			"operation": req.Operation,
			"user_id":   telemetry.OwnerField(req.Owner),
		}),
		resilience.WithOnRetry(func(int, time.Duration, error) { metrics.IncLLMRetry() }),
	}
	if o.Sleep != nil {
		opts = append(opts, resilience.WithSleep(o.Sleep))
	}
	raw, err := resilience.Execute(ctx, policy, func(ctx context.Context) (string, error) {
		attempts++
		metrics.IncLLMCall()
		start := time.Now()
		text, err := o.Generator.Generate(ctx, prompt)
		metrics.ObserveLLMDurationMs(metrics.SinceMs(start))
		return text, err
	}, opts...)
	if err != nil {
		metrics.IncLLMFailure()
		return generation{attempts: attempts}, err
	}
	return generation{raw: raw, attempts: attempts}, nil
}

func (o *Orchestrator) interpret(req Request, raw string) Outcome {
	switch req.Output {
	case OutputText:
		return Outcome{Text: normalize.StripFences(raw)}
	case OutputList:
		res := normalize.NormalizeList(raw, req.Schema, req.Limit)
		return Outcome{Items: res.Items, Fallback: res.Fallback, ParseError: res.ParseError, Preview: res.Preview}
	default:
		res := normalize.Normalize(raw, req.Schema)
		return Outcome{
			Values:     res.Values,
			Fallback:   res.Fallback,
			ParseError: res.ParseError,
			Preview:    res.Preview,
			Backfilled: res.Backfilled,
		}
	}
}

func (o *Orchestrator) fail(ctx context.Context, req Request, err error) {
	metrics.IncArtifactFailed()
	telemetry.Error("artifact_failed", map[string]any{
		"operation": req.Operation,
		"user_id":   telemetry.OwnerField(req.Owner),
		"error":     FailureMessage(err),
	})
	if req.Fail != nil {
		req.Fail(context.WithoutCancel(ctx), err)
	}
}

// FailureMessage renders err for storage on a failed artifact.
func FailureMessage(err error) string {
	return privacy.Scrub(util.SanitizeError(err))
}
