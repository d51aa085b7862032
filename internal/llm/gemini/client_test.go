package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/resilience"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	prompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGenerateConcatenatesParts(t *testing.T) {
	fake := &fakeModels{resp: textResponse("{\"skills\":", " [\"Go\"]}")}
	g := newGenerator(fake, "")

	out, err := g.Generate(context.Background(), "  analyze  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "{\"skills\":\n[\"Go\"]}" {
		t.Fatalf("unexpected output %q", out)
	}
	if fake.model != defaultModel {
		t.Fatalf("expected default model, got %q", fake.model)
	}
	if fake.prompt != "analyze" {
		t.Fatalf("expected trimmed prompt, got %q", fake.prompt)
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	g := newGenerator(&fakeModels{resp: textResponse("  ")}, "gemini-pro")
	if _, err := g.Generate(context.Background(), "p"); !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	g := newGenerator(&fakeModels{}, "gemini-pro")
	if _, err := g.Generate(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}

func TestGenerateTranslatesAPIError(t *testing.T) {
	g := newGenerator(&fakeModels{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}}, "gemini-pro")
	_, err := g.Generate(context.Background(), "p")
	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 429 {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
	if !resilience.IsTransient(err) {
		t.Fatalf("429 should be transient")
	}

	g = newGenerator(&fakeModels{err: genai.APIError{Code: 400, Message: "bad request"}}, "gemini-pro")
	_, err = g.Generate(context.Background(), "p")
	if resilience.IsTransient(err) {
		t.Fatalf("400 should not be transient")
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), " ", ""); !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
