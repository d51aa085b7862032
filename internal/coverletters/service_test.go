package coverletters

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/llm/llmtest"
	"pathpilot-backend/internal/resilience"
	"pathpilot-backend/internal/shared/apperr"
)

const letterReply = "```\nDear Hiring Team,\n\nI build reliable Go services.\n\nBest regards\n```"

type stubResumes map[string]error

func (s stubResumes) Background(_ context.Context, _ int64, id string) (llm.Background, error) {
	err, ok := s[id]
	if !ok {
		return llm.Background{}, apperr.NotFound("resume")
	}
	if err != nil {
		return llm.Background{}, err
	}
	return llm.Background{Skills: []string{"Go", "Kubernetes"}, ExperienceYears: 7}, nil
}

func newTestService(gen *llmtest.Scripted) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	resumes := stubResumes{
		"analyzed": nil,
		"pending":  apperr.InvalidState("resume has not been analyzed"),
	}
	return NewService(repo, llmtest.Orchestrator(gen), resumes), repo
}

func TestGenerateStoresTextWithoutFences(t *testing.T) {
	gen := llmtest.Reply(letterReply)
	svc, repo := newTestService(gen)

	letter, err := svc.Generate(context.Background(), 1, GenerateInput{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme",
		ResumeID:    "analyzed",
		Tone:        "casual",
		Length:      "gigantic",
		FocusAreas:  []string{" leadership ", ""},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if letter.Status != artifact.StatusGenerated || letter.Version != 1 {
		t.Fatalf("unexpected status/version %s/%d", letter.Status, letter.Version)
	}
	if strings.Contains(letter.Content, "```") || !strings.HasPrefix(letter.Content, "Dear Hiring Team") {
		t.Fatalf("expected fences stripped, got %q", letter.Content)
	}
	if letter.WordCount != 10 {
		t.Fatalf("expected 10 words, got %d", letter.WordCount)
	}
	if letter.Params.Tone != "casual" || letter.Params.Length != DefaultLength {
		t.Fatalf("unexpected params %+v", letter.Params)
	}
	if len(letter.Params.FocusAreas) != 1 || letter.Params.FocusAreas[0] != "leadership" {
		t.Fatalf("expected trimmed focus areas, got %v", letter.Params.FocusAreas)
	}

	prompt := gen.Prompt(0)
	for _, want := range []string{"Backend Engineer", "Acme", "Go, Kubernetes", "7 years", "friendly yet professional", "350-500 words", "leadership"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	stored, err := repo.Get(context.Background(), 1, letter.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Content != letter.Content || stored.ModelUsed != "scripted" || stored.GeneratedAt == nil {
		t.Fatalf("unexpected stored letter %+v", stored)
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    GenerateInput
		field string
	}{
		{name: "missing title", in: GenerateInput{CompanyName: "Acme"}, field: "job_title"},
		{name: "missing company", in: GenerateInput{JobTitle: "Engineer", CompanyName: "  "}, field: "company_name"},
		{name: "long title", in: GenerateInput{JobTitle: strings.Repeat("x", 256), CompanyName: "Acme"}, field: "job_title"},
		{name: "long instructions", in: GenerateInput{JobTitle: "Engineer", CompanyName: "Acme", CustomInstructions: strings.Repeat("x", 1001)}, field: "custom_instructions"},
		{name: "unknown resume", in: GenerateInput{JobTitle: "Engineer", CompanyName: "Acme", ResumeID: "missing"}, field: "resume_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := llmtest.Reply(letterReply)
			svc, _ := newTestService(gen)
			_, err := svc.Generate(context.Background(), 1, tt.in)
			ve, ok := apperr.AsValidation(err)
			if !ok || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
			if gen.Calls() != 0 {
				t.Fatalf("expected no model call")
			}
		})
	}
}

func TestGenerateIgnoresUnanalyzedResume(t *testing.T) {
	gen := llmtest.Reply(letterReply)
	svc, _ := newTestService(gen)

	letter, err := svc.Generate(context.Background(), 1, GenerateInput{JobTitle: "Engineer", CompanyName: "Acme", ResumeID: "pending"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if letter.Params.ResumeSummary != nil {
		t.Fatalf("expected no resume summary")
	}
	if strings.Contains(gen.Prompt(0), "Candidate Background") {
		t.Fatalf("prompt should not carry a background section")
	}
}

func TestGenerateMarksFailedWhenRetriesExhausted(t *testing.T) {
	gen := llmtest.Failing(llmtest.Unavailable)
	svc, repo := newTestService(gen)

	letter, err := svc.Generate(context.Background(), 1, GenerateInput{JobTitle: "Engineer", CompanyName: "Acme"})
	if !resilience.IsFinalFailure(err) {
		t.Fatalf("expected FinalFailure, got %v", err)
	}
	if gen.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", gen.Calls())
	}
	stored, err := repo.Get(context.Background(), 1, letter.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != artifact.StatusFailed || !strings.HasPrefix(stored.ErrorMessage, "Generation failed:") {
		t.Fatalf("expected failed letter, got %s %q", stored.Status, stored.ErrorMessage)
	}
}

func TestGenerateEmptyReplyFails(t *testing.T) {
	svc, repo := newTestService(llmtest.Reply("```\n```"))

	letter, err := svc.Generate(context.Background(), 1, GenerateInput{JobTitle: "Engineer", CompanyName: "Acme"})
	if !errors.Is(err, errEmptyContent) {
		t.Fatalf("expected empty content error, got %v", err)
	}
	stored, _ := repo.Get(context.Background(), 1, letter.ID)
	if stored.Status != artifact.StatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
}

func TestRegenerateBumpsVersion(t *testing.T) {
	gen := llmtest.Reply(letterReply, "Second draft for Acme.")
	svc, _ := newTestService(gen)

	letter, err := svc.Generate(context.Background(), 1, GenerateInput{JobTitle: "Engineer", CompanyName: "Acme", Tone: "enthusiastic"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	again, err := svc.Regenerate(context.Background(), 1, letter.ID)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if again.Version != 2 || again.Content != "Second draft for Acme." || again.Status != artifact.StatusGenerated {
		t.Fatalf("unexpected regenerated letter %+v", again)
	}
	if !strings.Contains(gen.Prompt(1), "energetic and passionate") {
		t.Fatalf("regeneration should reuse the stored tone")
	}
}

func TestRegenerateRejectsGeneratingLetter(t *testing.T) {
	svc, repo := newTestService(llmtest.Reply(letterReply))
	letter, err := svc.Generate(context.Background(), 1, GenerateInput{JobTitle: "Engineer", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), 1, letter.ID, artifact.StatusGenerating, ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := svc.Regenerate(context.Background(), 1, letter.ID); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, err := svc.UpdateContent(context.Background(), 1, letter.ID, "edit"); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid state for edit, got %v", err)
	}
}

func TestUpdateContentBumpsVersion(t *testing.T) {
	svc, _ := newTestService(llmtest.Reply(letterReply))
	letter, err := svc.Generate(context.Background(), 1, GenerateInput{JobTitle: "Engineer", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := svc.UpdateContent(context.Background(), 1, letter.ID, "   "); err == nil {
		t.Fatalf("expected validation error for empty content")
	}
	edited, err := svc.UpdateContent(context.Background(), 1, letter.ID, "Short and sweet.")
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if edited.Version != 2 || edited.WordCount != 3 || edited.Status != artifact.StatusGenerated {
		t.Fatalf("unexpected edited letter %+v", edited)
	}
}

func TestLettersAreOwnerScoped(t *testing.T) {
	svc, _ := newTestService(llmtest.Reply(letterReply))
	letter, err := svc.Generate(context.Background(), 1, GenerateInput{JobTitle: "Engineer", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := svc.Get(context.Background(), 2, letter.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
	if err := svc.Delete(context.Background(), 2, letter.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), 1, letter.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	items, _ := svc.List(context.Background(), 1, 10, 0)
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d", len(items))
	}
}
