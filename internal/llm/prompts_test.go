package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCoverLetterPromptIsDeterministic(t *testing.T) {
	in := CoverLetterInput{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme",
		Background: &Background{
			Skills:          []string{"Go", "Postgres"},
			ExperienceYears: 4,
			Strengths:       []string{"ownership"},
		},
		Tone:       "casual",
		Length:     "short",
		FocusAreas: []string{"APIs", "reliability"},
	}
	first, err := CoverLetterPrompt(in)
	if err != nil {
		t.Fatalf("CoverLetterPrompt: %v", err)
	}
	second, err := CoverLetterPrompt(in)
	if err != nil {
		t.Fatalf("CoverLetterPrompt: %v", err)
	}
	if first != second {
		t.Fatalf("prompt is not deterministic")
	}
	for _, want := range []string{"Backend Engineer", "Acme", "Go, Postgres", "4 years", "250-350 words", "conversational", "APIs, reliability"} {
		if !strings.Contains(first, want) {
			t.Fatalf("prompt missing %q:\n%s", want, first)
		}
	}
	if strings.Contains(first, "## Job Description") {
		t.Fatalf("empty job description should be omitted")
	}
}

func TestCoverLetterPromptDefaultsUnknownToneAndLength(t *testing.T) {
	prompt, err := CoverLetterPrompt(CoverLetterInput{JobTitle: "PM", CompanyName: "Initech", Tone: "weird", Length: "huge"})
	if err != nil {
		t.Fatalf("CoverLetterPrompt: %v", err)
	}
	if !strings.Contains(prompt, "business-appropriate") || !strings.Contains(prompt, "350-500 words") {
		t.Fatalf("expected professional/medium defaults:\n%s", prompt)
	}
	if strings.Contains(prompt, "Candidate Background") {
		t.Fatalf("nil background should be omitted")
	}
}

func TestInterviewQuestionsPromptClipsDescription(t *testing.T) {
	prompt, err := InterviewQuestionsPrompt(InterviewQuestionsInput{
		JobTitle:       "SRE",
		JobDescription: strings.Repeat("a", 2500),
		Difficulty:     "senior",
		InterviewType:  "technical",
		QuestionCount:  3,
		Language:       "ko",
	})
	if err != nil {
		t.Fatalf("InterviewQuestionsPrompt: %v", err)
	}
	if strings.Contains(prompt, strings.Repeat("a", 2001)) {
		t.Fatalf("job description not clipped")
	}
	for _, want := range []string{"Generate 3 interview questions", "senior level", "technical questions", "Korean", "Not specified"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestJobRecommendationsPromptPreferences(t *testing.T) {
	prompt, err := JobRecommendationsPrompt(JobRecommendationsInput{
		Background:  Background{Skills: []string{"Python"}, ExperienceYears: 2},
		Preferences: &Preferences{Location: "Seoul"},
		Count:       4,
	})
	if err != nil {
		t.Fatalf("JobRecommendationsPrompt: %v", err)
	}
	if !strings.Contains(prompt, "Preferred Location**: Seoul") || !strings.Contains(prompt, "Job Type**: Any") {
		t.Fatalf("preferences not rendered:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Generate 4 specific job recommendations") {
		t.Fatalf("count not rendered")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := Render("missing.tmpl", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestStatusErrorExposesCode(t *testing.T) {
	err := error(&StatusError{Provider: "openai", Code: 503, Body: "overloaded"})
	var coded interface{ HTTPStatus() int }
	if !errors.As(err, &coded) || coded.HTTPStatus() != 503 {
		t.Fatalf("expected HTTPStatus 503, got %v", err)
	}
	if err.Error() != "openai http status 503: overloaded" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUnconfiguredGenerator(t *testing.T) {
	_, err := Unconfigured{Provider: "gemini"}.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
