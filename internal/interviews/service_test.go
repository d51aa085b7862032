package interviews

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/llm/llmtest"
	"pathpilot-backend/internal/resilience"
	"pathpilot-backend/internal/shared/apperr"
)

const questionsJSON = "```json\n" + `[
  {"id": 7, "question": "Describe a production incident you owned.", "type": "Behavioral", "difficulty": 9, "expected_topics": ["ownership"], "time_limit_seconds": 5},
  {"id": 8, "question": "", "type": "technical"},
  {"question": "How would you shard a Postgres table?", "type": "architecture", "difficulty": "4", "tips": "Talk about keys"}
]` + "\n```"

func evalJSON(score int) string {
	return `{"score": ` + strconv.Itoa(score) + `, "strengths": ["clear"], "improvements": ["metrics"], "feedback": "Good.", "model_answer": "Use STAR."}`
}

type stubResumes struct{}

func (stubResumes) Background(_ context.Context, _ int64, id string) (llm.Background, error) {
	if id != "analyzed" {
		return llm.Background{}, apperr.NotFound("resume")
	}
	return llm.Background{Skills: []string{"Go"}, ExperienceYears: 4}, nil
}

func newTestService(gen *llmtest.Scripted) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	return NewService(repo, llmtest.Orchestrator(gen), stubResumes{}), repo
}

func TestCreateNormalizesQuestions(t *testing.T) {
	gen := llmtest.Reply(questionsJSON)
	svc, repo := newTestService(gen)

	iv, err := svc.Create(context.Background(), 1, CreateInput{JobTitle: "Backend Engineer", ResumeID: "analyzed"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if iv.Status != artifact.StatusReady {
		t.Fatalf("expected ready, got %s", iv.Status)
	}
	want := []Question{
		{ID: 1, Question: "Describe a production incident you owned.", Type: "behavioral", Difficulty: 5, ExpectedTopics: []string{"ownership"}, TimeLimitSeconds: 30},
		{ID: 2, Question: "How would you shard a Postgres table?", Type: "behavioral", Difficulty: 4, ExpectedTopics: []string{}, TimeLimitSeconds: 120, Tips: "Talk about keys"},
	}
	if diff := cmp.Diff(want, iv.Questions); diff != "" {
		t.Fatalf("questions mismatch (-want +got):\n%s", diff)
	}
	if iv.Config.InterviewType != DefaultType || iv.Config.Difficulty != DefaultDifficulty || iv.Config.Language != DefaultLanguage || iv.Config.QuestionCount != DefaultQuestionCount {
		t.Fatalf("unexpected defaults %+v", iv.Config)
	}
	if !strings.Contains(gen.Prompt(0), "Skills: Go") {
		t.Fatalf("prompt should include the resume summary")
	}
	stored, _ := repo.Get(context.Background(), 1, iv.ID)
	if len(stored.Questions) != 2 || stored.ModelUsed != "scripted" {
		t.Fatalf("unexpected stored interview %+v", stored)
	}
}

func TestCreateUsesCannedQuestionsOnGarbage(t *testing.T) {
	svc, _ := newTestService(llmtest.Reply("I cannot produce JSON today."))

	iv, err := svc.Create(context.Background(), 1, CreateInput{JobTitle: "데이터 엔지니어", QuestionCount: 3, Language: "ko"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if iv.Status != artifact.StatusReady || len(iv.Questions) != 3 {
		t.Fatalf("expected 3 canned questions in ready state, got %s/%d", iv.Status, len(iv.Questions))
	}
	if !strings.HasPrefix(iv.Questions[0].Question, "데이터 엔지니어 직무") {
		t.Fatalf("expected Korean canned question with job title, got %q", iv.Questions[0].Question)
	}
	for i, q := range iv.Questions {
		if q.ID != i+1 || q.Difficulty != 3 || q.TimeLimitSeconds != 120 {
			t.Fatalf("unexpected canned question %+v", q)
		}
	}
}

func TestCreateClampsQuestionCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultQuestionCount},
		{in: -3, want: 1},
		{in: 50, want: MaxQuestionCount},
		{in: 7, want: 7},
	}
	for _, tt := range tests {
		got, err := validateCreate(CreateInput{JobTitle: "Engineer", QuestionCount: tt.in, Language: "fr", InterviewType: "TECHNICAL"})
		if err != nil {
			t.Fatalf("validateCreate: %v", err)
		}
		if got.QuestionCount != tt.want {
			t.Fatalf("count %d: expected %d, got %d", tt.in, tt.want, got.QuestionCount)
		}
		if got.Language != DefaultLanguage || got.InterviewType != "technical" {
			t.Fatalf("unexpected normalization %+v", got)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(llmtest.Reply(questionsJSON))
	_, err := svc.Create(context.Background(), 1, CreateInput{JobTitle: " "})
	if ve, ok := apperr.AsValidation(err); !ok || ve.Field != "job_title" {
		t.Fatalf("expected job_title validation error, got %v", err)
	}
	_, err = svc.Create(context.Background(), 1, CreateInput{JobTitle: "Engineer", ResumeID: "missing"})
	if ve, ok := apperr.AsValidation(err); !ok || ve.Field != "resume_id" {
		t.Fatalf("expected resume_id validation error, got %v", err)
	}
}

func TestCreateMarksFailedWhenRetriesExhausted(t *testing.T) {
	gen := llmtest.Failing(llmtest.Unavailable)
	svc, repo := newTestService(gen)

	iv, err := svc.Create(context.Background(), 1, CreateInput{JobTitle: "Engineer"})
	if !resilience.IsFinalFailure(err) {
		t.Fatalf("expected FinalFailure, got %v", err)
	}
	stored, err := repo.Get(context.Background(), 1, iv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != artifact.StatusFailed || stored.ErrorMessage == "" {
		t.Fatalf("expected failed interview, got %s %q", stored.Status, stored.ErrorMessage)
	}
}

func TestEvaluateAnswerLifecycle(t *testing.T) {
	gen := llmtest.Reply(questionsJSON, evalJSON(70), evalJSON(90), evalJSON(81))
	svc, _ := newTestService(gen)
	ctx := context.Background()

	iv, err := svc.Create(ctx, 1, CreateInput{JobTitle: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.EvaluateAnswer(ctx, 1, iv.ID, AnswerInput{QuestionID: 1, AnswerText: "I led the rollback."})
	if err != nil {
		t.Fatalf("EvaluateAnswer: %v", err)
	}
	if first.Interview.Status != artifact.StatusInProgress || first.Interview.StartedAt == nil {
		t.Fatalf("expected in_progress with start time, got %s", first.Interview.Status)
	}
	if first.Evaluation.Score != 70 {
		t.Fatalf("expected score 70, got %d", first.Evaluation.Score)
	}

	// Re-answering replaces the earlier answer.
	again, err := svc.EvaluateAnswer(ctx, 1, iv.ID, AnswerInput{QuestionID: 1, AnswerText: "Better answer."})
	if err != nil {
		t.Fatalf("EvaluateAnswer: %v", err)
	}
	if p := again.Interview.Progress(); p.Answered != 1 || p.Remaining != 1 || p.ProgressPercent != 50 {
		t.Fatalf("unexpected progress %+v", p)
	}

	last, err := svc.EvaluateAnswer(ctx, 1, iv.ID, AnswerInput{QuestionID: 2, AnswerText: "Hash the tenant id."})
	if err != nil {
		t.Fatalf("EvaluateAnswer: %v", err)
	}
	if last.Interview.Status != artifact.StatusCompleted || last.Interview.TotalScore == nil || *last.Interview.TotalScore != 85.5 {
		t.Fatalf("expected completed with 85.5, got %s %v", last.Interview.Status, last.Interview.TotalScore)
	}

	if _, err := svc.EvaluateAnswer(ctx, 1, iv.ID, AnswerInput{QuestionID: 2, AnswerText: "late"}); !errors.Is(err, ErrNotAnswerable) {
		t.Fatalf("expected completed interview to refuse answers, got %v", err)
	}
}

func TestEvaluateAnswerFallback(t *testing.T) {
	svc, _ := newTestService(llmtest.Reply(questionsJSON, "not json at all"))
	iv, err := svc.Create(context.Background(), 1, CreateInput{JobTitle: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := svc.EvaluateAnswer(context.Background(), 1, iv.ID, AnswerInput{QuestionID: 1, AnswerText: "answer"})
	if err != nil {
		t.Fatalf("EvaluateAnswer: %v", err)
	}
	if !res.Fallback || res.Evaluation.Score != 60 || res.Evaluation.ParseError == "" {
		t.Fatalf("expected canned evaluation, got %+v", res.Evaluation)
	}
	if len(res.Evaluation.Strengths) != 1 || res.Evaluation.Strengths[0] != "You submitted an answer" {
		t.Fatalf("unexpected fallback strengths %v", res.Evaluation.Strengths)
	}
}

func TestEvaluateAnswerErrors(t *testing.T) {
	svc, _ := newTestService(llmtest.Reply(questionsJSON, evalJSON(50)))
	iv, err := svc.Create(context.Background(), 1, CreateInput{JobTitle: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tests := []struct {
		name string
		id   string
		in   AnswerInput
		want error
	}{
		{name: "empty answer", id: iv.ID, in: AnswerInput{QuestionID: 1, AnswerText: "  "}},
		{name: "unknown question", id: iv.ID, in: AnswerInput{QuestionID: 9, AnswerText: "x"}, want: ErrQuestionNotFound},
		{name: "unknown interview", id: "missing", in: AnswerInput{QuestionID: 1, AnswerText: "x"}, want: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.EvaluateAnswer(context.Background(), 1, tt.id, tt.in)
			if tt.want == nil {
				if _, ok := apperr.AsValidation(err); !ok {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
