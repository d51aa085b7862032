package interviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/normalize"
	"pathpilot-backend/internal/orchestrator"
	"pathpilot-backend/internal/shared/apperr"
	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/telemetry"
	"pathpilot-backend/internal/shared/util"
)

const (
	operationQuestions  = "interview_questions"
	operationEvaluation = "answer_evaluation"

	maxTitleLen       = 255
	maxDescriptionLen = 10000
	maxAnswerLen      = 5000
)

// BackgroundSource resolves an analyzed resume into prompt context.
type BackgroundSource interface {
	Background(ctx context.Context, userID int64, resumeID string) (llm.Background, error)
}

// CreateInput is a request for a new mock interview.
type CreateInput struct {
	JobTitle       string
	CompanyName    string
	JobDescription string
	ResumeID       string
	InterviewType  string
	Difficulty     string
	QuestionCount  int
	FocusAreas     []string
	Language       string
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionID     int
	AnswerText     string
	AnswerAudioURL string
}

// EvaluationResult is an evaluated answer plus session progress.
type EvaluationResult struct {
	Interview  Interview
	QuestionID int
	Evaluation Evaluation
	Fallback   bool
}

// Service contains business logic for mock interviews.
type Service struct {
	Repo         Repo
	Orchestrator *orchestrator.Orchestrator
	Resumes      BackgroundSource

	// answerMu serializes the read-modify-write of answer lists.
	answerMu sync.Mutex
}

// NewService constructs a Service.
func NewService(repo Repo, orch *orchestrator.Orchestrator, resumes BackgroundSource) *Service {
	return &Service{Repo: repo, Orchestrator: orch, Resumes: resumes}
}

// Create generates interview questions. A reply that cannot be parsed yields
// canned questions and the interview is still ready.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Interview, error) {
	start := time.Now()
	in, err := validateCreate(in)
	if err != nil {
		return Interview{}, err
	}
	cfg := Config{
		InterviewType: in.InterviewType,
		Difficulty:    in.Difficulty,
		QuestionCount: in.QuestionCount,
		FocusAreas:    in.FocusAreas,
		Language:      in.Language,
	}
	if in.ResumeID != "" && s.Resumes != nil {
		bg, err := s.Resumes.Background(ctx, userID, in.ResumeID)
		switch {
		case err == nil:
			cfg.ResumeSummary = &bg
		case errors.Is(err, apperr.ErrNotFound):
			return Interview{}, apperr.Invalid("resume_id", "resume not found")
		case errors.Is(err, apperr.ErrInvalidState):
			// Unanalyzed resumes add nothing to the prompt.
		default:
			return Interview{}, fmt.Errorf("load resume background: %w", err)
		}
	}

	telemetry.Info("interview_generation_started", map[string]any{
		"user_id":        telemetry.OwnerField(userID),
		"job_title":      privacy.Scrub(in.JobTitle),
		"interview_type": cfg.InterviewType,
		"difficulty":     cfg.Difficulty,
		"question_count": cfg.QuestionCount,
		"language":       cfg.Language,
		"request_id":     telemetry.RequestIDFromContext(ctx),
	})

	now := time.Now().UTC()
	iv := Interview{
		ID:             uuid.NewString(),
		UserID:         userID,
		ResumeID:       in.ResumeID,
		JobTitle:       in.JobTitle,
		CompanyName:    in.CompanyName,
		JobDescription: in.JobDescription,
		Config:         cfg,
		Status:         artifact.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	out, err := s.Orchestrator.Produce(ctx, orchestrator.Request{
		Owner:     userID,
		Operation: operationQuestions,
		Output:    orchestrator.OutputList,
		Schema:    QuestionSchema,
		Begin: func(ctx context.Context) error {
			if err := s.Repo.Create(ctx, iv); err != nil {
				return err
			}
			return s.setStatus(ctx, &iv, artifact.StatusGenerating, "")
		},
		Prompt: func(ctx context.Context) (string, error) {
			return llm.InterviewQuestionsPrompt(llm.InterviewQuestionsInput{
				JobTitle:       iv.JobTitle,
				CompanyName:    iv.CompanyName,
				JobDescription: iv.JobDescription,
				Background:     cfg.ResumeSummary,
				InterviewType:  cfg.InterviewType,
				Difficulty:     cfg.Difficulty,
				QuestionCount:  cfg.QuestionCount,
				FocusAreas:     cfg.FocusAreas,
				Language:       cfg.Language,
			})
		},
		Complete: func(ctx context.Context, out orchestrator.Outcome) (string, error) {
			questions := toQuestions(out.Items, cfg.QuestionCount)
			if len(questions) == 0 {
				questions = fallbackQuestions(iv.JobTitle, cfg.QuestionCount, cfg.Language)
			}
			if err := artifact.Transition(iv.Status, out.Status); err != nil {
				return "", err
			}
			if err := s.Repo.SaveQuestions(ctx, userID, iv.ID, questions, out.Status, out.Model); err != nil {
				return "", err
			}
			iv.Questions = questions
			iv.Status = out.Status
			iv.ModelUsed = out.Model
			return iv.ID, nil
		},
		Fail: func(ctx context.Context, err error) {
			s.fail(ctx, &iv, err)
		},
	})
	if err != nil {
		return iv, err
	}

	telemetry.Info("interview_generation_completed", map[string]any{
		"user_id":        telemetry.OwnerField(userID),
		"interview_id":   iv.ID,
		"question_count": len(iv.Questions),
		"fallback":       out.Fallback,
		"duration_ms":    time.Since(start).Milliseconds(),
	})
	return iv, nil
}

// EvaluateAnswer scores one answer and records it against the session. The
// first answer starts the session; answering every question completes it.
func (s *Service) EvaluateAnswer(ctx context.Context, userID int64, id string, in AnswerInput) (EvaluationResult, error) {
	in.AnswerText = strings.TrimSpace(in.AnswerText)
	switch {
	case in.AnswerText == "":
		return EvaluationResult{}, apperr.Invalid("answer_text", "answer_text is required")
	case utf8.RuneCountInString(in.AnswerText) > maxAnswerLen:
		return EvaluationResult{}, apperr.Invalid("answer_text", "answer_text must be at most %d characters", maxAnswerLen)
	}

	iv, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return EvaluationResult{}, err
	}
	if iv.Status != artifact.StatusReady && iv.Status != artifact.StatusInProgress {
		return EvaluationResult{}, ErrNotAnswerable
	}
	question, ok := iv.Question(in.QuestionID)
	if !ok {
		return EvaluationResult{}, ErrQuestionNotFound
	}

	telemetry.Info("answer_evaluation_started", map[string]any{
		"user_id":      telemetry.OwnerField(userID),
		"interview_id": id,
		"question_id":  in.QuestionID,
	})

	out, err := s.Orchestrator.Produce(ctx, orchestrator.Request{
		Owner:     userID,
		Operation: operationEvaluation,
		Schema:    EvaluationSchema(iv.Config.Language),
		Prompt: func(ctx context.Context) (string, error) {
			return llm.AnswerEvaluationPrompt(llm.AnswerEvaluationInput{
				Question:       question.Question,
				ExpectedTopics: question.ExpectedTopics,
				JobTitle:       iv.JobTitle,
				Answer:         in.AnswerText,
				Language:       iv.Config.Language,
			})
		},
	})
	if err != nil {
		return EvaluationResult{}, err
	}

	var eval Evaluation
	if err := normalize.Decode(out.Values, &eval); err != nil {
		return EvaluationResult{}, fmt.Errorf("decode evaluation: %w", err)
	}
	if out.Fallback {
		eval.ParseError = out.ParseError
	}

	iv, err = s.recordAnswer(ctx, userID, id, Answer{
		QuestionID:     in.QuestionID,
		AnswerText:     in.AnswerText,
		AnswerAudioURL: strings.TrimSpace(in.AnswerAudioURL),
		AnsweredAt:     time.Now().UTC(),
		Evaluation:     eval,
	})
	if err != nil {
		return EvaluationResult{}, err
	}

	telemetry.Info("answer_evaluation_completed", map[string]any{
		"user_id":      telemetry.OwnerField(userID),
		"interview_id": id,
		"question_id":  in.QuestionID,
		"score":        eval.Score,
		"status":       string(iv.Status),
	})
	return EvaluationResult{Interview: iv, QuestionID: in.QuestionID, Evaluation: eval, Fallback: out.Fallback}, nil
}

// recordAnswer upserts the answer on the latest stored session and advances
// its status.
func (s *Service) recordAnswer(ctx context.Context, userID int64, id string, a Answer) (Interview, error) {
	s.answerMu.Lock()
	defer s.answerMu.Unlock()

	iv, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Interview{}, err
	}
	if iv.Status != artifact.StatusReady && iv.Status != artifact.StatusInProgress {
		return Interview{}, ErrNotAnswerable
	}
	now := time.Now().UTC()
	if iv.Status == artifact.StatusReady {
		if err := artifact.Transition(iv.Status, artifact.StatusInProgress); err != nil {
			return Interview{}, err
		}
		iv.Status = artifact.StatusInProgress
		iv.StartedAt = &now
	}
	iv.upsertAnswer(a)

	if len(iv.Answers) >= len(iv.Questions) {
		if err := artifact.Transition(iv.Status, artifact.StatusCompleted); err != nil {
			return Interview{}, err
		}
		total := iv.averageScore()
		iv.Status = artifact.StatusCompleted
		iv.TotalScore = &total
		iv.CompletedAt = &now
	}
	if err := s.Repo.SaveAnswers(ctx, iv); err != nil {
		return Interview{}, err
	}
	return iv, nil
}

// Get returns one interview.
func (s *Service) Get(ctx context.Context, userID int64, id string) (Interview, error) {
	return s.Repo.Get(ctx, userID, id)
}

// List returns the owner's interview history newest first.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Interview, error) {
	return s.Repo.List(ctx, userID, limit, offset)
}

// Delete removes an interview.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	telemetry.Info("interview_deleted", map[string]any{
		"user_id":      telemetry.OwnerField(userID),
		"interview_id": id,
	})
	return nil
}

func (s *Service) fail(ctx context.Context, iv *Interview, cause error) {
	msg := "Generation failed: " + orchestrator.FailureMessage(cause)
	if err := s.setStatus(ctx, iv, artifact.StatusFailed, msg); err != nil {
		telemetry.Error("interview_mark_failed_error", map[string]any{
			"user_id":      telemetry.OwnerField(iv.UserID),
			"interview_id": iv.ID,
			"error":        util.SanitizeError(err),
		})
	}
}

func (s *Service) setStatus(ctx context.Context, iv *Interview, to artifact.Status, errMsg string) error {
	if err := artifact.Transition(iv.Status, to); err != nil {
		return err
	}
	if err := s.Repo.UpdateStatus(ctx, iv.UserID, iv.ID, to, errMsg); err != nil {
		return err
	}
	iv.Status = to
	iv.ErrorMessage = errMsg
	return nil
}

// toQuestions decodes up to limit normalized items, dropping empty questions
// and renumbering the rest from 1.
func toQuestions(items []map[string]any, limit int) []Question {
	out := make([]Question, 0, limit)
	for _, item := range items {
		if len(out) == limit {
			break
		}
		var q Question
		if err := normalize.Decode(item, &q); err != nil || q.Question == "" {
			continue
		}
		q.ID = len(out) + 1
		if q.ExpectedTopics == nil {
			q.ExpectedTopics = []string{}
		}
		out = append(out, q)
	}
	return out
}

func fallbackQuestions(jobTitle string, count int, language string) []Question {
	canned := cannedQuestions[language]
	if canned == nil {
		canned = cannedQuestions[DefaultLanguage]
	}
	if count > len(canned) {
		count = len(canned)
	}
	out := make([]Question, 0, count)
	for i, c := range canned[:count] {
		text := c.text
		if strings.Contains(text, "%s") {
			text = fmt.Sprintf(text, jobTitle)
		}
		out = append(out, Question{
			ID:               i + 1,
			Question:         text,
			Type:             c.kind,
			Difficulty:       3,
			ExpectedTopics:   append([]string(nil), c.topics...),
			TimeLimitSeconds: 120,
		})
	}
	return out
}

func validateCreate(in CreateInput) (CreateInput, error) {
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.JobDescription = strings.TrimSpace(in.JobDescription)
	in.ResumeID = strings.TrimSpace(in.ResumeID)
	switch {
	case in.JobTitle == "":
		return in, apperr.Invalid("job_title", "job_title is required")
	case utf8.RuneCountInString(in.JobTitle) > maxTitleLen:
		return in, apperr.Invalid("job_title", "job_title must be at most %d characters", maxTitleLen)
	case utf8.RuneCountInString(in.CompanyName) > maxTitleLen:
		return in, apperr.Invalid("company_name", "company_name must be at most %d characters", maxTitleLen)
	case utf8.RuneCountInString(in.JobDescription) > maxDescriptionLen:
		return in, apperr.Invalid("job_description", "job_description must be at most %d characters", maxDescriptionLen)
	}

	in.InterviewType = strings.ToLower(strings.TrimSpace(in.InterviewType))
	if !interviewTypes[in.InterviewType] {
		in.InterviewType = DefaultType
	}
	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
	if !difficulties[in.Difficulty] {
		in.Difficulty = DefaultDifficulty
	}
	in.Language = strings.ToLower(strings.TrimSpace(in.Language))
	if !languages[in.Language] {
		in.Language = DefaultLanguage
	}
	switch {
	case in.QuestionCount == 0:
		in.QuestionCount = DefaultQuestionCount
	case in.QuestionCount < 1:
		in.QuestionCount = 1
	case in.QuestionCount > MaxQuestionCount:
		in.QuestionCount = MaxQuestionCount
	}
	focus := make([]string, 0, len(in.FocusAreas))
	for _, area := range in.FocusAreas {
		if area = strings.TrimSpace(area); area != "" {
			focus = append(focus, area)
		}
	}
	in.FocusAreas = focus
	return in, nil
}
