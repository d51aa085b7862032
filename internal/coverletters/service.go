package coverletters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/orchestrator"
	"pathpilot-backend/internal/shared/apperr"
	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/telemetry"
	"pathpilot-backend/internal/shared/util"
)

const (
	operationGenerate   = "cover_letter_generation"
	operationRegenerate = "cover_letter_regeneration"

	maxTitleLen        = 255
	maxDescriptionLen  = 10000
	maxInstructionsLen = 1000
	maxFocusAreas      = 10
)

// errEmptyContent marks a model reply with nothing usable in it.
var errEmptyContent = errors.New("model returned an empty cover letter")

// BackgroundSource resolves an analyzed resume into prompt context.
type BackgroundSource interface {
	Background(ctx context.Context, userID int64, resumeID string) (llm.Background, error)
}

// GenerateInput is a cover letter request.
type GenerateInput struct {
	JobTitle           string
	CompanyName        string
	JobDescription     string
	ResumeID           string
	Tone               string
	Length             string
	FocusAreas         []string
	CustomInstructions string
}

// Service contains business logic for cover letters.
type Service struct {
	Repo         Repo
	Orchestrator *orchestrator.Orchestrator
	Resumes      BackgroundSource
}

// NewService constructs a Service.
func NewService(repo Repo, orch *orchestrator.Orchestrator, resumes BackgroundSource) *Service {
	return &Service{Repo: repo, Orchestrator: orch, Resumes: resumes}
}

// Generate creates a cover letter and fills it from the model. The returned
// letter is generated, or failed alongside the generation error.
func (s *Service) Generate(ctx context.Context, userID int64, in GenerateInput) (CoverLetter, error) {
	start := time.Now()
	in, err := validate(in)
	if err != nil {
		return CoverLetter{}, err
	}

	params := Params{
		Tone:               in.Tone,
		Length:             in.Length,
		FocusAreas:         in.FocusAreas,
		CustomInstructions: in.CustomInstructions,
	}
	if in.ResumeID != "" {
		bg, err := s.background(ctx, userID, in.ResumeID)
		if err != nil {
			return CoverLetter{}, err
		}
		params.ResumeSummary = bg
	}

	telemetry.Info("cover_letter_generation_started", map[string]any{
		"user_id":             telemetry.OwnerField(userID),
		"job_title":           privacy.Scrub(in.JobTitle),
		"company_name":        privacy.Scrub(in.CompanyName),
		"has_job_description": in.JobDescription != "",
		"has_resume":          params.ResumeSummary != nil,
		"tone":                params.Tone,
		"length":              params.Length,
		"request_id":          telemetry.RequestIDFromContext(ctx),
	})

	now := time.Now().UTC()
	letter := CoverLetter{
		ID:             uuid.NewString(),
		UserID:         userID,
		ResumeID:       in.ResumeID,
		JobTitle:       in.JobTitle,
		CompanyName:    in.CompanyName,
		JobDescription: in.JobDescription,
		Params:         params,
		Version:        1,
		Status:         artifact.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = s.produce(ctx, &letter, operationGenerate, func(ctx context.Context) error {
		if err := s.Repo.Create(ctx, letter); err != nil {
			return err
		}
		return s.setStatus(ctx, &letter, artifact.StatusGenerating, "")
	}, 1)
	if err != nil {
		return letter, err
	}

	telemetry.Info("cover_letter_generation_completed", map[string]any{
		"user_id":         telemetry.OwnerField(userID),
		"cover_letter_id": letter.ID,
		"word_count":      letter.WordCount,
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	return letter, nil
}

// Regenerate runs the model again with the stored parameters and bumps the
// version.
func (s *Service) Regenerate(ctx context.Context, userID int64, id string) (CoverLetter, error) {
	letter, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return CoverLetter{}, err
	}
	if err := artifact.Regenerate(letter.Status); err != nil {
		return letter, ErrGenerating
	}
	_, err = s.produce(ctx, &letter, operationRegenerate, func(ctx context.Context) error {
		return s.setStatus(ctx, &letter, artifact.StatusGenerating, "")
	}, letter.Version+1)
	if err != nil {
		return letter, err
	}
	telemetry.Info("cover_letter_regenerated", map[string]any{
		"user_id":         telemetry.OwnerField(userID),
		"cover_letter_id": id,
		"new_version":     letter.Version,
	})
	return letter, nil
}

// UpdateContent replaces the content with a manual edit and bumps the version.
func (s *Service) UpdateContent(ctx context.Context, userID int64, id, content string) (CoverLetter, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return CoverLetter{}, apperr.Invalid("content", "content is required")
	}
	letter, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return CoverLetter{}, err
	}
	if letter.Status == artifact.StatusGenerating {
		return letter, ErrGenerating
	}
	letter.Content = content
	letter.WordCount = CountWords(content)
	letter.Version++
	if err := s.Repo.SaveContent(ctx, letter); err != nil {
		return CoverLetter{}, err
	}
	telemetry.Info("cover_letter_manually_edited", map[string]any{
		"user_id":         telemetry.OwnerField(userID),
		"cover_letter_id": id,
		"new_version":     letter.Version,
	})
	return letter, nil
}

// Get returns one cover letter.
func (s *Service) Get(ctx context.Context, userID int64, id string) (CoverLetter, error) {
	return s.Repo.Get(ctx, userID, id)
}

// List returns the owner's cover letters newest first.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]CoverLetter, error) {
	return s.Repo.List(ctx, userID, limit, offset)
}

// Delete removes a cover letter.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	telemetry.Info("cover_letter_deleted", map[string]any{
		"user_id":         telemetry.OwnerField(userID),
		"cover_letter_id": id,
	})
	return nil
}

func (s *Service) produce(ctx context.Context, letter *CoverLetter, operation string, begin func(context.Context) error, version int) (orchestrator.Outcome, error) {
	out, err := s.Orchestrator.Produce(ctx, orchestrator.Request{
		Owner:     letter.UserID,
		Operation: operation,
		Output:    orchestrator.OutputText,
		Success:   artifact.StatusGenerated,
		Begin:     begin,
		Prompt: func(ctx context.Context) (string, error) {
			return llm.CoverLetterPrompt(letter.Params.prompt(*letter))
		},
		Complete: func(ctx context.Context, out orchestrator.Outcome) (string, error) {
			if strings.TrimSpace(out.Text) == "" {
				s.fail(ctx, letter, errEmptyContent)
				return "", errEmptyContent
			}
			return letter.ID, s.complete(ctx, letter, out, version)
		},
		Fail: func(ctx context.Context, err error) {
			s.fail(ctx, letter, err)
		},
	})
	return out, err
}

func (s *Service) background(ctx context.Context, userID int64, resumeID string) (*llm.Background, error) {
	if s.Resumes == nil {
		return nil, nil
	}
	bg, err := s.Resumes.Background(ctx, userID, resumeID)
	switch {
	case err == nil:
		return &bg, nil
	case errors.Is(err, apperr.ErrNotFound):
		return nil, apperr.Invalid("resume_id", "resume not found")
	case errors.Is(err, apperr.ErrInvalidState):
		// An unanalyzed resume adds nothing to the prompt.
		telemetry.Warn("cover_letter_resume_not_analyzed", map[string]any{
			"user_id":   telemetry.OwnerField(userID),
			"resume_id": resumeID,
		})
		return nil, nil
	default:
		return nil, fmt.Errorf("load resume background: %w", err)
	}
}

func (s *Service) complete(ctx context.Context, letter *CoverLetter, out orchestrator.Outcome, version int) error {
	if err := artifact.Transition(letter.Status, out.Status); err != nil {
		return err
	}
	now := time.Now().UTC()
	next := *letter
	next.Content = strings.TrimSpace(out.Text)
	next.WordCount = CountWords(next.Content)
	next.Version = version
	next.Status = out.Status
	next.ErrorMessage = ""
	next.ModelUsed = out.Model
	next.GeneratedAt = &now
	if err := s.Repo.SaveContent(ctx, next); err != nil {
		return err
	}
	*letter = next
	return nil
}

func (s *Service) fail(ctx context.Context, letter *CoverLetter, cause error) {
	msg := "Generation failed: " + orchestrator.FailureMessage(cause)
	if err := s.setStatus(ctx, letter, artifact.StatusFailed, msg); err != nil {
		telemetry.Error("cover_letter_mark_failed_error", map[string]any{
			"user_id":         telemetry.OwnerField(letter.UserID),
			"cover_letter_id": letter.ID,
			"error":           util.SanitizeError(err),
		})
	}
}

func (s *Service) setStatus(ctx context.Context, letter *CoverLetter, to artifact.Status, errMsg string) error {
	if letter.Status != to {
		if err := artifact.Transition(letter.Status, to); err != nil {
			if to != artifact.StatusGenerating || artifact.Regenerate(letter.Status) != nil {
				return err
			}
		}
	}
	if err := s.Repo.UpdateStatus(ctx, letter.UserID, letter.ID, to, errMsg); err != nil {
		return err
	}
	letter.Status = to
	letter.ErrorMessage = errMsg
	return nil
}

func validate(in GenerateInput) (GenerateInput, error) {
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.JobDescription = strings.TrimSpace(in.JobDescription)
	in.ResumeID = strings.TrimSpace(in.ResumeID)
	in.CustomInstructions = strings.TrimSpace(in.CustomInstructions)

	switch {
	case in.JobTitle == "":
		return in, apperr.Invalid("job_title", "job_title is required")
	case utf8.RuneCountInString(in.JobTitle) > maxTitleLen:
		return in, apperr.Invalid("job_title", "job_title must be at most %d characters", maxTitleLen)
	case in.CompanyName == "":
		return in, apperr.Invalid("company_name", "company_name is required")
	case utf8.RuneCountInString(in.CompanyName) > maxTitleLen:
		return in, apperr.Invalid("company_name", "company_name must be at most %d characters", maxTitleLen)
	case utf8.RuneCountInString(in.JobDescription) > maxDescriptionLen:
		return in, apperr.Invalid("job_description", "job_description must be at most %d characters", maxDescriptionLen)
	case utf8.RuneCountInString(in.CustomInstructions) > maxInstructionsLen:
		return in, apperr.Invalid("custom_instructions", "custom_instructions must be at most %d characters", maxInstructionsLen)
	case len(in.FocusAreas) > maxFocusAreas:
		return in, apperr.Invalid("focus_areas", "at most %d focus areas are allowed", maxFocusAreas)
	}

	in.Tone = strings.ToLower(strings.TrimSpace(in.Tone))
	if !tones[in.Tone] {
		in.Tone = DefaultTone
	}
	in.Length = strings.ToLower(strings.TrimSpace(in.Length))
	if !lengths[in.Length] {
		in.Length = DefaultLength
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
