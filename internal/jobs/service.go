package jobs

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/normalize"
	"pathpilot-backend/internal/orchestrator"
	"pathpilot-backend/internal/shared/apperr"
	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/telemetry"
)

const (
	operationMatch     = "job_match"
	operationRecommend = "job_recommendations"

	DefaultRecommendations = 5
	MaxRecommendations     = 10
	MaxSearchLimit         = 100

	minDescriptionLen = 10
	maxDescriptionLen = 10000
)

// BackgroundSource resolves an analyzed resume into prompt context.
type BackgroundSource interface {
	Background(ctx context.Context, userID int64, resumeID string) (llm.Background, error)
}

// SaveInput is a job to add to the owner's list.
type SaveInput struct {
	Title           string
	Company         string
	Location        string
	JobType         string
	ExperienceLevel string
	Description     string
	Requirements    string
	SalaryRange     string
	URL             string
	Notes           string
	Source          string
}

// MatchInput asks how well a resume fits a job. JobID fills any missing
// posting fields from the saved job and receives the result.
type MatchInput struct {
	ResumeID       string
	JobID          string
	JobTitle       string
	Company        string
	JobDescription string
}

// MatchResult is a normalized match analysis.
type MatchResult struct {
	Match    Match
	JobID    string
	Fallback bool
	Model    string
}

// RecommendInput asks for roles suited to a resume.
type RecommendInput struct {
	ResumeID    string
	Preferences *llm.Preferences
	Count       int
}

// Service contains business logic for jobs.
type Service struct {
	Repo         Repo
	Orchestrator *orchestrator.Orchestrator
	Resumes      BackgroundSource
}

// NewService constructs a Service.
func NewService(repo Repo, orch *orchestrator.Orchestrator, resumes BackgroundSource) *Service {
	return &Service{Repo: repo, Orchestrator: orch, Resumes: resumes}
}

// Save adds a job to the owner's saved list.
func (s *Service) Save(ctx context.Context, userID int64, in SaveInput) (Job, error) {
	in, err := validateSave(in)
	if err != nil {
		return Job{}, err
	}
	now := time.Now().UTC()
	j := Job{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           in.Title,
		Company:         in.Company,
		Location:        in.Location,
		JobType:         in.JobType,
		ExperienceLevel: in.ExperienceLevel,
		Description:     in.Description,
		Requirements:    in.Requirements,
		SalaryRange:     in.SalaryRange,
		URL:             in.URL,
		IsSaved:         true,
		Notes:           in.Notes,
		Source:          in.Source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, j); err != nil {
		return Job{}, err
	}
	telemetry.Info("job_saved", map[string]any{
		"user_id": telemetry.OwnerField(userID),
		"job_id":  j.ID,
	})
	return j, nil
}

// Saved lists saved jobs best match first.
func (s *Service) Saved(ctx context.Context, userID int64, limit int) ([]Job, error) {
	return s.Repo.ListSaved(ctx, userID, limit)
}

// Get returns one job.
func (s *Service) Get(ctx context.Context, userID int64, id string) (Job, error) {
	return s.Repo.Get(ctx, userID, id)
}

// Delete removes a saved job.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.Repo.Delete(ctx, userID, id)
}

// Search filters the owner's jobs.
func (s *Service) Search(ctx context.Context, userID int64, f Filter) ([]Job, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Location = strings.TrimSpace(f.Location)
	f.JobType = strings.TrimSpace(f.JobType)
	f.ExperienceLevel = strings.TrimSpace(f.ExperienceLevel)
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	telemetry.Info("job_search_started", map[string]any{
		"user_id":  telemetry.OwnerField(userID),
		"query":    privacy.Scrub(f.Query),
		"location": f.Location,
		"job_type": f.JobType,
	})
	jobs, err := s.Repo.Search(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	telemetry.Info("job_search_completed", map[string]any{
		"user_id":       telemetry.OwnerField(userID),
		"results_count": len(jobs),
	})
	return jobs, nil
}

// Match scores a resume against a job posting. A usable result is stored
// on the saved job when JobID is set.
func (s *Service) Match(ctx context.Context, userID int64, in MatchInput) (MatchResult, error) {
	start := time.Now()
	in.ResumeID = strings.TrimSpace(in.ResumeID)
	in.JobID = strings.TrimSpace(in.JobID)
	if in.ResumeID == "" {
		return MatchResult{}, apperr.Invalid("resume_id", "resume_id is required")
	}
	if in.JobID != "" {
		j, err := s.Repo.Get(ctx, userID, in.JobID)
		if err != nil {
			return MatchResult{}, err
		}
		in.JobTitle = firstNonEmpty(in.JobTitle, j.Title)
		in.Company = firstNonEmpty(in.Company, j.Company)
		in.JobDescription = firstNonEmpty(in.JobDescription, j.Description)
	}
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.JobDescription = strings.TrimSpace(in.JobDescription)
	switch n := utf8.RuneCountInString(in.JobDescription); {
	case in.JobTitle == "":
		return MatchResult{}, apperr.Invalid("job_title", "job_title is required")
	case n < minDescriptionLen:
		return MatchResult{}, apperr.Invalid("job_description", "job_description must be at least %d characters", minDescriptionLen)
	case n > maxDescriptionLen:
		return MatchResult{}, apperr.Invalid("job_description", "job_description must be at most %d characters", maxDescriptionLen)
	}

	bg, err := s.Resumes.Background(ctx, userID, in.ResumeID)
	if err != nil {
		return MatchResult{}, err
	}

	telemetry.Info("job_match_analysis_started", map[string]any{
		"user_id":   telemetry.OwnerField(userID),
		"resume_id": in.ResumeID,
		"job_title": privacy.Scrub(in.JobTitle),
	})

	out, err := s.Orchestrator.Produce(ctx, orchestrator.Request{
		Owner:     userID,
		Operation: operationMatch,
		Schema:    MatchSchema,
		Prompt: func(ctx context.Context) (string, error) {
			return llm.JobMatchPrompt(llm.JobMatchInput{
				Background:     bg,
				JobTitle:       in.JobTitle,
				Company:        strings.TrimSpace(in.Company),
				JobDescription: in.JobDescription,
			})
		},
	})
	if err != nil {
		return MatchResult{}, err
	}

	values := out.Values
	if !out.Fallback && slices.Contains(out.Backfilled, "match_level") {
		values["match_level"] = levelFor(toInt(values["match_score"]))
	}
	var m Match
	if err := normalize.Decode(values, &m); err != nil {
		return MatchResult{}, fmt.Errorf("decode match: %w", err)
	}
	if out.Fallback {
		m.ParseError = out.ParseError
	}

	if in.JobID != "" && !out.Fallback {
		if err := s.Repo.SaveMatch(ctx, userID, in.JobID, values, float64(m.MatchScore)); err != nil {
			return MatchResult{}, err
		}
	}

	telemetry.Info("job_match_analysis_completed", map[string]any{
		"user_id":     telemetry.OwnerField(userID),
		"match_score": m.MatchScore,
		"fallback":    out.Fallback,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return MatchResult{Match: m, JobID: in.JobID, Fallback: out.Fallback, Model: out.Model}, nil
}

// Recommend suggests roles for an analyzed resume. A reply with no usable
// roles yields one canned recommendation.
func (s *Service) Recommend(ctx context.Context, userID int64, in RecommendInput) ([]Recommendation, bool, error) {
	in.ResumeID = strings.TrimSpace(in.ResumeID)
	if in.ResumeID == "" {
		return nil, false, apperr.Invalid("resume_id", "resume_id is required")
	}
	switch {
	case in.Count == 0:
		in.Count = DefaultRecommendations
	case in.Count < 1:
		in.Count = 1
	case in.Count > MaxRecommendations:
		in.Count = MaxRecommendations
	}

	bg, err := s.Resumes.Background(ctx, userID, in.ResumeID)
	if err != nil {
		return nil, false, err
	}

	telemetry.Info("job_recommendations_started", map[string]any{
		"user_id":   telemetry.OwnerField(userID),
		"resume_id": in.ResumeID,
		"count":     in.Count,
	})

	out, err := s.Orchestrator.Produce(ctx, orchestrator.Request{
		Owner:     userID,
		Operation: operationRecommend,
		Output:    orchestrator.OutputList,
		Schema:    RecommendationSchema,
		Limit:     in.Count,
		Prompt: func(ctx context.Context) (string, error) {
			return llm.JobRecommendationsPrompt(llm.JobRecommendationsInput{
				Background:  bg,
				Preferences: in.Preferences,
				Count:       in.Count,
			})
		},
	})
	if err != nil {
		return nil, false, err
	}
	if out.Fallback {
		return []Recommendation{fallbackRecommendation(out.ParseError)}, true, nil
	}

	recs := make([]Recommendation, 0, len(out.Items))
	for _, item := range out.Items {
		var rec Recommendation
		if err := normalize.Decode(item, &rec); err != nil {
			return nil, false, fmt.Errorf("decode recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	telemetry.Info("job_recommendations_completed", map[string]any{
		"user_id": telemetry.OwnerField(userID),
		"count":   len(recs),
	})
	return recs, false, nil
}

func validateSave(in SaveInput) (SaveInput, error) {
	trim := []*string{&in.Title, &in.Company, &in.Location, &in.JobType, &in.ExperienceLevel,
		&in.Description, &in.Requirements, &in.SalaryRange, &in.URL, &in.Notes, &in.Source}
	for _, p := range trim {
		*p = strings.TrimSpace(*p)
	}
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"title", in.Title, 255},
		{"company", in.Company, 255},
		{"location", in.Location, 255},
		{"job_type", in.JobType, 50},
		{"experience_level", in.ExperienceLevel, 50},
		{"description", in.Description, maxDescriptionLen},
		{"url", in.URL, 1000},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return in, apperr.Invalid(l.field, "%s must be at most %d characters", l.field, l.max)
		}
	}
	if in.Title == "" {
		return in, apperr.Invalid("title", "title is required")
	}
	if in.Company == "" {
		return in, apperr.Invalid("company", "company is required")
	}
	if in.URL != "" {
		u, err := url.Parse(in.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return in, apperr.Invalid("url", "url must be an http(s) URL")
		}
	}
	if in.Source == "" {
		in.Source = "manual"
	}
	return in, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
