package jobs

import (
	"time"

	"pathpilot-backend/internal/llm"
)

// SaveRequest is the body of POST /jobs/save.
type SaveRequest struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	SalaryRange     string `json:"salary_range"`
	URL             string `json:"url"`
	Notes           string `json:"notes"`
	Source          string `json:"source"`
}

// SearchRequest is the body of POST /jobs/search.
type SearchRequest struct {
	Query           string `json:"query"`
	Location        string `json:"location"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	Limit           int    `json:"limit"`
}

// MatchRequest is the body of POST /jobs/match.
type MatchRequest struct {
	ResumeID       string `json:"resume_id"`
	JobID          string `json:"job_id"`
	JobTitle       string `json:"job_title"`
	Company        string `json:"company"`
	JobDescription string `json:"job_description"`
}

// PreferencesRequest narrows recommendations.
type PreferencesRequest struct {
	Location        string `json:"location"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	Industry        string `json:"industry"`
}

// RecommendRequest is the body of POST /jobs/recommend.
type RecommendRequest struct {
	ResumeID    string              `json:"resume_id"`
	Preferences *PreferencesRequest `json:"preferences"`
	Count       int                 `json:"count"`
}

// JobResponse is the outward-facing representation of a job.
type JobResponse struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Company         string         `json:"company"`
	Location        string         `json:"location,omitempty"`
	JobType         string         `json:"job_type,omitempty"`
	ExperienceLevel string         `json:"experience_level,omitempty"`
	Description     string         `json:"description,omitempty"`
	Requirements    string         `json:"requirements,omitempty"`
	SalaryRange     string         `json:"salary_range,omitempty"`
	URL             string         `json:"url,omitempty"`
	MatchScore      *float64       `json:"match_score"`
	MatchAnalysis   map[string]any `json:"match_analysis,omitempty"`
	IsSaved         bool           `json:"is_saved"`
	Notes           string         `json:"notes,omitempty"`
	Source          string         `json:"source"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
	Query string        `json:"query"`
}

// MatchResponse is the result of POST /jobs/match.
type MatchResponse struct {
	Match
	JobID    string `json:"job_id,omitempty"`
	Fallback bool   `json:"fallback"`
}

// RecommendResponse is the result of POST /jobs/recommend.
type RecommendResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Total           int              `json:"total"`
	Fallback        bool             `json:"fallback"`
}

func (r SaveRequest) input() SaveInput {
	return SaveInput{
		Title:           r.Title,
		Company:         r.Company,
		Location:        r.Location,
		JobType:         r.JobType,
		ExperienceLevel: r.ExperienceLevel,
		Description:     r.Description,
		Requirements:    r.Requirements,
		SalaryRange:     r.SalaryRange,
		URL:             r.URL,
		Notes:           r.Notes,
		Source:          r.Source,
	}
}

func (r RecommendRequest) input() RecommendInput {
	in := RecommendInput{ResumeID: r.ResumeID, Count: r.Count}
	if p := r.Preferences; p != nil {
		in.Preferences = &llm.Preferences{
			Location:        p.Location,
			JobType:         p.JobType,
			ExperienceLevel: p.ExperienceLevel,
			Industry:        p.Industry,
		}
	}
	return in
}

func toResponse(j Job) JobResponse {
	return JobResponse{
		ID:              j.ID,
		Title:           j.Title,
		Company:         j.Company,
		Location:        j.Location,
		JobType:         j.JobType,
		ExperienceLevel: j.ExperienceLevel,
		Description:     j.Description,
		Requirements:    j.Requirements,
		SalaryRange:     j.SalaryRange,
		URL:             j.URL,
		MatchScore:      j.MatchScore,
		MatchAnalysis:   j.MatchAnalysis,
		IsSaved:         j.IsSaved,
		Notes:           j.Notes,
		Source:          j.Source,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

func toResponses(jobs []Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toResponse(j))
	}
	return out
}
