package resumes

import "time"

// ResumeResponse is the outward-facing representation of a resume.
type ResumeResponse struct {
	ID               string         `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	FileSize         int64          `json:"file_size"`
	MimeType         string         `json:"mime_type"`
	Status           string         `json:"status"`
	Analysis         map[string]any `json:"analysis_result,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Cached           bool           `json:"cached"`
	CreatedAt        time.Time      `json:"created_at"`
	AnalyzedAt       *time.Time     `json:"analyzed_at,omitempty"`
}

// AnalysisResponse is returned by the analysis endpoint.
type AnalysisResponse struct {
	ResumeID   string     `json:"resume_id"`
	Status     string     `json:"status"`
	Analysis   Analysis   `json:"analysis"`
	ModelUsed  string     `json:"model_used,omitempty"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
}

func toResponse(res Resume, cached bool) ResumeResponse {
	return ResumeResponse{
		ID:               res.ID,
		OriginalFilename: res.OriginalFilename,
		FileSize:         res.FileSize,
		MimeType:         res.MimeType,
		Status:           string(res.Status),
		Analysis:         res.Analysis,
		ErrorMessage:     res.ErrorMessage,
		Cached:           cached,
		CreatedAt:        res.CreatedAt,
		AnalyzedAt:       res.AnalyzedAt,
	}
}
