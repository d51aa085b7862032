package coverletters

import "time"

// GenerateRequest is the body of POST /cover-letters/generate.
type GenerateRequest struct {
	JobTitle           string   `json:"job_title"`
	CompanyName        string   `json:"company_name"`
	JobDescription     string   `json:"job_description"`
	ResumeID           string   `json:"resume_id"`
	Tone               string   `json:"tone"`
	Length             string   `json:"length"`
	FocusAreas         []string `json:"focus_areas"`
	CustomInstructions string   `json:"custom_instructions"`
}

// UpdateRequest is the body of PUT /cover-letters/:id. Regenerate wins over
// Content when both are set.
type UpdateRequest struct {
	Content    string `json:"content"`
	Regenerate bool   `json:"regenerate"`
}

// CoverLetterResponse is the outward-facing representation of a cover letter.
type CoverLetterResponse struct {
	ID           string     `json:"id"`
	ResumeID     string     `json:"resume_id,omitempty"`
	JobTitle     string     `json:"job_title"`
	CompanyName  string     `json:"company_name"`
	Content      string     `json:"content"`
	Status       string     `json:"status"`
	Version      int        `json:"version"`
	WordCount    int        `json:"word_count"`
	Tone         string     `json:"tone"`
	Length       string     `json:"length"`
	FocusAreas   []string   `json:"focus_areas"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ModelUsed    string     `json:"model_used,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	GeneratedAt  *time.Time `json:"generated_at,omitempty"`
}

// SummaryResponse is one row of the cover letter list.
type SummaryResponse struct {
	ID          string    `json:"id"`
	JobTitle    string    `json:"job_title"`
	CompanyName string    `json:"company_name"`
	Status      string    `json:"status"`
	Version     int       `json:"version"`
	WordCount   int       `json:"word_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(c CoverLetter) CoverLetterResponse {
	focus := c.Params.FocusAreas
	if focus == nil {
		focus = []string{}
	}
	return CoverLetterResponse{
		ID:           c.ID,
		ResumeID:     c.ResumeID,
		JobTitle:     c.JobTitle,
		CompanyName:  c.CompanyName,
		Content:      c.Content,
		Status:       string(c.Status),
		Version:      c.Version,
		WordCount:    c.WordCount,
		Tone:         c.Params.Tone,
		Length:       c.Params.Length,
		FocusAreas:   focus,
		ErrorMessage: c.ErrorMessage,
		ModelUsed:    c.ModelUsed,
		CreatedAt:    c.CreatedAt,
		GeneratedAt:  c.GeneratedAt,
	}
}

func toSummary(c CoverLetter) SummaryResponse {
	return SummaryResponse{
		ID:          c.ID,
		JobTitle:    c.JobTitle,
		CompanyName: c.CompanyName,
		Status:      string(c.Status),
		Version:     c.Version,
		WordCount:   c.WordCount,
		CreatedAt:   c.CreatedAt,
	}
}
