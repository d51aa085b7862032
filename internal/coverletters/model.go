package coverletters

import (
	"strings"
	"time"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
)

// Tones and lengths accepted by the generator. Unknown values fall back to
// the defaults.
const (
	DefaultTone   = "professional"
	DefaultLength = "medium"
)

var (
	tones   = map[string]bool{"professional": true, "casual": true, "enthusiastic": true}
	lengths = map[string]bool{"short": true, "medium": true, "long": true}
)

// Params are the generation inputs kept so a letter can be regenerated.
type Params struct {
	Tone               string          `json:"tone"`
	Length             string          `json:"length"`
	FocusAreas         []string        `json:"focus_areas"`
	CustomInstructions string          `json:"custom_instructions,omitempty"`
	ResumeSummary      *llm.Background `json:"resume_summary,omitempty"`
}

// CoverLetter is a generated cover letter.
type CoverLetter struct {
	ID             string
	UserID         int64
	ResumeID       string
	JobTitle       string
	CompanyName    string
	JobDescription string
	Content        string
	WordCount      int
	Params         Params
	Version        int
	Status         artifact.Status
	ErrorMessage   string
	ModelUsed      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	GeneratedAt    *time.Time
}

// CountWords counts whitespace-separated words.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

func (p Params) prompt(c CoverLetter) llm.CoverLetterInput {
	return llm.CoverLetterInput{
		JobTitle:           c.JobTitle,
		CompanyName:        c.CompanyName,
		JobDescription:     c.JobDescription,
		Background:         p.ResumeSummary,
		Tone:               p.Tone,
		Length:             p.Length,
		FocusAreas:         p.FocusAreas,
		CustomInstructions: p.CustomInstructions,
	}
}
