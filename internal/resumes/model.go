package resumes

import (
	"time"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/normalize"
)

// Resume is an uploaded resume and its analysis.
type Resume struct {
	ID               string
	UserID           int64
	OriginalFilename string
	StorageKey       string
	FileSize         int64
	MimeType         string
	FileHash         string
	ExtractedText    string
	Analysis         map[string]any
	Status           artifact.Status
	ErrorMessage     string
	CacheEntry       bool
	ModelUsed        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AnalyzedAt       *time.Time
}

// Analysis is the typed view of a normalized analysis payload.
type Analysis struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	SuitableRoles   []string `json:"suitable_roles"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	ATSScore        int      `json:"ats_score"`
	Summary         string   `json:"summary"`
	ParseError      string   `json:"parse_error,omitempty"`
}

// AnalysisSchema is the required-field table for resume analyses. A cached
// analysis missing any of these fields is re-run.
var AnalysisSchema = normalize.Schema{
	Kind: "resume_analysis",
	Fields: []normalize.Field{
		normalize.List("strengths", 10),
		normalize.List("weaknesses", 10),
		normalize.List("recommendations", 10),
		normalize.List("suitable_roles", 10),
		normalize.List("skills", 50),
		normalize.Int("experience_years", 0, 0, 60),
		normalize.Int("ats_score", 0, 0, 100),
		normalize.Text("summary", ""),
	},
	Fallback: map[string]any{
		"strengths":       []any{"Unable to parse analysis"},
		"recommendations": []any{"Please try uploading your resume again"},
	},
}

// Typed decodes the stored analysis payload.
func (r Resume) Typed() (Analysis, error) {
	var a Analysis
	if len(r.Analysis) == 0 {
		return a, nil
	}
	err := normalize.Decode(r.Analysis, &a)
	return a, err
}

// Background condenses an analysis into prompt context for other artifacts.
func (a Analysis) Background() llm.Background {
	return llm.Background{
		Skills:          a.Skills,
		ExperienceYears: a.ExperienceYears,
		Strengths:       a.Strengths,
		SuitableRoles:   a.SuitableRoles,
		Summary:         a.Summary,
	}
}
