package jobs

import (
	"time"

	"pathpilot-backend/internal/normalize"
)

// Job is a saved job posting.
type Job struct {
	ID              string
	UserID          int64
	Title           string
	Company         string
	Location        string
	JobType         string
	ExperienceLevel string
	Description     string
	Requirements    string
	SalaryRange     string
	URL             string
	MatchAnalysis   map[string]any
	MatchScore      *float64
	IsSaved         bool
	Notes           string
	Source          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Filter narrows a job search. Empty fields match everything.
type Filter struct {
	Query           string
	Location        string
	JobType         string
	ExperienceLevel string
	Limit           int
}

// Match is the typed view of a normalized match analysis.
type Match struct {
	MatchScore             int      `json:"match_score"`
	MatchLevel             string   `json:"match_level"`
	MatchingSkills         []string `json:"matching_skills"`
	MissingSkills          []string `json:"missing_skills"`
	RelevantStrengths      []string `json:"relevant_strengths"`
	ImprovementAreas       []string `json:"improvement_areas"`
	Recommendation         string   `json:"recommendation"`
	KeyRequirementsMet     []string `json:"key_requirements_met"`
	KeyRequirementsMissing []string `json:"key_requirements_missing"`
	ParseError             string   `json:"parse_error,omitempty"`
}

// Recommendation is one suggested role.
type Recommendation struct {
	Title           string   `json:"title"`
	CompanyType     string   `json:"company_type"`
	Industry        string   `json:"industry"`
	Location        string   `json:"location"`
	JobType         string   `json:"job_type"`
	ExperienceLevel string   `json:"experience_level"`
	MatchScore      int      `json:"match_score"`
	MatchReason     string   `json:"match_reason"`
	MatchingSkills  []string `json:"matching_skills"`
	SkillsToDevelop []string `json:"skills_to_develop"`
	SampleCompanies []string `json:"sample_companies"`
	ParseError      string   `json:"parse_error,omitempty"`
}

// Match levels, strongest first.
const (
	LevelStrong   = "Strong Match"
	LevelGood     = "Good Match"
	LevelModerate = "Moderate Match"
	LevelWeak     = "Weak Match"
)

// MatchSchema is the required-field table for match analyses.
var MatchSchema = normalize.Schema{
	Kind: "job_match",
	Fields: []normalize.Field{
		normalize.Int("match_score", 70, 0, 100),
		normalize.Enum("match_level", LevelModerate, LevelStrong, LevelGood, LevelModerate, LevelWeak),
		normalize.List("matching_skills", 20),
		normalize.List("missing_skills", 20),
		normalize.List("relevant_strengths", 10),
		normalize.List("improvement_areas", 10),
		normalize.Text("recommendation", "Please review the job requirements carefully."),
		normalize.List("key_requirements_met", 10),
		normalize.List("key_requirements_missing", 10),
	},
}

// RecommendationSchema normalizes each recommended role.
var RecommendationSchema = normalize.Schema{
	Kind: "job_recommendation",
	Fields: []normalize.Field{
		normalize.Text("title", "Unknown Position"),
		normalize.Text("company_type", "Various"),
		normalize.Text("industry", "Technology"),
		normalize.Text("location", "Various"),
		normalize.Text("job_type", "full-time"),
		normalize.Text("experience_level", "mid"),
		normalize.Int("match_score", 70, 0, 100),
		normalize.Text("match_reason", "Good skill match"),
		normalize.List("matching_skills", 10),
		normalize.List("skills_to_develop", 10),
		normalize.List("sample_companies", 5),
	},
}

// fallbackRecommendation is returned when the reply holds no usable roles.
func fallbackRecommendation(parseError string) Recommendation {
	return Recommendation{
		Title:           "Software Engineer",
		CompanyType:     "Various",
		Industry:        "Technology",
		Location:        "Various",
		JobType:         "full-time",
		ExperienceLevel: "mid",
		MatchScore:      75,
		MatchReason:     "Based on your technical skills",
		MatchingSkills:  []string{},
		SkillsToDevelop: []string{},
		SampleCompanies: []string{},
		ParseError:      parseError,
	}
}

// levelFor derives a match level from a score.
func levelFor(score int) string {
	switch {
	case score >= 85:
		return LevelStrong
	case score >= 70:
		return LevelGood
	case score >= 50:
		return LevelModerate
	default:
		return LevelWeak
	}
}
