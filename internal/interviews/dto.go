package interviews

import (
	"time"

	"pathpilot-backend/internal/artifact"
)

// CreateRequest is the body of POST /interviews/generate-questions.
type CreateRequest struct {
	JobTitle       string   `json:"job_title"`
	CompanyName    string   `json:"company_name"`
	JobDescription string   `json:"job_description"`
	ResumeID       string   `json:"resume_id"`
	InterviewType  string   `json:"interview_type"`
	Difficulty     string   `json:"difficulty"`
	QuestionCount  int      `json:"question_count"`
	FocusAreas     []string `json:"focus_areas"`
	Language       string   `json:"language"`
}

// AnswerRequest is the body of POST /interviews/:id/evaluate-answer.
type AnswerRequest struct {
	QuestionID     int    `json:"question_id"`
	AnswerText     string `json:"answer_text"`
	AnswerAudioURL string `json:"answer_audio_url"`
}

// InterviewResponse is the outward-facing representation of an interview.
type InterviewResponse struct {
	ID           string     `json:"id"`
	JobTitle     string     `json:"job_title"`
	CompanyName  string     `json:"company_name,omitempty"`
	Status       string     `json:"status"`
	Config       Config     `json:"config"`
	Questions    []Question `json:"questions"`
	Answers      []Answer   `json:"answers"`
	Progress     Progress   `json:"progress"`
	TotalScore   *float64   `json:"total_score"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// SummaryResponse is one row of the interview history.
type SummaryResponse struct {
	ID              string     `json:"id"`
	JobTitle        string     `json:"job_title"`
	CompanyName     string     `json:"company_name,omitempty"`
	Status          string     `json:"status"`
	QuestionCount   int        `json:"question_count"`
	AnsweredCount   int        `json:"answered_count"`
	ProgressPercent float64    `json:"progress_percent"`
	TotalScore      *float64   `json:"total_score"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// EvaluationResponse is returned after an answer is scored.
type EvaluationResponse struct {
	QuestionID  int        `json:"question_id"`
	Evaluation  Evaluation `json:"evaluation"`
	Progress    Progress   `json:"progress"`
	IsCompleted bool       `json:"is_completed"`
	TotalScore  *float64   `json:"total_score"`
}

func toResponse(iv Interview) InterviewResponse {
	questions := iv.Questions
	if questions == nil {
		questions = []Question{}
	}
	answers := iv.Answers
	if answers == nil {
		answers = []Answer{}
	}
	return InterviewResponse{
		ID:           iv.ID,
		JobTitle:     iv.JobTitle,
		CompanyName:  iv.CompanyName,
		Status:       string(iv.Status),
		Config:       iv.Config,
		Questions:    questions,
		Answers:      answers,
		Progress:     iv.Progress(),
		TotalScore:   iv.TotalScore,
		ErrorMessage: iv.ErrorMessage,
		CreatedAt:    iv.CreatedAt,
		StartedAt:    iv.StartedAt,
		CompletedAt:  iv.CompletedAt,
	}
}

func toSummary(iv Interview) SummaryResponse {
	p := iv.Progress()
	return SummaryResponse{
		ID:              iv.ID,
		JobTitle:        iv.JobTitle,
		CompanyName:     iv.CompanyName,
		Status:          string(iv.Status),
		QuestionCount:   p.TotalQuestions,
		AnsweredCount:   p.Answered,
		ProgressPercent: p.ProgressPercent,
		TotalScore:      iv.TotalScore,
		CreatedAt:       iv.CreatedAt,
		CompletedAt:     iv.CompletedAt,
	}
}

func toEvaluation(res EvaluationResult) EvaluationResponse {
	completed := res.Interview.Status == artifact.StatusCompleted
	resp := EvaluationResponse{
		QuestionID:  res.QuestionID,
		Evaluation:  res.Evaluation,
		Progress:    res.Interview.Progress(),
		IsCompleted: completed,
	}
	if completed {
		resp.TotalScore = res.Interview.TotalScore
	}
	return resp
}
