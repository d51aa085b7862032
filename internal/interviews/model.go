package interviews

import (
	"math"
	"time"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/normalize"
)

const (
	DefaultType          = "mixed"
	DefaultDifficulty    = "mid"
	DefaultLanguage      = "en"
	DefaultQuestionCount = 5
	MaxQuestionCount     = 10
)

var (
	interviewTypes = map[string]bool{"behavioral": true, "technical": true, "mixed": true}
	difficulties   = map[string]bool{"entry": true, "mid": true, "senior": true}
	languages      = map[string]bool{"en": true, "ko": true}
)

// Config holds the generation inputs of an interview.
type Config struct {
	InterviewType string          `json:"interview_type"`
	Difficulty    string          `json:"difficulty"`
	QuestionCount int             `json:"question_count"`
	FocusAreas    []string        `json:"focus_areas"`
	Language      string          `json:"language"`
	ResumeSummary *llm.Background `json:"resume_summary,omitempty"`
}

// Question is one generated interview question.
type Question struct {
	ID               int      `json:"id"`
	Question         string   `json:"question"`
	Type             string   `json:"type"`
	Difficulty       int      `json:"difficulty"`
	ExpectedTopics   []string `json:"expected_topics"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	Tips             string   `json:"tips"`
}

// Evaluation is the model's assessment of one answer.
type Evaluation struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Feedback     string   `json:"feedback"`
	ModelAnswer  string   `json:"model_answer"`
	ParseError   string   `json:"parse_error,omitempty"`
}

// Answer is a submitted answer and its evaluation.
type Answer struct {
	QuestionID     int        `json:"question_id"`
	AnswerText     string     `json:"answer_text"`
	AnswerAudioURL string     `json:"answer_audio_url,omitempty"`
	AnsweredAt     time.Time  `json:"answered_at"`
	Evaluation     Evaluation `json:"evaluation"`
}

// Interview is a mock interview session.
type Interview struct {
	ID             string
	UserID         int64
	ResumeID       string
	JobTitle       string
	CompanyName    string
	JobDescription string
	Config         Config
	Questions      []Question
	Answers        []Answer
	TotalScore     *float64
	Status         artifact.Status
	ErrorMessage   string
	ModelUsed      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// Progress summarizes how far a session has come.
type Progress struct {
	TotalQuestions  int     `json:"total_questions"`
	Answered        int     `json:"answered"`
	Remaining       int     `json:"remaining"`
	ProgressPercent float64 `json:"progress_percent"`
}

// Progress reports answered versus total questions.
func (iv Interview) Progress() Progress {
	total := len(iv.Questions)
	answered := len(iv.Answers)
	p := Progress{TotalQuestions: total, Answered: answered, Remaining: total - answered}
	if total > 0 {
		p.ProgressPercent = round1(float64(answered) / float64(total) * 100)
	}
	if p.Remaining < 0 {
		p.Remaining = 0
	}
	return p
}

// Question returns the question with the given id.
func (iv Interview) Question(id int) (Question, bool) {
	for _, q := range iv.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// upsertAnswer replaces the answer to the same question or appends it.
func (iv *Interview) upsertAnswer(a Answer) {
	for i := range iv.Answers {
		if iv.Answers[i].QuestionID == a.QuestionID {
			iv.Answers[i] = a
			return
		}
	}
	iv.Answers = append(iv.Answers, a)
}

// averageScore is the mean answer score rounded to one decimal.
func (iv Interview) averageScore() float64 {
	if len(iv.Answers) == 0 {
		return 0
	}
	sum := 0
	for _, a := range iv.Answers {
		sum += a.Evaluation.Score
	}
	return round1(float64(sum) / float64(len(iv.Answers)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// QuestionSchema normalizes each generated question.
var QuestionSchema = normalize.Schema{
	Kind: "interview_question",
	Fields: []normalize.Field{
		normalize.Int("id", 0, 0, 1000),
		normalize.Text("question", ""),
		normalize.Enum("type", "behavioral", "behavioral", "technical", "situational"),
		normalize.Int("difficulty", 3, 1, 5),
		normalize.List("expected_topics", 10),
		normalize.Int("time_limit_seconds", 120, 30, 600),
		normalize.Text("tips", ""),
	},
}

// EvaluationSchema normalizes an answer evaluation. Unparseable replies get a
// canned evaluation in the interview language.
func EvaluationSchema(language string) normalize.Schema {
	fallback := map[string]any{
		"score":        60,
		"strengths":    []any{"You submitted an answer"},
		"improvements": []any{"Add more concrete examples"},
		"feedback":     "Your answer was evaluated. Including more specific experience and numbers would make it stronger.",
	}
	feedback := "Evaluation completed."
	if language == "ko" {
		fallback = map[string]any{
			"score":        60,
			"strengths":    []any{"답변을 제출했습니다"},
			"improvements": []any{"더 구체적인 예시를 들어주세요"},
			"feedback":     "답변을 평가했습니다. 더 구체적인 경험과 수치를 포함하면 좋겠습니다.",
		}
		feedback = "평가를 완료했습니다."
	}
	return normalize.Schema{
		Kind: "answer_evaluation",
		Fields: []normalize.Field{
			normalize.Int("score", 50, 0, 100),
			normalize.List("strengths", 5),
			normalize.List("improvements", 5),
			normalize.Text("feedback", feedback),
			normalize.Text("model_answer", ""),
		},
		Fallback: fallback,
	}
}

type cannedQuestion struct {
	text   string
	kind   string
	topics []string
}

var cannedQuestions = map[string][]cannedQuestion{
	"en": {
		{"Why are you interested in the %s position?", "behavioral", []string{"motivation", "passion", "career goals"}},
		{"Tell me about your most challenging project experience.", "behavioral", []string{"problem solving", "teamwork", "results"}},
		{"How do you handle conflicts within a team?", "situational", []string{"communication", "collaboration", "leadership"}},
		{"What are your strengths and weaknesses?", "behavioral", []string{"self-awareness", "growth", "improvement"}},
		{"Where do you see yourself in 5 years?", "behavioral", []string{"career plan", "goals", "growth"}},
	},
	"ko": {
		{"%s 직무에 지원하게 된 동기가 무엇인가요?", "behavioral", []string{"동기", "열정", "경력 목표"}},
		{"가장 도전적이었던 프로젝트 경험을 말씀해주세요.", "behavioral", []string{"문제 해결", "팀워크", "성과"}},
		{"팀에서 갈등이 발생했을 때 어떻게 해결하셨나요?", "situational", []string{"커뮤니케이션", "협업", "리더십"}},
		{"본인의 강점과 약점은 무엇이라고 생각하시나요?", "behavioral", []string{"자기인식", "성장", "개선"}},
		{"5년 후 본인의 모습을 어떻게 그리고 계신가요?", "behavioral", []string{"경력 계획", "목표", "성장"}},
	},
}
