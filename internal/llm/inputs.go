package llm

// Background is the resume summary fed into downstream prompts.
type Background struct {
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	Strengths       []string `json:"strengths"`
	SuitableRoles   []string `json:"suitable_roles"`
	Summary         string   `json:"summary,omitempty"`
}

// ResumeAnalysisInput parameterizes the resume analysis prompt.
type ResumeAnalysisInput struct {
	ResumeText string
}

// CoverLetterInput parameterizes the cover letter prompt.
type CoverLetterInput struct {
	JobTitle           string
	CompanyName        string
	JobDescription     string
	Background         *Background
	Tone               string
	Length             string
	FocusAreas         []string
	CustomInstructions string
}

// InterviewQuestionsInput parameterizes question generation.
type InterviewQuestionsInput struct {
	JobTitle       string
	CompanyName    string
	JobDescription string
	Background     *Background
	InterviewType  string
	Difficulty     string
	QuestionCount  int
	FocusAreas     []string
	Language       string
}

// AnswerEvaluationInput parameterizes answer scoring.
type AnswerEvaluationInput struct {
	Question       string
	ExpectedTopics []string
	JobTitle       string
	Answer         string
	Language       string
}

// JobMatchInput parameterizes the job match prompt.
type JobMatchInput struct {
	Background     Background
	JobTitle       string
	Company        string
	JobDescription string
}

// Preferences narrows job recommendations.
type Preferences struct {
	Location        string
	JobType         string
	ExperienceLevel string
	Industry        string
}

// JobRecommendationsInput parameterizes the recommendations prompt.
type JobRecommendationsInput struct {
	Background  Background
	Preferences *Preferences
	Count       int
}

var toneGuide = map[string]string{
	"professional": "formal, polished, and business-appropriate",
	"casual":       "friendly yet professional, conversational but respectful",
	"enthusiastic": "energetic and passionate, showing genuine excitement",
}

var lengthGuide = map[string]string{
	"short":  "250-350 words (3 paragraphs)",
	"medium": "350-500 words (4 paragraphs)",
	"long":   "500-700 words (5-6 paragraphs)",
}

var difficultyGuide = map[string]string{
	"entry":  "entry level (1-2 years of experience)",
	"mid":    "mid level (3-5 years of experience)",
	"senior": "senior level (6+ years of experience)",
}

var interviewTypeGuide = map[string]string{
	"behavioral": "behavioral questions (past experience, handling situations)",
	"technical":  "technical questions (domain knowledge, problem solving)",
	"mixed":      "a mix of behavioral and technical questions",
}

func guide(table map[string]string, key, fallback string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return table[fallback]
}

func languageInstruction(lang string) string {
	if lang == "ko" {
		return "Respond in Korean (한국어로 답변해주세요)."
	}
	return "Please respond in English."
}

// ResumeAnalysisPrompt builds the resume analysis prompt.
func ResumeAnalysisPrompt(in ResumeAnalysisInput) (string, error) {
	return Render(PromptResumeAnalysis, in)
}

// CoverLetterPrompt builds the cover letter prompt.
func CoverLetterPrompt(in CoverLetterInput) (string, error) {
	return Render(PromptCoverLetter, struct {
		CoverLetterInput
		ToneGuide   string
		LengthGuide string
	}{in, guide(toneGuide, in.Tone, "professional"), guide(lengthGuide, in.Length, "medium")})
}

// InterviewQuestionsPrompt builds the question generation prompt.
func InterviewQuestionsPrompt(in InterviewQuestionsInput) (string, error) {
	return Render(PromptInterviewQuestions, struct {
		InterviewQuestionsInput
		DifficultyGuide string
		TypeGuide       string
		LanguageLine    string
	}{in, guide(difficultyGuide, in.Difficulty, "mid"), guide(interviewTypeGuide, in.InterviewType, "mixed"), languageInstruction(in.Language)})
}

// AnswerEvaluationPrompt builds the answer scoring prompt.
func AnswerEvaluationPrompt(in AnswerEvaluationInput) (string, error) {
	return Render(PromptAnswerEvaluation, struct {
		AnswerEvaluationInput
		LanguageLine string
	}{in, languageInstruction(in.Language)})
}

// JobMatchPrompt builds the job match prompt.
func JobMatchPrompt(in JobMatchInput) (string, error) {
	return Render(PromptJobMatch, in)
}

// JobRecommendationsPrompt builds the recommendations prompt.
func JobRecommendationsPrompt(in JobRecommendationsInput) (string, error) {
	return Render(PromptJobRecommendations, in)
}
