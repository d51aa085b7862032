package llm

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

// Prompt template names.
const (
	PromptResumeAnalysis     = "resume_analysis.tmpl"
	PromptCoverLetter        = "cover_letter.tmpl"
	PromptInterviewQuestions = "interview_questions.tmpl"
	PromptAnswerEvaluation   = "answer_evaluation.tmpl"
	PromptJobMatch           = "job_match.tmpl"
	PromptJobRecommendations = "job_recommendations.tmpl"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join": joinFirst,
	"clip":  clip,
}).ParseFS(promptFS, "prompts/*.tmpl"))

// Render executes the named prompt template. Struct fields render in template
// order, so the same data always yields the same prompt.
func Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// joinFirst joins at most n items (0 for all) with sep.
func joinFirst(items []string, n int, sep string) string {
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, sep)
}

// clip cuts s to at most n runes.
func clip(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
