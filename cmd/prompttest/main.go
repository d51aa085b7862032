package main

// Exercise a prompt end to end against the configured provider:
//   go run ./cmd/prompttest --resume cv.pdf --jd role.txt --job-title "Backend Engineer"
// Without --prompt an interactive picker is shown.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"pathpilot-backend/internal/bootstrap"
	"pathpilot-backend/internal/extract"
	"pathpilot-backend/internal/interviews"
	"pathpilot-backend/internal/jobs"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/normalize"
	"pathpilot-backend/internal/resumes"
	"pathpilot-backend/internal/shared/config"
)

const (
	promptAnalysis        = "resume-analysis"
	promptCoverLetter     = "cover-letter"
	promptQuestions       = "interview-questions"
	promptMatch           = "job-match"
	promptRecommendations = "job-recommendations"
)

var promptNames = []string{promptAnalysis, promptCoverLetter, promptQuestions, promptMatch, promptRecommendations}

type options struct {
	resumePath string
	jdPath     string
	jobTitle   string
	company    string
	prompt     string
	outPath    string
	raw        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "prompttest",
		Short:         "Run a PathPilot prompt against a local resume file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.resumePath, "resume", "", "path to resume file (pdf, docx or txt)")
	f.StringVar(&opts.jdPath, "jd", "", "path to job description file")
	f.StringVar(&opts.jobTitle, "job-title", "Software Engineer", "target job title")
	f.StringVar(&opts.company, "company", "", "target company")
	f.StringVar(&opts.prompt, "prompt", "", "prompt to run: "+strings.Join(promptNames, ", "))
	f.StringVar(&opts.outPath, "out", "", "write the output JSON to this path")
	f.BoolVar(&opts.raw, "raw", false, "print the raw model reply instead of the normalized result")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	name, err := choosePrompt(opts.prompt)
	if err != nil {
		return err
	}

	resumeText, err := readResume(ctx, opts.resumePath)
	if err != nil {
		return err
	}
	jobDescription := ""
	if strings.TrimSpace(opts.jdPath) != "" {
		data, err := os.ReadFile(opts.jdPath)
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
		jobDescription = string(data)
	}

	gen, err := bootstrap.NewGenerator(ctx, config.Load())
	if err != nil {
		return fmt.Errorf("build generator: %w", err)
	}

	r := runner{gen: gen, resumeText: resumeText, jobTitle: opts.jobTitle, company: opts.company, jobDescription: jobDescription, raw: opts.raw}
	out, err := r.run(ctx, name)
	if err != nil {
		return err
	}

	pretty, err := prettyJSON(out)
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, pretty, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	_, err = stdout.Write(pretty)
	return err
}

func choosePrompt(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		for _, p := range promptNames {
			if p == name {
				return name, nil
			}
		}
		return "", fmt.Errorf("unsupported prompt: %s", name)
	}
	sel := promptui.Select{Label: "Prompt", Items: promptNames}
	_, picked, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("select prompt: %w", err)
	}
	return picked, nil
}

func readResume(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return string(data), nil
	}
	text, err := extract.ExtractTextFromBytes(ctx, data, mimeFromExt(path), filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("extract resume text: %w", err)
	}
	return text, nil
}

type runner struct {
	gen            llm.Generator
	resumeText     string
	jobTitle       string
	company        string
	jobDescription string
	raw            bool
}

func (r runner) run(ctx context.Context, name string) (any, error) {
	if name == promptAnalysis {
		prompt, err := llm.ResumeAnalysisPrompt(llm.ResumeAnalysisInput{ResumeText: r.resumeText})
		if err != nil {
			return nil, err
		}
		return r.object(ctx, prompt, resumes.AnalysisSchema)
	}

	bg, err := r.background(ctx)
	if err != nil {
		return nil, err
	}

	var prompt string
	switch name {
	case promptCoverLetter:
		prompt, err = llm.CoverLetterPrompt(llm.CoverLetterInput{
			JobTitle:       r.jobTitle,
			CompanyName:    r.company,
			JobDescription: r.jobDescription,
			Background:     &bg,
			Tone:           "professional",
			Length:         "medium",
		})
		if err != nil {
			return nil, err
		}
		text, err := r.gen.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm generate: %w", err)
		}
		return map[string]any{"content": strings.TrimSpace(normalize.StripFences(text)), "model": r.gen.Model()}, nil
	case promptQuestions:
		prompt, err = llm.InterviewQuestionsPrompt(llm.InterviewQuestionsInput{
			JobTitle:       r.jobTitle,
			CompanyName:    r.company,
			JobDescription: r.jobDescription,
			Background:     &bg,
			InterviewType:  "mixed",
			Difficulty:     "medium",
			QuestionCount:  5,
			Language:       "en",
		})
		if err != nil {
			return nil, err
		}
		return r.list(ctx, prompt, interviews.QuestionSchema, 5)
	case promptMatch:
		prompt, err = llm.JobMatchPrompt(llm.JobMatchInput{
			Background:     bg,
			JobTitle:       r.jobTitle,
			Company:        r.company,
			JobDescription: r.jobDescription,
		})
		if err != nil {
			return nil, err
		}
		return r.object(ctx, prompt, jobs.MatchSchema)
	default:
		prompt, err = llm.JobRecommendationsPrompt(llm.JobRecommendationsInput{Background: bg, Count: jobs.DefaultRecommendations})
		if err != nil {
			return nil, err
		}
		return r.list(ctx, prompt, jobs.RecommendationSchema, jobs.DefaultRecommendations)
	}
}

// background runs the analysis prompt first so downstream prompts see the
// same resume context the API would feed them.
func (r runner) background(ctx context.Context) (llm.Background, error) {
	prompt, err := llm.ResumeAnalysisPrompt(llm.ResumeAnalysisInput{ResumeText: r.resumeText})
	if err != nil {
		return llm.Background{}, err
	}
	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return llm.Background{}, fmt.Errorf("llm analyze: %w", err)
	}
	res := normalize.Normalize(text, resumes.AnalysisSchema)
	if res.Fallback {
		return llm.Background{}, fmt.Errorf("resume analysis unparseable: %s", res.ParseError)
	}
	var analysis resumes.Analysis
	if err := normalize.Decode(res.Values, &analysis); err != nil {
		return llm.Background{}, fmt.Errorf("decode analysis: %w", err)
	}
	return analysis.Background(), nil
}

func (r runner) object(ctx context.Context, prompt string, schema normalize.Schema) (any, error) {
	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}
	if r.raw {
		return json.RawMessage(normalize.StripFences(text)), nil
	}
	res := normalize.Normalize(text, schema)
	return map[string]any{
		"values":      res.Values,
		"backfilled":  res.Backfilled,
		"fallback":    res.Fallback,
		"parse_error": res.ParseError,
		"model":       r.gen.Model(),
	}, nil
}

func (r runner) list(ctx context.Context, prompt string, schema normalize.Schema, limit int) (any, error) {
	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}
	if r.raw {
		return json.RawMessage(normalize.StripFences(text)), nil
	}
	res := normalize.NormalizeList(text, schema, limit)
	return map[string]any{
		"items":       res.Items,
		"fallback":    res.Fallback,
		"parse_error": res.ParseError,
		"model":       r.gen.Model(),
	}, nil
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func prettyJSON(v any) ([]byte, error) {
	var raw []byte
	switch t := v.(type) {
	case json.RawMessage:
		raw = t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Raw replies are not always valid JSON.
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
