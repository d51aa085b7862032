package resumes

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/extract/extracttest"
	"pathpilot-backend/internal/llm/llmtest"
	"pathpilot-backend/internal/resilience"
	"pathpilot-backend/internal/shared/apperr"
	"pathpilot-backend/internal/shared/storage/object/local"
)

const analysisJSON = "```json\n" + `{
  "strengths": ["Led migrations"],
  "weaknesses": ["Few metrics"],
  "recommendations": ["Quantify impact"],
  "suitable_roles": ["Backend Engineer"],
  "skills": ["Go", "Postgres"],
  "experience_years": 6,
  "ats_score": 150,
  "summary": "Backend engineer."
}` + "\n```"

func newTestService(t *testing.T, gen *llmtest.Scripted) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := NewService(repo, local.New(t.TempDir()), llmtest.Orchestrator(gen), 1<<20)
	return svc, repo
}

func docxUpload(paragraphs ...string) Upload {
	return Upload{
		FileName: "resume.docx",
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Body:     bytes.NewReader(extracttest.Docx(paragraphs...)),
	}
}

func TestAnalyzeStoresNormalizedAnalysis(t *testing.T) {
	gen := llmtest.Reply(analysisJSON)
	svc, _ := newTestService(t, gen)

	result, err := svc.Analyze(context.Background(), 1, docxUpload("Jane Doe", "Go engineer"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	res := result.Resume
	if res.Status != artifact.StatusAnalyzed {
		t.Fatalf("expected analyzed, got %s", res.Status)
	}
	if result.Cached || result.Fallback {
		t.Fatalf("unexpected flags %+v", result)
	}
	if !strings.Contains(gen.Prompt(0), "Go engineer") {
		t.Fatalf("prompt missing extracted text: %q", gen.Prompt(0))
	}

	stored, err := svc.Get(context.Background(), 1, res.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	typed, err := stored.Typed()
	if err != nil {
		t.Fatalf("Typed: %v", err)
	}
	want := Analysis{
		Strengths:       []string{"Led migrations"},
		Weaknesses:      []string{"Few metrics"},
		Recommendations: []string{"Quantify impact"},
		SuitableRoles:   []string{"Backend Engineer"},
		Skills:          []string{"Go", "Postgres"},
		ExperienceYears: 6,
		ATSScore:        100,
		Summary:         "Backend engineer.",
	}
	if diff := cmp.Diff(want, typed); diff != "" {
		t.Fatalf("analysis mismatch (-want +got):\n%s", diff)
	}
	if stored.ExtractedText != "Jane Doe\nGo engineer" {
		t.Fatalf("unexpected extracted text %q", stored.ExtractedText)
	}
	if stored.ModelUsed != "scripted" || stored.AnalyzedAt == nil {
		t.Fatalf("expected model and analyzed_at, got %+v", stored)
	}
}

func TestAnalyzeSameContentReturnsCachedResume(t *testing.T) {
	gen := llmtest.Reply(analysisJSON)
	svc, _ := newTestService(t, gen)

	first, err := svc.Analyze(context.Background(), 1, docxUpload("same resume"))
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, err := svc.Analyze(context.Background(), 1, docxUpload("same resume"))
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if gen.Calls() != 1 {
		t.Fatalf("expected one model call, got %d", gen.Calls())
	}
	if !second.Cached || second.Resume.ID != first.Resume.ID {
		t.Fatalf("expected cached resume %s, got %+v", first.Resume.ID, second)
	}
	list, _ := svc.List(context.Background(), 1, 10, 0)
	if len(list) != 1 {
		t.Fatalf("cache hit should not create a record, got %d", len(list))
	}
}

func TestAnalyzeCacheIsScopedPerOwner(t *testing.T) {
	gen := llmtest.Reply(analysisJSON)
	svc, _ := newTestService(t, gen)

	if _, err := svc.Analyze(context.Background(), 1, docxUpload("shared bytes")); err != nil {
		t.Fatalf("owner 1: %v", err)
	}
	other, err := svc.Analyze(context.Background(), 2, docxUpload("shared bytes"))
	if err != nil {
		t.Fatalf("owner 2: %v", err)
	}
	if other.Cached || gen.Calls() != 2 {
		t.Fatalf("expected a separate model call for another owner, cached=%v calls=%d", other.Cached, gen.Calls())
	}
}

func TestAnalyzeStaleCacheEntryIsRecomputed(t *testing.T) {
	gen := llmtest.Reply(analysisJSON)
	svc, repo := newTestService(t, gen)

	first, err := svc.Analyze(context.Background(), 1, docxUpload("old contract"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	repo.mu.Lock()
	delete(repo.cached[first.Resume.ID].Payload, "ats_score")
	repo.mu.Unlock()

	second, err := svc.Analyze(context.Background(), 1, docxUpload("old contract"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if second.Cached || gen.Calls() != 2 {
		t.Fatalf("expected stale entry to trigger a new call, cached=%v calls=%d", second.Cached, gen.Calls())
	}
}

func TestAnalyzeMarksFailedWhenRetriesExhausted(t *testing.T) {
	gen := llmtest.Failing(llmtest.Unavailable)
	svc, repo := newTestService(t, gen)

	result, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if !resilience.IsFinalFailure(err) {
		t.Fatalf("expected FinalFailure, got %v", err)
	}
	if gen.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", gen.Calls())
	}
	stored, err := repo.Get(context.Background(), 1, result.Resume.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != artifact.StatusFailed || !strings.HasPrefix(stored.ErrorMessage, "Analysis failed:") {
		t.Fatalf("expected failed record with message, got %s %q", stored.Status, stored.ErrorMessage)
	}
	if stored.CacheEntry {
		t.Fatalf("failed analysis must not be cached")
	}
}

func TestAnalyzeFallbackIsAnalyzedButNotCached(t *testing.T) {
	gen := llmtest.Reply("I cannot produce JSON today")
	svc, _ := newTestService(t, gen)

	first, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !first.Fallback || first.Resume.Status != artifact.StatusAnalyzed {
		t.Fatalf("expected analyzed fallback, got %+v", first)
	}
	typed, _ := first.Resume.Typed()
	if len(typed.Strengths) != 1 || typed.Strengths[0] != "Unable to parse analysis" || typed.ParseError == "" {
		t.Fatalf("unexpected fallback analysis %+v", typed)
	}
	if _, err := svc.Analyze(context.Background(), 1, docxUpload("resume")); err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if gen.Calls() != 2 {
		t.Fatalf("fallback results must not be served from cache, calls=%d", gen.Calls())
	}
}

func TestAnalyzeValidation(t *testing.T) {
	svc, repo := newTestService(t, llmtest.Reply(analysisJSON))

	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{
			name:   "text file",
			upload: Upload{FileName: "resume.txt", MimeType: "text/plain", Body: strings.NewReader("hello")},
		},
		{
			name:   "empty file",
			upload: Upload{FileName: "resume.pdf", MimeType: "application/pdf", Body: strings.NewReader("")},
		},
		{
			name:    "too large",
			upload:  Upload{FileName: "resume.pdf", MimeType: "application/pdf", Body: bytes.NewReader(make([]byte, 2<<20))},
			wantErr: apperr.ErrTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), 1, tt.upload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if _, ok := apperr.AsValidation(err); !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	list, _ := repo.List(context.Background(), 1, 10, 0)
	if len(list) != 0 {
		t.Fatalf("rejected uploads must not create records, got %d", len(list))
	}
}

func TestAnalyzeUnreadableDocumentFailsRecord(t *testing.T) {
	gen := llmtest.Reply(analysisJSON)
	svc, repo := newTestService(t, gen)

	_, err := svc.Analyze(context.Background(), 1, Upload{
		FileName: "resume.pdf",
		MimeType: "application/pdf",
		Body:     strings.NewReader("not really a pdf"),
	})
	if _, ok := apperr.AsValidation(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gen.Calls() != 0 {
		t.Fatalf("model must not be called, got %d", gen.Calls())
	}
	list, _ := repo.List(context.Background(), 1, 10, 0)
	if len(list) != 1 || list[0].Status != artifact.StatusFailed {
		t.Fatalf("expected one failed record, got %+v", list)
	}
}

func TestReanalyzeRefreshesAnalysis(t *testing.T) {
	gen := llmtest.Reply(analysisJSON, `{"skills":["Go","Kubernetes"],"experience_years":7,"ats_score":80}`)
	svc, _ := newTestService(t, gen)

	first, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	again, err := svc.Reanalyze(context.Background(), 1, first.Resume.ID)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if gen.Calls() != 2 || again.Resume.Status != artifact.StatusAnalyzed {
		t.Fatalf("expected fresh analysis, calls=%d status=%s", gen.Calls(), again.Resume.Status)
	}
	cached, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	typed, _ := cached.Resume.Typed()
	if !cached.Cached || typed.ExperienceYears != 7 {
		t.Fatalf("expected refreshed cache entry, got cached=%v %+v", cached.Cached, typed)
	}
}

func TestReanalyzeFallbackKeepsCachedAnalysis(t *testing.T) {
	gen := llmtest.Reply(analysisJSON, "sorry, I cannot help")
	svc, _ := newTestService(t, gen)

	first, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	again, err := svc.Reanalyze(context.Background(), 1, first.Resume.ID)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if !again.Fallback {
		t.Fatalf("expected fallback reanalysis, got %+v", again)
	}

	cached, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	typed, _ := cached.Resume.Typed()
	if !cached.Cached || gen.Calls() != 2 {
		t.Fatalf("expected cache hit, cached=%v calls=%d", cached.Cached, gen.Calls())
	}
	if diff := cmp.Diff([]string{"Led migrations"}, typed.Strengths); diff != "" {
		t.Fatalf("cache served the fallback payload (-want +got):\n%s", diff)
	}
}

func TestReanalyzeFailureKeepsCachedAnalysis(t *testing.T) {
	gen := &llmtest.Scripted{
		Responses: []string{analysisJSON},
		Errs:      []error{nil, llmtest.Unavailable, llmtest.Unavailable, llmtest.Unavailable},
	}
	svc, repo := newTestService(t, gen)

	first, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := svc.Reanalyze(context.Background(), 1, first.Resume.ID); !resilience.IsFinalFailure(err) {
		t.Fatalf("expected FinalFailure, got %v", err)
	}
	stored, _ := repo.Get(context.Background(), 1, first.Resume.ID)
	if stored.Status != artifact.StatusFailed {
		t.Fatalf("expected failed row, got %s", stored.Status)
	}

	cached, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !cached.Cached || gen.Calls() != 4 {
		t.Fatalf("expected earlier analysis from cache, cached=%v calls=%d", cached.Cached, gen.Calls())
	}
	typed, _ := cached.Resume.Typed()
	if cached.Resume.Status != artifact.StatusAnalyzed || typed.ExperienceYears != 6 {
		t.Fatalf("unexpected cached result %s %+v", cached.Resume.Status, typed)
	}
}

type failingSaveRepo struct {
	*MemoryRepo
}

func (failingSaveRepo) SaveAnalysis(context.Context, int64, string, map[string]any, string, time.Time) error {
	return errors.New("db write failed")
}

func TestAnalyzeSaveErrorMarksFailedAndAllowsReanalyze(t *testing.T) {
	gen := llmtest.Reply(analysisJSON)
	mem := NewMemoryRepo()
	svc := NewService(failingSaveRepo{mem}, local.New(t.TempDir()), llmtest.Orchestrator(gen), 1<<20)

	result, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err == nil {
		t.Fatalf("expected save error")
	}
	stored, err := mem.Get(context.Background(), 1, result.Resume.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != artifact.StatusFailed {
		t.Fatalf("expected failed record, got %s", stored.Status)
	}

	svc.Repo = mem
	if _, err := svc.Reanalyze(context.Background(), 1, stored.ID); err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
}

func TestBackgroundRequiresAnalyzedResume(t *testing.T) {
	svc, _ := newTestService(t, llmtest.Failing(llmtest.Unavailable))
	result, _ := svc.Analyze(context.Background(), 1, docxUpload("resume"))

	if _, err := svc.Background(context.Background(), 1, result.Resume.ID); !errors.Is(err, ErrNotAnalyzed) {
		t.Fatalf("expected ErrNotAnalyzed, got %v", err)
	}
	if _, err := svc.Background(context.Background(), 1, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesRecordAndFile(t *testing.T) {
	svc, _ := newTestService(t, llmtest.Reply(analysisJSON))
	result, err := svc.Analyze(context.Background(), 1, docxUpload("resume"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := svc.Delete(context.Background(), 2, result.Resume.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other owners must not delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), 1, result.Resume.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Store.Open(context.Background(), result.Resume.StorageKey); err == nil {
		t.Fatalf("expected stored file to be removed")
	}
	if _, err := svc.Get(context.Background(), 1, result.Resume.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
