package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/extract"
	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/orchestrator"
	"pathpilot-backend/internal/resultcache"
	"pathpilot-backend/internal/shared/apperr"
	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/storage/object"
	"pathpilot-backend/internal/shared/telemetry"
	"pathpilot-backend/internal/shared/util"
)

const operationAnalyze = "resume_analysis"

// Upload is one submitted resume file.
type Upload struct {
	FileName string
	MimeType string
	Body     io.Reader
}

// Result is a resume plus how its analysis was obtained.
type Result struct {
	Resume   Resume
	Cached   bool
	Fallback bool
}

// Service contains business logic for resumes.
type Service struct {
	Repo         Repo
	Store        object.Store
	Orchestrator *orchestrator.Orchestrator
	Cache        *resultcache.Cache
	MaxBytes     int64
}

// NewService wires the analysis cache over the repository.
func NewService(repo Repo, store object.Store, orch *orchestrator.Orchestrator, maxBytes int64) *Service {
	return &Service{
		Repo:         repo,
		Store:        store,
		Orchestrator: orch,
		Cache:        &resultcache.Cache{Name: operationAnalyze, Entries: repo, Required: AnalysisSchema.Required()},
		MaxBytes:     maxBytes,
	}
}

// Analyze uploads a resume and analyzes it. Identical bytes already analyzed
// for the same owner return the earlier resume without a model call.
func (s *Service) Analyze(ctx context.Context, userID int64, up Upload) (Result, error) {
	start := time.Now()
	fileName := strings.TrimSpace(up.FileName)
	if fileName == "" {
		return Result{}, apperr.Invalid("file", "file name is required")
	}
	if !extract.Supported(up.MimeType, fileName) {
		return Result{}, apperr.Invalid("file", "invalid file type %q: allowed types are PDF, DOCX", up.MimeType)
	}
	if !privacy.SafeFileName(fileName) {
		fileName = privacy.Scrub(fileName)
	}

	data, err := s.read(up.Body)
	if err != nil {
		return Result{}, err
	}
	fingerprint := util.Fingerprint(data)

	telemetry.Info("resume_upload_started", map[string]any{
		"user_id":    telemetry.OwnerField(userID),
		"filename":   privacy.Scrub(fileName),
		"file_size":  len(data),
		"file_hash":  fingerprint[:16],
		"request_id": telemetry.RequestIDFromContext(ctx),
	})

	var res Resume
	out, err := s.Orchestrator.Produce(ctx, orchestrator.Request{
		Owner:       userID,
		Operation:   operationAnalyze,
		Fingerprint: fingerprint,
		Cache:       s.Cache,
		Schema:      AnalysisSchema,
		Success:     artifact.StatusAnalyzed,
		Begin: func(ctx context.Context) error {
			created, err := s.begin(ctx, userID, fileName, up.MimeType, fingerprint, data)
			res = created
			return err
		},
		Prompt: func(ctx context.Context) (string, error) {
			return llm.ResumeAnalysisPrompt(llm.ResumeAnalysisInput{ResumeText: res.ExtractedText})
		},
		Complete: func(ctx context.Context, out orchestrator.Outcome) (string, error) {
			return res.ID, s.complete(ctx, &res, out)
		},
		Fail: func(ctx context.Context, err error) {
			s.fail(ctx, &res, err)
		},
	})
	if err != nil {
		if res.ID != "" {
			return Result{Resume: res}, err
		}
		return Result{}, err
	}

	if out.Cached {
		cached, err := s.Repo.Get(ctx, userID, out.CachedFrom)
		if err != nil {
			return Result{}, fmt.Errorf("load cached resume: %w", err)
		}
		// The row may hold a later attempt; the response carries the cached result.
		cached.Analysis = out.Values
		cached.Status = artifact.StatusAnalyzed
		cached.ErrorMessage = ""
		telemetry.Info("resume_analysis_cache_hit", map[string]any{
			"user_id":          telemetry.OwnerField(userID),
			"cached_resume_id": cached.ID,
			"file_hash":        fingerprint[:16],
		})
		return Result{Resume: cached, Cached: true}, nil
	}

	telemetry.Info("resume_upload_completed", map[string]any{
		"user_id":     telemetry.OwnerField(userID),
		"resume_id":   res.ID,
		"duration_ms": time.Since(start).Milliseconds(),
		"status":      string(res.Status),
		"fallback":    out.Fallback,
	})
	return Result{Resume: res, Fallback: out.Fallback}, nil
}

// Reanalyze runs a fresh analysis for an existing resume. Only a usable
// result replaces the cached analysis for the same content; a fallback or a
// failed attempt leaves the earlier entry in place.
func (s *Service) Reanalyze(ctx context.Context, userID int64, id string) (Result, error) {
	res, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	if err := artifact.Regenerate(res.Status); err != nil {
		return Result{}, apperr.InvalidState(fmt.Sprintf("resume is %s", res.Status))
	}
	if strings.TrimSpace(res.ExtractedText) == "" {
		return Result{}, apperr.InvalidState("resume has no extracted text")
	}

	out, err := s.Orchestrator.Produce(ctx, orchestrator.Request{
		Owner:       userID,
		Operation:   operationAnalyze,
		Fingerprint: res.FileHash,
		Cache:       s.Cache,
		Refresh:     true,
		Schema:      AnalysisSchema,
		Success:     artifact.StatusAnalyzed,
		Begin: func(ctx context.Context) error {
			return s.setStatus(ctx, &res, artifact.StatusGenerating, "")
		},
		Prompt: func(ctx context.Context) (string, error) {
			return llm.ResumeAnalysisPrompt(llm.ResumeAnalysisInput{ResumeText: res.ExtractedText})
		},
		Complete: func(ctx context.Context, out orchestrator.Outcome) (string, error) {
			return res.ID, s.complete(ctx, &res, out)
		},
		Fail: func(ctx context.Context, err error) {
			s.fail(ctx, &res, err)
		},
	})
	if err != nil {
		return Result{Resume: res}, err
	}
	return Result{Resume: res, Fallback: out.Fallback}, nil
}

// Get returns one resume.
func (s *Service) Get(ctx context.Context, userID int64, id string) (Resume, error) {
	return s.Repo.Get(ctx, userID, id)
}

// List returns the owner's resumes newest first.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Resume, error) {
	return s.Repo.List(ctx, userID, limit, offset)
}

// Delete removes the resume record and its stored file.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	res, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if res.StorageKey != "" {
		if err := s.Store.Delete(ctx, res.StorageKey); err != nil {
			telemetry.Warn("resume_file_delete_failed", map[string]any{
				"user_id":   telemetry.OwnerField(userID),
				"resume_id": id,
				"error":     util.SanitizeError(err),
			})
		}
	}
	telemetry.Info("resume_deleted", map[string]any{
		"user_id":   telemetry.OwnerField(userID),
		"resume_id": id,
	})
	return nil
}

// Background returns prompt context from an analyzed resume.
func (s *Service) Background(ctx context.Context, userID int64, id string) (llm.Background, error) {
	res, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return llm.Background{}, err
	}
	if res.Status != artifact.StatusAnalyzed || len(res.Analysis) == 0 {
		return llm.Background{}, ErrNotAnalyzed
	}
	analysis, err := res.Typed()
	if err != nil {
		return llm.Background{}, fmt.Errorf("decode analysis: %w", err)
	}
	return analysis.Background(), nil
}

func (s *Service) read(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, apperr.Invalid("file", "file is required")
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d MB: %w", limit>>20, ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, apperr.Invalid("file", "file is empty")
	}
	return data, nil
}

// begin stores the file, records the resume and extracts its text. The
// record is visible as generating before any model call.
func (s *Service) begin(ctx context.Context, userID int64, fileName, mimeType, fingerprint string, data []byte) (Resume, error) {
	obj, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		return Resume{}, fmt.Errorf("store upload: %w", err)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = obj.MimeType
	}
	now := time.Now().UTC()
	res := Resume{
		ID:               uuid.NewString(),
		UserID:           userID,
		OriginalFilename: fileName,
		StorageKey:       obj.Key,
		FileSize:         obj.Size,
		MimeType:         mimeType,
		FileHash:         fingerprint,
		Status:           artifact.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Repo.Create(ctx, res); err != nil {
		_ = s.Store.Delete(context.WithoutCancel(ctx), obj.Key)
		return Resume{}, err
	}
	telemetry.Info("resume_record_created", map[string]any{
		"user_id":   telemetry.OwnerField(userID),
		"resume_id": res.ID,
	})

	text, err := extract.ExtractTextFromBytes(ctx, data, mimeType, fileName)
	if err != nil {
		s.fail(ctx, &res, fmt.Errorf("text extraction failed: %w", err))
		if errors.Is(err, extract.ErrUnsupportedType) || errors.Is(err, extract.ErrNoText) {
			return res, apperr.Invalid("file", "%s", err.Error())
		}
		return res, apperr.Invalid("file", "could not read document: %s", util.SanitizeError(err))
	}
	if err := s.Repo.SetExtractedText(ctx, userID, res.ID, text); err != nil {
		return res, err
	}
	res.ExtractedText = text
	return res, s.setStatus(ctx, &res, artifact.StatusGenerating, "")
}

func (s *Service) complete(ctx context.Context, res *Resume, out orchestrator.Outcome) error {
	if err := artifact.Transition(res.Status, out.Status); err != nil {
		return err
	}
	analysis := out.Values
	if out.Fallback && out.ParseError != "" {
		analysis["parse_error"] = out.ParseError
	}
	now := time.Now().UTC()
	if err := s.Repo.SaveAnalysis(ctx, res.UserID, res.ID, analysis, out.Model, now); err != nil {
		return err
	}
	res.Analysis = analysis
	res.Status = out.Status
	res.ModelUsed = out.Model
	res.ErrorMessage = ""
	res.AnalyzedAt = &now
	return nil
}

func (s *Service) fail(ctx context.Context, res *Resume, cause error) {
	if res.ID == "" {
		return
	}
	msg := "Analysis failed: " + orchestrator.FailureMessage(cause)
	if err := s.setStatus(ctx, res, artifact.StatusFailed, msg); err != nil {
		telemetry.Error("resume_mark_failed_error", map[string]any{
			"user_id":   telemetry.OwnerField(res.UserID),
			"resume_id": res.ID,
			"error":     util.SanitizeError(err),
		})
	}
}

func (s *Service) setStatus(ctx context.Context, res *Resume, to artifact.Status, errMsg string) error {
	if res.Status != to {
		if err := artifact.Transition(res.Status, to); err != nil {
			if to != artifact.StatusGenerating || artifact.Regenerate(res.Status) != nil {
				return err
			}
		}
	}
	if err := s.Repo.UpdateStatus(ctx, res.UserID, res.ID, to, errMsg); err != nil {
		return err
	}
	res.Status = to
	res.ErrorMessage = errMsg
	return nil
}
