package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/resultcache"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `id, user_id, original_filename, storage_key, file_size, mime_type, file_hash,
       extracted_text, analysis_result, status, error_message, cache_entry, model_used,
       created_at, updated_at, analyzed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new resume.
func (r *PGRepo) Create(ctx context.Context, res Resume) error {
	const query = `
INSERT INTO resumes (
    id, user_id, original_filename, storage_key, file_size, mime_type, file_hash,
    status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		res.ID,
		res.UserID,
		res.OriginalFilename,
		res.StorageKey,
		res.FileSize,
		res.MimeType,
		res.FileHash,
		string(res.Status),
		res.CreatedAt,
	)
	return err
}

// Get fetches a resume by ID for a user.
func (r *PGRepo) Get(ctx context.Context, userID int64, id string) (Resume, error) {
	query := `SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1 AND id = $2`
	res, err := scanResume(r.DB.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, ErrNotFound
	}
	return res, err
}

// List returns resumes newest first.
func (r *PGRepo) List(ctx context.Context, userID int64, limit, offset int) ([]Resume, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Resume{}
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status and error message.
func (r *PGRepo) UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error {
	const query = `
UPDATE resumes
SET status = $1, error_message = NULLIF($2, ''), updated_at = now()
WHERE user_id = $3 AND id = $4`
	return r.exec(ctx, query, string(status), errMsg, userID, id)
}

// SetExtractedText stores the text pulled from the upload.
func (r *PGRepo) SetExtractedText(ctx context.Context, userID int64, id, text string) error {
	const query = `
UPDATE resumes
SET extracted_text = $1, updated_at = now()
WHERE user_id = $2 AND id = $3`
	return r.exec(ctx, query, text, userID, id)
}

// SaveAnalysis stores a finished analysis and marks the resume analyzed.
func (r *PGRepo) SaveAnalysis(ctx context.Context, userID int64, id string, analysis map[string]any, model string, at time.Time) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	const query = `
UPDATE resumes
SET analysis_result = $1, status = $2, error_message = NULL, model_used = $3, analyzed_at = $4, updated_at = now()
WHERE user_id = $5 AND id = $6`
	return r.exec(ctx, query, payload, string(artifact.StatusAnalyzed), model, at, userID, id)
}

// Delete removes a resume.
func (r *PGRepo) Delete(ctx context.Context, userID int64, id string) error {
	const query = `DELETE FROM resumes WHERE user_id = $1 AND id = $2`
	return r.exec(ctx, query, userID, id)
}

// LatestAnalyzed implements resultcache.Store. Entries live in
// cached_analysis, which only SaveAnalyzed writes, so a failed or unparseable
// re-attempt on the same row leaves the last good result in place.
func (r *PGRepo) LatestAnalyzed(ctx context.Context, userID int64, fingerprint string) (resultcache.Entry, bool, error) {
	const query = `
SELECT id, cached_analysis, cached_at
FROM resumes
WHERE user_id = $1 AND file_hash = $2 AND cache_entry AND cached_analysis IS NOT NULL
ORDER BY cached_at DESC
LIMIT 1`
	var (
		entry   resultcache.Entry
		payload []byte
	)
	err := r.DB.QueryRowContext(ctx, query, userID, fingerprint).Scan(&entry.ArtifactID, &payload, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return resultcache.Entry{}, false, nil
	}
	if err != nil {
		return resultcache.Entry{}, false, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &entry.Payload); err != nil {
			return resultcache.Entry{}, false, fmt.Errorf("decode cached analysis: %w", err)
		}
	}
	entry.OwnerID = userID
	entry.Fingerprint = fingerprint
	return entry, true, nil
}

// SaveAnalyzed implements resultcache.Store by recording the payload as the
// resume's cache entry.
func (r *PGRepo) SaveAnalyzed(ctx context.Context, entry resultcache.Entry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	const query = `
UPDATE resumes
SET cache_entry = TRUE, cached_analysis = $1, cached_at = now(), updated_at = now()
WHERE user_id = $2 AND id = $3`
	return r.exec(ctx, query, payload, entry.OwnerID, entry.ArtifactID)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanResume(row rowScanner) (Resume, error) {
	var (
		res        Resume
		status     string
		extracted  sql.NullString
		analysis   []byte
		errMsg     sql.NullString
		model      sql.NullString
		analyzedAt sql.NullTime
	)
	if err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.OriginalFilename,
		&res.StorageKey,
		&res.FileSize,
		&res.MimeType,
		&res.FileHash,
		&extracted,
		&analysis,
		&status,
		&errMsg,
		&res.CacheEntry,
		&model,
		&res.CreatedAt,
		&res.UpdatedAt,
		&analyzedAt,
	); err != nil {
		return Resume{}, err
	}
	res.Status = artifact.Status(status)
	res.ExtractedText = extracted.String
	res.ErrorMessage = errMsg.String
	res.ModelUsed = model.String
	if analyzedAt.Valid {
		res.AnalyzedAt = &analyzedAt.Time
	}
	if len(analysis) > 0 {
		if err := json.Unmarshal(analysis, &res.Analysis); err != nil {
			return Resume{}, fmt.Errorf("decode analysis: %w", err)
		}
	}
	return res, nil
}

var _ Repo = (*PGRepo)(nil)
