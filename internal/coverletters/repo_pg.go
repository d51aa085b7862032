package coverletters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pathpilot-backend/internal/artifact"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const coverLetterColumns = `id, user_id, resume_id, job_title, company_name, job_description, content,
       word_count, generation_params, version, status, error_message, model_used,
       created_at, updated_at, generated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new cover letter.
func (r *PGRepo) Create(ctx context.Context, c CoverLetter) error {
	params, err := json.Marshal(c.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	const query = `
INSERT INTO cover_letters (
    id, user_id, resume_id, job_title, company_name, job_description,
    generation_params, version, status, created_at, updated_at
) VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $10)`
	_, err = r.DB.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.ResumeID,
		c.JobTitle,
		c.CompanyName,
		c.JobDescription,
		params,
		c.Version,
		string(c.Status),
		c.CreatedAt,
	)
	return err
}

// Get fetches a cover letter by ID for a user.
func (r *PGRepo) Get(ctx context.Context, userID int64, id string) (CoverLetter, error) {
	query := `SELECT ` + coverLetterColumns + `
FROM cover_letters
WHERE user_id = $1 AND id = $2`
	c, err := scanCoverLetter(r.DB.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return CoverLetter{}, ErrNotFound
	}
	return c, err
}

// List returns cover letters newest first.
func (r *PGRepo) List(ctx context.Context, userID int64, limit, offset int) ([]CoverLetter, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + coverLetterColumns + `
FROM cover_letters
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CoverLetter{}
	for rows.Next() {
		c, err := scanCoverLetter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status and error message.
func (r *PGRepo) UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error {
	const query = `
UPDATE cover_letters
SET status = $1, error_message = NULLIF($2, ''), updated_at = now()
WHERE user_id = $3 AND id = $4`
	return r.exec(ctx, query, string(status), errMsg, userID, id)
}

// SaveContent writes the generated or edited content.
func (r *PGRepo) SaveContent(ctx context.Context, c CoverLetter) error {
	const query = `
UPDATE cover_letters
SET content = $1, word_count = $2, version = $3, status = $4, error_message = NULLIF($5, ''),
    model_used = NULLIF($6, ''), generated_at = $7, updated_at = now()
WHERE user_id = $8 AND id = $9`
	var generatedAt sql.NullTime
	if c.GeneratedAt != nil {
		generatedAt = sql.NullTime{Time: *c.GeneratedAt, Valid: true}
	}
	return r.exec(ctx, query,
		c.Content,
		c.WordCount,
		c.Version,
		string(c.Status),
		c.ErrorMessage,
		c.ModelUsed,
		generatedAt,
		c.UserID,
		c.ID,
	)
}

// Delete removes a cover letter.
func (r *PGRepo) Delete(ctx context.Context, userID int64, id string) error {
	const query = `DELETE FROM cover_letters WHERE user_id = $1 AND id = $2`
	return r.exec(ctx, query, userID, id)
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

func scanCoverLetter(row rowScanner) (CoverLetter, error) {
	var (
		c           CoverLetter
		resumeID    sql.NullString
		description sql.NullString
		content     sql.NullString
		params      []byte
		status      string
		errMsg      sql.NullString
		model       sql.NullString
		generatedAt sql.NullTime
	)
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&resumeID,
		&c.JobTitle,
		&c.CompanyName,
		&description,
		&content,
		&c.WordCount,
		&params,
		&c.Version,
		&status,
		&errMsg,
		&model,
		&c.CreatedAt,
		&c.UpdatedAt,
		&generatedAt,
	); err != nil {
		return CoverLetter{}, err
	}
	c.ResumeID = resumeID.String
	c.JobDescription = description.String
	c.Content = content.String
	c.Status = artifact.Status(status)
	c.ErrorMessage = errMsg.String
	c.ModelUsed = model.String
	if generatedAt.Valid {
		c.GeneratedAt = &generatedAt.Time
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &c.Params); err != nil {
			return CoverLetter{}, fmt.Errorf("decode generation params: %w", err)
		}
	}
	return c, nil
}

var _ Repo = (*PGRepo)(nil)
