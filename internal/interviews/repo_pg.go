package interviews

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

const interviewColumns = `id, user_id, resume_id, job_title, company_name, job_description, config,
       questions, answers, total_score, status, error_message, model_used,
       created_at, updated_at, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new interview.
func (r *PGRepo) Create(ctx context.Context, iv Interview) error {
	config, err := json.Marshal(iv.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	const query = `
INSERT INTO interviews (
    id, user_id, resume_id, job_title, company_name, job_description, config, status,
    created_at, updated_at
) VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $9)`
	_, err = r.DB.ExecContext(ctx, query,
		iv.ID,
		iv.UserID,
		iv.ResumeID,
		iv.JobTitle,
		iv.CompanyName,
		iv.JobDescription,
		config,
		string(iv.Status),
		iv.CreatedAt,
	)
	return err
}

// Get fetches an interview by ID for a user.
func (r *PGRepo) Get(ctx context.Context, userID int64, id string) (Interview, error) {
	query := `SELECT ` + interviewColumns + `
FROM interviews
WHERE user_id = $1 AND id = $2`
	iv, err := scanInterview(r.DB.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Interview{}, ErrNotFound
	}
	return iv, err
}

// List returns interviews newest first.
func (r *PGRepo) List(ctx context.Context, userID int64, limit, offset int) ([]Interview, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + interviewColumns + `
FROM interviews
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status and error message.
func (r *PGRepo) UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error {
	const query = `
UPDATE interviews
SET status = $1, error_message = NULLIF($2, ''), updated_at = now()
WHERE user_id = $3 AND id = $4`
	return r.exec(ctx, query, string(status), errMsg, userID, id)
}

// SaveQuestions stores generated questions.
func (r *PGRepo) SaveQuestions(ctx context.Context, userID int64, id string, questions []Question, status artifact.Status, model string) error {
	payload, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	const query = `
UPDATE interviews
SET questions = $1, status = $2, error_message = NULL, model_used = NULLIF($3, ''), updated_at = now()
WHERE user_id = $4 AND id = $5`
	return r.exec(ctx, query, payload, string(status), model, userID, id)
}

// SaveAnswers stores the answer list and session progress.
func (r *PGRepo) SaveAnswers(ctx context.Context, iv Interview) error {
	payload, err := json.Marshal(iv.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	var (
		total     sql.NullFloat64
		started   sql.NullTime
		completed sql.NullTime
	)
	if iv.TotalScore != nil {
		total = sql.NullFloat64{Float64: *iv.TotalScore, Valid: true}
	}
	if iv.StartedAt != nil {
		started = sql.NullTime{Time: *iv.StartedAt, Valid: true}
	}
	if iv.CompletedAt != nil {
		completed = sql.NullTime{Time: *iv.CompletedAt, Valid: true}
	}
	const query = `
UPDATE interviews
SET answers = $1, status = $2, total_score = $3, started_at = $4, completed_at = $5, updated_at = now()
WHERE user_id = $6 AND id = $7`
	return r.exec(ctx, query, payload, string(iv.Status), total, started, completed, iv.UserID, iv.ID)
}

// Delete removes an interview.
func (r *PGRepo) Delete(ctx context.Context, userID int64, id string) error {
	const query = `DELETE FROM interviews WHERE user_id = $1 AND id = $2`
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

func scanInterview(row rowScanner) (Interview, error) {
	var (
		iv          Interview
		resumeID    sql.NullString
		company     sql.NullString
		description sql.NullString
		config      []byte
		questions   []byte
		answers     []byte
		total       sql.NullFloat64
		status      string
		errMsg      sql.NullString
		model       sql.NullString
		started     sql.NullTime
		completed   sql.NullTime
	)
	if err := row.Scan(
		&iv.ID,
		&iv.UserID,
		&resumeID,
		&iv.JobTitle,
		&company,
		&description,
		&config,
		&questions,
		&answers,
		&total,
		&status,
		&errMsg,
		&model,
		&iv.CreatedAt,
		&iv.UpdatedAt,
		&started,
		&completed,
	); err != nil {
		return Interview{}, err
	}
	iv.ResumeID = resumeID.String
	iv.CompanyName = company.String
	iv.JobDescription = description.String
	iv.Status = artifact.Status(status)
	iv.ErrorMessage = errMsg.String
	iv.ModelUsed = model.String
	if total.Valid {
		iv.TotalScore = &total.Float64
	}
	if started.Valid {
		iv.StartedAt = &started.Time
	}
	if completed.Valid {
		iv.CompletedAt = &completed.Time
	}
	for _, field := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"config", config, &iv.Config},
		{"questions", questions, &iv.Questions},
		{"answers", answers, &iv.Answers},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dst); err != nil {
			return Interview{}, fmt.Errorf("decode %s: %w", field.name, err)
		}
	}
	return iv, nil
}

var _ Repo = (*PGRepo)(nil)
