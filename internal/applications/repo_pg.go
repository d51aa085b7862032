package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const applicationColumns = `id, user_id, company_name, position, job_url, location, salary_range, status,
       resume_id, cover_letter_id, job_id, applied_at, interview_at, offer_at, deadline,
       notes, contact_name, contact_email, activity_log, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new application.
func (r *PGRepo) Create(ctx context.Context, a Application) error {
	log, err := encodeLog(a.ActivityLog)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO applications (
    id, user_id, company_name, position, job_url, location, salary_range, status,
    resume_id, cover_letter_id, job_id, applied_at, interview_at, offer_at, deadline,
    notes, contact_name, contact_email, activity_log, created_at, updated_at
) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8,
    NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13, $14, $15,
    NULLIF($16, ''), NULLIF($17, ''), NULLIF($18, ''), $19, $20, $20)`
	_, err = r.DB.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.CompanyName,
		a.Position,
		a.JobURL,
		a.Location,
		a.SalaryRange,
		string(a.Status),
		a.ResumeID,
		a.CoverLetterID,
		a.JobID,
		nullTime(a.AppliedAt),
		nullTime(a.InterviewAt),
		nullTime(a.OfferAt),
		nullTime(a.Deadline),
		a.Notes,
		a.ContactName,
		a.ContactEmail,
		log,
		a.CreatedAt,
	)
	return err
}

// Get fetches an application by ID for a user.
func (r *PGRepo) Get(ctx context.Context, userID int64, id string) (Application, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE user_id = $1 AND id = $2`
	a, err := scanApplication(r.DB.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	return a, err
}

// List returns applications most recently updated first.
func (r *PGRepo) List(ctx context.Context, userID int64, status Status, limit, offset int) ([]Application, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE user_id = $1 AND ($2 = '' OR status = $2)
ORDER BY updated_at DESC
LIMIT $3 OFFSET $4`
	return r.query(ctx, query, userID, string(status), limit, offset)
}

// All returns every application the owner has.
func (r *PGRepo) All(ctx context.Context, userID int64) ([]Application, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE user_id = $1
ORDER BY updated_at DESC`
	return r.query(ctx, query, userID)
}

// Update rewrites every mutable column.
func (r *PGRepo) Update(ctx context.Context, a Application) error {
	log, err := encodeLog(a.ActivityLog)
	if err != nil {
		return err
	}
	const query = `
UPDATE applications
SET company_name = $1,
    position = $2,
    job_url = NULLIF($3, ''),
    location = NULLIF($4, ''),
    salary_range = NULLIF($5, ''),
    status = $6,
    resume_id = NULLIF($7, ''),
    cover_letter_id = NULLIF($8, ''),
    job_id = NULLIF($9, ''),
    applied_at = $10,
    interview_at = $11,
    offer_at = $12,
    deadline = $13,
    notes = NULLIF($14, ''),
    contact_name = NULLIF($15, ''),
    contact_email = NULLIF($16, ''),
    activity_log = $17,
    updated_at = $18
WHERE user_id = $19 AND id = $20`
	return r.exec(ctx, query,
		a.CompanyName,
		a.Position,
		a.JobURL,
		a.Location,
		a.SalaryRange,
		string(a.Status),
		a.ResumeID,
		a.CoverLetterID,
		a.JobID,
		nullTime(a.AppliedAt),
		nullTime(a.InterviewAt),
		nullTime(a.OfferAt),
		nullTime(a.Deadline),
		a.Notes,
		a.ContactName,
		a.ContactEmail,
		log,
		a.UpdatedAt,
		a.UserID,
		a.ID,
	)
}

// Delete removes an application.
func (r *PGRepo) Delete(ctx context.Context, userID int64, id string) error {
	const query = `DELETE FROM applications WHERE user_id = $1 AND id = $2`
	return r.exec(ctx, query, userID, id)
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Application, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
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

func scanApplication(row rowScanner) (Application, error) {
	var (
		a            Application
		status       string
		jobURL       sql.NullString
		location     sql.NullString
		salary       sql.NullString
		resumeID     sql.NullString
		coverID      sql.NullString
		jobID        sql.NullString
		appliedAt    sql.NullTime
		interviewAt  sql.NullTime
		offerAt      sql.NullTime
		deadline     sql.NullTime
		notes        sql.NullString
		contactName  sql.NullString
		contactEmail sql.NullString
		log          []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.CompanyName,
		&a.Position,
		&jobURL,
		&location,
		&salary,
		&status,
		&resumeID,
		&coverID,
		&jobID,
		&appliedAt,
		&interviewAt,
		&offerAt,
		&deadline,
		&notes,
		&contactName,
		&contactEmail,
		&log,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return Application{}, err
	}
	a.Status = Status(status)
	a.JobURL = jobURL.String
	a.Location = location.String
	a.SalaryRange = salary.String
	a.ResumeID = resumeID.String
	a.CoverLetterID = coverID.String
	a.JobID = jobID.String
	a.AppliedAt = timePtr(appliedAt)
	a.InterviewAt = timePtr(interviewAt)
	a.OfferAt = timePtr(offerAt)
	a.Deadline = timePtr(deadline)
	a.Notes = notes.String
	a.ContactName = contactName.String
	a.ContactEmail = contactEmail.String
	if len(log) > 0 {
		if err := json.Unmarshal(log, &a.ActivityLog); err != nil {
			return Application{}, fmt.Errorf("decode activity log: %w", err)
		}
	}
	return a, nil
}

func encodeLog(log []Activity) ([]byte, error) {
	if log == nil {
		log = []Activity{}
	}
	payload, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("marshal activity log: %w", err)
	}
	return payload, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

var _ Repo = (*PGRepo)(nil)
