package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, user_id, title, company, location, job_type, experience_level, description,
       requirements, salary_range, url, match_analysis, match_score, is_saved, notes, source,
       created_at, updated_at`

const jobOrder = `ORDER BY match_score DESC NULLS LAST, created_at DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, j Job) error {
	const query = `
INSERT INTO jobs (
    id, user_id, title, company, location, job_type, experience_level, description,
    requirements, salary_range, url, is_saved, notes, source, created_at, updated_at
) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
    NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, NULLIF($13, ''), $14, $15, $15)`
	_, err := r.DB.ExecContext(ctx, query,
		j.ID,
		j.UserID,
		j.Title,
		j.Company,
		j.Location,
		j.JobType,
		j.ExperienceLevel,
		j.Description,
		j.Requirements,
		j.SalaryRange,
		j.URL,
		j.IsSaved,
		j.Notes,
		j.Source,
		j.CreatedAt,
	)
	return err
}

// Get fetches a job by ID for a user.
func (r *PGRepo) Get(ctx context.Context, userID int64, id string) (Job, error) {
	query := `SELECT ` + jobColumns + `
FROM jobs
WHERE user_id = $1 AND id = $2`
	j, err := scanJob(r.DB.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

// ListSaved returns saved jobs best match first.
func (r *PGRepo) ListSaved(ctx context.Context, userID int64, limit int) ([]Job, error) {
	query := `SELECT ` + jobColumns + `
FROM jobs
WHERE user_id = $1 AND is_saved
` + jobOrder + `
LIMIT $2`
	return r.query(ctx, query, userID, clampLimit(limit, 50))
}

// Search matches the filter against the owner's jobs.
func (r *PGRepo) Search(ctx context.Context, userID int64, f Filter) ([]Job, error) {
	var (
		where = []string{"user_id = $1"}
		args  = []any{userID}
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Query != "" {
		p := arg("%" + escapeLike(f.Query) + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %[1]s OR company ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if f.Location != "" {
		where = append(where, "location ILIKE "+arg("%"+escapeLike(f.Location)+"%"))
	}
	if f.JobType != "" {
		where = append(where, "job_type = "+arg(f.JobType))
	}
	if f.ExperienceLevel != "" {
		where = append(where, "experience_level = "+arg(f.ExperienceLevel))
	}
	limit := arg(clampLimit(f.Limit, 20))

	query := `SELECT ` + jobColumns + `
FROM jobs
WHERE ` + strings.Join(where, " AND ") + `
` + jobOrder + `
LIMIT ` + limit
	return r.query(ctx, query, args...)
}

// SaveMatch stores a match analysis on the job.
func (r *PGRepo) SaveMatch(ctx context.Context, userID int64, id string, analysis map[string]any, score float64) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal match analysis: %w", err)
	}
	const query = `
UPDATE jobs
SET match_analysis = $1, match_score = $2, updated_at = now()
WHERE user_id = $3 AND id = $4`
	return r.exec(ctx, query, payload, score, userID, id)
}

// Delete removes a job.
func (r *PGRepo) Delete(ctx context.Context, userID int64, id string) error {
	const query = `DELETE FROM jobs WHERE user_id = $1 AND id = $2`
	return r.exec(ctx, query, userID, id)
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
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

func scanJob(row rowScanner) (Job, error) {
	var (
		j           Job
		location    sql.NullString
		jobType     sql.NullString
		level       sql.NullString
		description sql.NullString
		reqs        sql.NullString
		salary      sql.NullString
		url         sql.NullString
		analysis    []byte
		score       sql.NullFloat64
		notes       sql.NullString
	)
	if err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.Title,
		&j.Company,
		&location,
		&jobType,
		&level,
		&description,
		&reqs,
		&salary,
		&url,
		&analysis,
		&score,
		&j.IsSaved,
		&notes,
		&j.Source,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		return Job{}, err
	}
	j.Location = location.String
	j.JobType = jobType.String
	j.ExperienceLevel = level.String
	j.Description = description.String
	j.Requirements = reqs.String
	j.SalaryRange = salary.String
	j.URL = url.String
	j.Notes = notes.String
	if score.Valid {
		j.MatchScore = &score.Float64
	}
	if len(analysis) > 0 {
		if err := json.Unmarshal(analysis, &j.MatchAnalysis); err != nil {
			return Job{}, fmt.Errorf("decode match analysis: %w", err)
		}
	}
	return j, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 100 {
		return 100
	}
	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ Repo = (*PGRepo)(nil)
