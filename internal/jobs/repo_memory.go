package jobs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Job
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Job)}
}

// Create stores a new job.
func (r *MemoryRepo) Create(ctx context.Context, j Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[j.ID] = clone(j)
	return nil
}

// Get returns a job owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID int64, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.data[id]
	if !ok || j.UserID != userID {
		return Job{}, ErrNotFound
	}
	return clone(j), nil
}

// ListSaved returns saved jobs best match first.
func (r *MemoryRepo) ListSaved(ctx context.Context, userID int64, limit int) ([]Job, error) {
	return r.filter(ctx, userID, limit, func(j Job) bool { return j.IsSaved })
}

// Search matches the filter against the owner's jobs.
func (r *MemoryRepo) Search(ctx context.Context, userID int64, f Filter) ([]Job, error) {
	query := strings.ToLower(f.Query)
	location := strings.ToLower(f.Location)
	return r.filter(ctx, userID, f.Limit, func(j Job) bool {
		if query != "" && !containsAny(query, j.Title, j.Company, j.Description) {
			return false
		}
		if location != "" && !strings.Contains(strings.ToLower(j.Location), location) {
			return false
		}
		if f.JobType != "" && j.JobType != f.JobType {
			return false
		}
		if f.ExperienceLevel != "" && j.ExperienceLevel != f.ExperienceLevel {
			return false
		}
		return true
	})
}

// SaveMatch stores a match analysis on the job.
func (r *MemoryRepo) SaveMatch(ctx context.Context, userID int64, id string, analysis map[string]any, score float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok || j.UserID != userID {
		return ErrNotFound
	}
	j.MatchAnalysis = analysis
	j.MatchScore = &score
	j.UpdatedAt = time.Now().UTC()
	r.data[id] = clone(j)
	return nil
}

// Delete removes a job.
func (r *MemoryRepo) Delete(ctx context.Context, userID int64, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok || j.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) filter(ctx context.Context, userID int64, limit int, keep func(Job) bool) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Job, 0)
	for _, j := range r.data {
		if j.UserID == userID && keep(j) {
			out = append(out, clone(j))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return ranksBefore(out[a], out[b]) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ranksBefore mirrors ORDER BY match_score DESC NULLS LAST, created_at DESC.
func ranksBefore(a, b Job) bool {
	switch {
	case a.MatchScore != nil && b.MatchScore == nil:
		return true
	case a.MatchScore == nil && b.MatchScore != nil:
		return false
	case a.MatchScore != nil && *a.MatchScore != *b.MatchScore:
		return *a.MatchScore > *b.MatchScore
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func clone(j Job) Job {
	if j.MatchAnalysis != nil {
		m := make(map[string]any, len(j.MatchAnalysis))
		for k, v := range j.MatchAnalysis {
			m[k] = v
		}
		j.MatchAnalysis = m
	}
	if j.MatchScore != nil {
		s := *j.MatchScore
		j.MatchScore = &s
	}
	return j
}

var _ Repo = (*MemoryRepo)(nil)
