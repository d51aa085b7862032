package coverletters

import (
	"context"
	"sort"
	"sync"
	"time"

	"pathpilot-backend/internal/artifact"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]CoverLetter
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]CoverLetter)}
}

// Create stores a new cover letter.
func (r *MemoryRepo) Create(ctx context.Context, c CoverLetter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = clone(c)
	return nil
}

// Get returns a cover letter owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID int64, id string) (CoverLetter, error) {
	if err := ctx.Err(); err != nil {
		return CoverLetter{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok || c.UserID != userID {
		return CoverLetter{}, ErrNotFound
	}
	return clone(c), nil
}

// List returns cover letters newest first.
func (r *MemoryRepo) List(ctx context.Context, userID int64, limit, offset int) ([]CoverLetter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]CoverLetter, 0)
	for _, c := range r.data {
		if c.UserID == userID {
			out = append(out, clone(c))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []CoverLetter{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatus sets the status and error message.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error {
	return r.update(ctx, userID, id, func(c *CoverLetter) {
		c.Status = status
		c.ErrorMessage = errMsg
	})
}

// SaveContent writes the generated or edited content.
func (r *MemoryRepo) SaveContent(ctx context.Context, next CoverLetter) error {
	return r.update(ctx, next.UserID, next.ID, func(c *CoverLetter) {
		c.Content = next.Content
		c.WordCount = next.WordCount
		c.Version = next.Version
		c.Status = next.Status
		c.ErrorMessage = next.ErrorMessage
		c.ModelUsed = next.ModelUsed
		c.GeneratedAt = next.GeneratedAt
	})
}

// Delete removes a cover letter.
func (r *MemoryRepo) Delete(ctx context.Context, userID int64, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) update(ctx context.Context, userID int64, id string, fn func(*CoverLetter)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	fn(&c)
	c.UpdatedAt = time.Now().UTC()
	r.data[id] = clone(c)
	return nil
}

func clone(c CoverLetter) CoverLetter {
	c.Params.FocusAreas = append([]string(nil), c.Params.FocusAreas...)
	if c.Params.ResumeSummary != nil {
		bg := *c.Params.ResumeSummary
		c.Params.ResumeSummary = &bg
	}
	return c
}

var _ Repo = (*MemoryRepo)(nil)
