package applications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Application
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Application)}
}

// Create stores a new application.
func (r *MemoryRepo) Create(ctx context.Context, a Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[a.ID] = clone(a)
	return nil
}

// Get returns an application owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID int64, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[id]
	if !ok || a.UserID != userID {
		return Application{}, ErrNotFound
	}
	return clone(a), nil
}

// List returns applications most recently updated first.
func (r *MemoryRepo) List(ctx context.Context, userID int64, status Status, limit, offset int) ([]Application, error) {
	all, err := r.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	if offset >= len(out) {
		return []Application{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// All returns every application the owner has, most recently updated first.
func (r *MemoryRepo) All(ctx context.Context, userID int64) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Application, 0)
	for _, a := range r.data {
		if a.UserID == userID {
			out = append(out, clone(a))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Update rewrites a stored application.
func (r *MemoryRepo) Update(ctx context.Context, a Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[a.ID]
	if !ok || cur.UserID != a.UserID {
		return ErrNotFound
	}
	a.CreatedAt = cur.CreatedAt
	r.data[a.ID] = clone(a)
	return nil
}

// Delete removes an application.
func (r *MemoryRepo) Delete(ctx context.Context, userID int64, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func clone(a Application) Application {
	a.ActivityLog = append([]Activity(nil), a.ActivityLog...)
	for _, p := range []**time.Time{&a.AppliedAt, &a.InterviewAt, &a.OfferAt, &a.Deadline} {
		if *p != nil {
			t := **p
			*p = &t
		}
	}
	return a
}

var _ Repo = (*MemoryRepo)(nil)
