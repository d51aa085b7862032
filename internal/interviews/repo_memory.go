package interviews

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
	data map[string]Interview
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Interview)}
}

// Create stores a new interview.
func (r *MemoryRepo) Create(ctx context.Context, iv Interview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[iv.ID] = clone(iv)
	return nil
}

// Get returns an interview owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID int64, id string) (Interview, error) {
	if err := ctx.Err(); err != nil {
		return Interview{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	iv, ok := r.data[id]
	if !ok || iv.UserID != userID {
		return Interview{}, ErrNotFound
	}
	return clone(iv), nil
}

// List returns interviews newest first.
func (r *MemoryRepo) List(ctx context.Context, userID int64, limit, offset int) ([]Interview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Interview, 0)
	for _, iv := range r.data {
		if iv.UserID == userID {
			out = append(out, clone(iv))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Interview{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatus sets the status and error message.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error {
	return r.update(ctx, userID, id, func(iv *Interview) {
		iv.Status = status
		iv.ErrorMessage = errMsg
	})
}

// SaveQuestions stores generated questions.
func (r *MemoryRepo) SaveQuestions(ctx context.Context, userID int64, id string, questions []Question, status artifact.Status, model string) error {
	return r.update(ctx, userID, id, func(iv *Interview) {
		iv.Questions = questions
		iv.Status = status
		iv.ErrorMessage = ""
		iv.ModelUsed = model
	})
}

// SaveAnswers stores the answer list and session progress.
func (r *MemoryRepo) SaveAnswers(ctx context.Context, next Interview) error {
	return r.update(ctx, next.UserID, next.ID, func(iv *Interview) {
		iv.Answers = next.Answers
		iv.Status = next.Status
		iv.TotalScore = next.TotalScore
		iv.StartedAt = next.StartedAt
		iv.CompletedAt = next.CompletedAt
	})
}

// Delete removes an interview.
func (r *MemoryRepo) Delete(ctx context.Context, userID int64, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	iv, ok := r.data[id]
	if !ok || iv.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) update(ctx context.Context, userID int64, id string, fn func(*Interview)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	iv, ok := r.data[id]
	if !ok || iv.UserID != userID {
		return ErrNotFound
	}
	fn(&iv)
	iv.UpdatedAt = time.Now().UTC()
	r.data[id] = clone(iv)
	return nil
}

func clone(iv Interview) Interview {
	iv.Questions = append([]Question(nil), iv.Questions...)
	iv.Answers = append([]Answer(nil), iv.Answers...)
	iv.Config.FocusAreas = append([]string(nil), iv.Config.FocusAreas...)
	return iv
}

var _ Repo = (*MemoryRepo)(nil)
