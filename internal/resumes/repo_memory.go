package resumes

import (
	"context"
	"sort"
	"sync"
	"time"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/resultcache"
)

// MemoryRepo is an in-memory implementation of Repo. Cache entries are kept
// apart from the rows so a later attempt on the same resume cannot alter them.
type MemoryRepo struct {
	mu     sync.RWMutex
	data   map[string]Resume
	cached map[string]resultcache.Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Resume), cached: make(map[string]resultcache.Entry)}
}

// Create stores a new resume.
func (r *MemoryRepo) Create(ctx context.Context, res Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[res.ID] = cloneResume(res)
	return nil
}

// Get returns a resume owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID int64, id string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.data[id]
	if !ok || res.UserID != userID {
		return Resume{}, ErrNotFound
	}
	return cloneResume(res), nil
}

// List returns resumes newest first.
func (r *MemoryRepo) List(ctx context.Context, userID int64, limit, offset int) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Resume, 0)
	for _, res := range r.data {
		if res.UserID == userID {
			out = append(out, cloneResume(res))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// UpdateStatus sets the status and error message.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error {
	return r.update(ctx, userID, id, func(res *Resume) {
		res.Status = status
		res.ErrorMessage = errMsg
	})
}

// SetExtractedText stores the text pulled from the upload.
func (r *MemoryRepo) SetExtractedText(ctx context.Context, userID int64, id, text string) error {
	return r.update(ctx, userID, id, func(res *Resume) { res.ExtractedText = text })
}

// SaveAnalysis stores a finished analysis and marks the resume analyzed.
func (r *MemoryRepo) SaveAnalysis(ctx context.Context, userID int64, id string, analysis map[string]any, model string, at time.Time) error {
	return r.update(ctx, userID, id, func(res *Resume) {
		res.Analysis = cloneMap(analysis)
		res.Status = artifact.StatusAnalyzed
		res.ErrorMessage = ""
		res.ModelUsed = model
		res.AnalyzedAt = &at
	})
}

// Delete removes a resume.
func (r *MemoryRepo) Delete(ctx context.Context, userID int64, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.data[id]
	if !ok || res.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	delete(r.cached, id)
	return nil
}

// LatestAnalyzed implements resultcache.Store.
func (r *MemoryRepo) LatestAnalyzed(ctx context.Context, userID int64, fingerprint string) (resultcache.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return resultcache.Entry{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best  resultcache.Entry
		found bool
	)
	for _, entry := range r.cached {
		if entry.OwnerID != userID || entry.Fingerprint != fingerprint {
			continue
		}
		if !found || entry.CreatedAt.After(best.CreatedAt) {
			best, found = entry, true
		}
	}
	if !found {
		return resultcache.Entry{}, false, nil
	}
	best.Payload = cloneMap(best.Payload)
	return best, true, nil
}

// SaveAnalyzed implements resultcache.Store. It replaces the resume's entry
// and flags the row; the row's own analysis is left alone.
func (r *MemoryRepo) SaveAnalyzed(ctx context.Context, entry resultcache.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.data[entry.ArtifactID]
	if !ok || res.UserID != entry.OwnerID {
		return ErrNotFound
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Payload = cloneMap(entry.Payload)
	r.cached[entry.ArtifactID] = entry
	res.CacheEntry = true
	r.data[entry.ArtifactID] = res
	return nil
}

func (r *MemoryRepo) update(ctx context.Context, userID int64, id string, fn func(*Resume)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.data[id]
	if !ok || res.UserID != userID {
		return ErrNotFound
	}
	fn(&res)
	res.UpdatedAt = time.Now().UTC()
	r.data[id] = res
	return nil
}

func cloneResume(res Resume) Resume {
	res.Analysis = cloneMap(res.Analysis)
	return res
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	copied := make(map[string]any, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

func page(items []Resume, limit, offset int) []Resume {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []Resume{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

var _ Repo = (*MemoryRepo)(nil)
