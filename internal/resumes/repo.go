package resumes

import (
	"context"
	"time"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/resultcache"
)

// Repo defines persistence operations for resumes. It doubles as the
// analysis cache store: a cache entry is an analyzed resume row flagged as
// reusable.
type Repo interface {
	Create(ctx context.Context, r Resume) error
	Get(ctx context.Context, userID int64, id string) (Resume, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]Resume, error)
	UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error
	SetExtractedText(ctx context.Context, userID int64, id, text string) error
	SaveAnalysis(ctx context.Context, userID int64, id string, analysis map[string]any, model string, at time.Time) error
	Delete(ctx context.Context, userID int64, id string) error

	resultcache.Store
}
