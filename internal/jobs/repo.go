package jobs

import "context"

// Repo defines persistence operations for saved jobs.
type Repo interface {
	Create(ctx context.Context, j Job) error
	Get(ctx context.Context, userID int64, id string) (Job, error)
	// ListSaved orders by match score (unscored last), then newest first.
	ListSaved(ctx context.Context, userID int64, limit int) ([]Job, error)
	Search(ctx context.Context, userID int64, f Filter) ([]Job, error)
	SaveMatch(ctx context.Context, userID int64, id string, analysis map[string]any, score float64) error
	Delete(ctx context.Context, userID int64, id string) error
}
