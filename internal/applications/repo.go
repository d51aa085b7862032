package applications

import "context"

// Repo defines persistence operations for applications.
type Repo interface {
	Create(ctx context.Context, a Application) error
	Get(ctx context.Context, userID int64, id string) (Application, error)
	// List returns applications most recently updated first. An empty status
	// matches every status.
	List(ctx context.Context, userID int64, status Status, limit, offset int) ([]Application, error)
	// All returns every application the owner has.
	All(ctx context.Context, userID int64) ([]Application, error)
	// Update rewrites every mutable column.
	Update(ctx context.Context, a Application) error
	Delete(ctx context.Context, userID int64, id string) error
}
