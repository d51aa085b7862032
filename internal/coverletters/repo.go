package coverletters

import (
	"context"

	"pathpilot-backend/internal/artifact"
)

// Repo defines persistence operations for cover letters.
type Repo interface {
	Create(ctx context.Context, c CoverLetter) error
	Get(ctx context.Context, userID int64, id string) (CoverLetter, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]CoverLetter, error)
	UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error
	// SaveContent writes content, word count, version, status and model fields.
	SaveContent(ctx context.Context, c CoverLetter) error
	Delete(ctx context.Context, userID int64, id string) error
}
