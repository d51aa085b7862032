package interviews

import (
	"context"

	"pathpilot-backend/internal/artifact"
)

// Repo defines persistence operations for interviews.
type Repo interface {
	Create(ctx context.Context, iv Interview) error
	Get(ctx context.Context, userID int64, id string) (Interview, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]Interview, error)
	UpdateStatus(ctx context.Context, userID int64, id string, status artifact.Status, errMsg string) error
	SaveQuestions(ctx context.Context, userID int64, id string, questions []Question, status artifact.Status, model string) error
	// SaveAnswers writes answers, status, total score and session timestamps.
	SaveAnswers(ctx context.Context, iv Interview) error
	Delete(ctx context.Context, userID int64, id string) error
}
