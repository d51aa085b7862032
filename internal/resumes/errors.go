package resumes

import "pathpilot-backend/internal/shared/apperr"

var (
	ErrNotFound     = apperr.NotFound("resume")
	ErrNotAnalyzed  = apperr.InvalidState("resume has not been analyzed")
	ErrFileTooLarge = apperr.ErrTooLarge
)
