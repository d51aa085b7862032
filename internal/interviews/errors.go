package interviews

import "pathpilot-backend/internal/shared/apperr"

var (
	ErrNotFound         = apperr.NotFound("interview")
	ErrQuestionNotFound = apperr.NotFound("question")
	ErrNotAnswerable    = apperr.InvalidState("interview is not accepting answers")
)
