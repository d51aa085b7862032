package coverletters

import "pathpilot-backend/internal/shared/apperr"

var (
	ErrNotFound   = apperr.NotFound("cover letter")
	ErrGenerating = apperr.InvalidState("cover letter is still generating")
)
