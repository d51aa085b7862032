package jobs

import "pathpilot-backend/internal/shared/apperr"

var ErrNotFound = apperr.NotFound("job")
