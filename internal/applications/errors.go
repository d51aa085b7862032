package applications

import "pathpilot-backend/internal/shared/apperr"

var ErrNotFound = apperr.NotFound("application")
