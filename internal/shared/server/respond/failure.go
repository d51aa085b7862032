package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pathpilot-backend/internal/llm"
	"pathpilot-backend/internal/resilience"
	"pathpilot-backend/internal/shared/apperr"
)

// Failure maps a service error to a standardized error response. Unknown
// errors become 500 with the generic message.
func Failure(c *gin.Context, err error, message string) {
	if ve, ok := apperr.AsValidation(err); ok {
		Error(c, http.StatusBadRequest, CodeValidation, ve.Error(), gin.H{"field": ve.Field})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, apperr.ErrInvalidState):
		Error(c, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, apperr.ErrTooLarge):
		Error(c, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error(), nil)
	case errors.Is(err, llm.ErrNotConfigured), resilience.IsFinalFailure(err):
		Error(c, http.StatusServiceUnavailable, CodeLLM, "AI service is temporarily unavailable", nil)
	default:
		Error(c, http.StatusInternalServerError, CodeInternal, message, nil)
	}
}
