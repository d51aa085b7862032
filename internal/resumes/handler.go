package resumes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pathpilot-backend/internal/artifact"
	"pathpilot-backend/internal/shared/server/middleware"
	"pathpilot-backend/internal/shared/server/params"
	"pathpilot-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/resumes")
	g.POST("/upload", h.upload)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/analysis", h.analysis)
	g.POST("/:id/reanalyze", h.reanalyze)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := h.Svc.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	// Multipart framing needs headroom beyond the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, respond.CodeTooLarge, "file is too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	result, err := h.Svc.Analyze(c.Request.Context(), userID, Upload{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Body:     file,
	})
	if result.Resume.ID != "" {
		middleware.SetResource(c, result.Resume.ID)
	}
	if err != nil {
		respond.Failure(c, err, "failed to analyze resume")
		return
	}
	if !result.Cached {
		middleware.SetTransition(c, string(artifact.StatusPending), string(result.Resume.Status))
	}

	status := http.StatusCreated
	if result.Cached {
		status = http.StatusOK
	}
	respond.JSON(c, status, toResponse(result.Resume, result.Cached))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := params.Int(c, "limit", 20, 1, 100)
	offset := params.Int(c, "offset", 0, 0, 1<<30)

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Failure(c, err, "failed to list resumes")
		return
	}
	resp := make([]ResumeResponse, 0, len(items))
	for _, res := range items {
		resp = append(resp, toResponse(res, false))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	res, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err, "failed to fetch resume")
		return
	}
	respond.OK(c, toResponse(res, false))
}

func (h *Handler) analysis(c *gin.Context) {
	res, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err, "failed to fetch analysis")
		return
	}
	if res.Status != artifact.StatusAnalyzed {
		respond.Error(c, http.StatusConflict, respond.CodeConflict, "resume analysis is "+string(res.Status), gin.H{
			"status":        res.Status,
			"error_message": res.ErrorMessage,
		})
		return
	}
	typed, err := res.Typed()
	if err != nil {
		respond.Failure(c, err, "failed to decode analysis")
		return
	}
	respond.OK(c, AnalysisResponse{
		ResumeID:   res.ID,
		Status:     string(res.Status),
		Analysis:   typed,
		ModelUsed:  res.ModelUsed,
		AnalyzedAt: res.AnalyzedAt,
	})
}

func (h *Handler) reanalyze(c *gin.Context) {
	id := c.Param("id")
	middleware.SetResource(c, id)
	result, err := h.Svc.Reanalyze(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		respond.Failure(c, err, "failed to reanalyze resume")
		return
	}
	respond.OK(c, toResponse(result.Resume, false))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Failure(c, err, "failed to delete resume")
		return
	}
	respond.NoContent(c)
}
