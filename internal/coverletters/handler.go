package coverletters

import (
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

// RegisterRoutes attaches cover letter routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/cover-letters")
	g.POST("/generate", h.generate)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	letter, err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c), GenerateInput{
		JobTitle:           req.JobTitle,
		CompanyName:        req.CompanyName,
		JobDescription:     req.JobDescription,
		ResumeID:           req.ResumeID,
		Tone:               req.Tone,
		Length:             req.Length,
		FocusAreas:         req.FocusAreas,
		CustomInstructions: req.CustomInstructions,
	})
	if letter.ID != "" {
		middleware.SetResource(c, letter.ID)
	}
	if err != nil {
		respond.Failure(c, err, "failed to generate cover letter")
		return
	}
	middleware.SetTransition(c, string(artifact.StatusPending), string(letter.Status))
	respond.JSON(c, http.StatusCreated, toResponse(letter))
}

func (h *Handler) list(c *gin.Context) {
	limit := params.Int(c, "limit", 20, 1, 100)
	offset := params.Int(c, "offset", 0, 0, 1<<30)
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Failure(c, err, "failed to list cover letters")
		return
	}
	resp := make([]SummaryResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toSummary(item))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	letter, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err, "failed to fetch cover letter")
		return
	}
	respond.OK(c, toResponse(letter))
}

func (h *Handler) update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	id := c.Param("id")
	middleware.SetResource(c, id)
	userID := middleware.UserIDFromContext(c)

	var (
		letter CoverLetter
		err    error
	)
	if req.Regenerate {
		letter, err = h.Svc.Regenerate(c.Request.Context(), userID, id)
	} else {
		letter, err = h.Svc.UpdateContent(c.Request.Context(), userID, id, req.Content)
	}
	if err != nil {
		respond.Failure(c, err, "failed to update cover letter")
		return
	}
	respond.OK(c, toResponse(letter))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Failure(c, err, "failed to delete cover letter")
		return
	}
	respond.NoContent(c)
}
