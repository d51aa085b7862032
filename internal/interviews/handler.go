package interviews

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

// RegisterRoutes attaches interview routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/interviews")
	g.POST("/generate-questions", h.create)
	g.POST("/:id/evaluate-answer", h.evaluate)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/progress", h.progress)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	iv, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		JobDescription: req.JobDescription,
		ResumeID:       req.ResumeID,
		InterviewType:  req.InterviewType,
		Difficulty:     req.Difficulty,
		QuestionCount:  req.QuestionCount,
		FocusAreas:     req.FocusAreas,
		Language:       req.Language,
	})
	if iv.ID != "" {
		middleware.SetResource(c, iv.ID)
	}
	if err != nil {
		respond.Failure(c, err, "failed to generate interview questions")
		return
	}
	middleware.SetTransition(c, string(artifact.StatusPending), string(iv.Status))
	respond.JSON(c, http.StatusCreated, toResponse(iv))
}

func (h *Handler) evaluate(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	id := c.Param("id")
	middleware.SetResource(c, id)
	res, err := h.Svc.EvaluateAnswer(c.Request.Context(), middleware.UserIDFromContext(c), id, AnswerInput{
		QuestionID:     req.QuestionID,
		AnswerText:     req.AnswerText,
		AnswerAudioURL: req.AnswerAudioURL,
	})
	if err != nil {
		respond.Failure(c, err, "failed to evaluate answer")
		return
	}
	respond.OK(c, toEvaluation(res))
}

func (h *Handler) list(c *gin.Context) {
	limit := params.Int(c, "limit", 10, 1, 100)
	offset := params.Int(c, "offset", 0, 0, 1<<30)
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Failure(c, err, "failed to list interviews")
		return
	}
	resp := make([]SummaryResponse, 0, len(items))
	for _, iv := range items {
		resp = append(resp, toSummary(iv))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	iv, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err, "failed to fetch interview")
		return
	}
	respond.OK(c, toResponse(iv))
}

func (h *Handler) progress(c *gin.Context) {
	iv, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err, "failed to fetch interview")
		return
	}
	respond.OK(c, iv.Progress())
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Failure(c, err, "failed to delete interview")
		return
	}
	respond.NoContent(c)
}
