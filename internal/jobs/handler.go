package jobs

import (
	"net/http"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/jobs")
	g.POST("/save", h.save)
	g.GET("/saved", h.saved)
	g.POST("/search", h.search)
	g.POST("/match", h.match)
	g.POST("/recommend", h.recommend)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	job, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), req.input())
	if err != nil {
		respond.Failure(c, err, "failed to save job")
		return
	}
	middleware.SetResource(c, job.ID)
	respond.JSON(c, http.StatusCreated, toResponse(job))
}

func (h *Handler) saved(c *gin.Context) {
	limit := params.Int(c, "limit", 50, 1, MaxSearchLimit)
	jobs, err := h.Svc.Saved(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		respond.Failure(c, err, "failed to list saved jobs")
		return
	}
	respond.OK(c, toResponses(jobs))
}

func (h *Handler) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	jobs, err := h.Svc.Search(c.Request.Context(), middleware.UserIDFromContext(c), Filter{
		Query:           req.Query,
		Location:        req.Location,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		Limit:           req.Limit,
	})
	if err != nil {
		respond.Failure(c, err, "failed to search jobs")
		return
	}
	respond.OK(c, SearchResponse{Jobs: toResponses(jobs), Total: len(jobs), Query: req.Query})
}

func (h *Handler) match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	if req.JobID != "" {
		middleware.SetResource(c, req.JobID)
	}
	res, err := h.Svc.Match(c.Request.Context(), middleware.UserIDFromContext(c), MatchInput{
		ResumeID:       req.ResumeID,
		JobID:          req.JobID,
		JobTitle:       req.JobTitle,
		Company:        req.Company,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		respond.Failure(c, err, "failed to analyze job match")
		return
	}
	respond.OK(c, MatchResponse{Match: res.Match, JobID: res.JobID, Fallback: res.Fallback})
}

func (h *Handler) recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	recs, fallback, err := h.Svc.Recommend(c.Request.Context(), middleware.UserIDFromContext(c), req.input())
	if err != nil {
		respond.Failure(c, err, "failed to recommend jobs")
		return
	}
	respond.OK(c, RecommendResponse{Recommendations: recs, Total: len(recs), Fallback: fallback})
}

func (h *Handler) get(c *gin.Context) {
	job, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err, "failed to fetch job")
		return
	}
	respond.OK(c, toResponse(job))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Failure(c, err, "failed to delete job")
		return
	}
	respond.NoContent(c)
}
