package applications

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

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/applications")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/stats", h.stats)
	g.GET("/statuses", h.statuses)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/status", h.updateStatus)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	app, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.input())
	if err != nil {
		respond.Failure(c, err, "failed to create application")
		return
	}
	middleware.SetResource(c, app.ID)
	respond.JSON(c, http.StatusCreated, toResponse(app, true))
}

func (h *Handler) list(c *gin.Context) {
	limit := params.Int(c, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := params.Int(c, "offset", 0, 0, 1<<30)
	apps, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), c.Query("status"), limit, offset)
	if err != nil {
		respond.Failure(c, err, "failed to list applications")
		return
	}
	resp := ListResponse{
		Applications: make([]ApplicationResponse, 0, len(apps)),
		Total:        len(apps),
		Limit:        limit,
		Offset:       offset,
	}
	for _, a := range apps {
		resp.Applications = append(resp.Applications, toResponse(a, false))
	}
	respond.OK(c, resp)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Failure(c, err, "failed to compute application stats")
		return
	}
	respond.OK(c, st)
}

func (h *Handler) statuses(c *gin.Context) {
	respond.OK(c, gin.H{"statuses": statusOptions()})
}

func (h *Handler) get(c *gin.Context) {
	app, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err, "failed to fetch application")
		return
	}
	respond.OK(c, toResponse(app, true))
}

func (h *Handler) update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	id := c.Param("id")
	middleware.SetResource(c, id)
	app, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), id, req.patch())
	if err != nil {
		respond.Failure(c, err, "failed to update application")
		return
	}
	respond.OK(c, toResponse(app, true))
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	id := c.Param("id")
	middleware.SetResource(c, id)
	userID := middleware.UserIDFromContext(c)
	prev, err := h.Svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		respond.Failure(c, err, "failed to update application status")
		return
	}
	app, err := h.Svc.UpdateStatus(c.Request.Context(), userID, id, req.Status, req.Notes)
	if err != nil {
		respond.Failure(c, err, "failed to update application status")
		return
	}
	middleware.SetTransition(c, string(prev.Status), string(app.Status))
	respond.OK(c, toResponse(app, true))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Failure(c, err, "failed to delete application")
		return
	}
	respond.NoContent(c)
}
