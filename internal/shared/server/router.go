package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pathpilot-backend/internal/services/health"
	"pathpilot-backend/internal/shared/config"
	"pathpilot-backend/internal/shared/metrics"
	"pathpilot-backend/internal/shared/server/middleware"
	"pathpilot-backend/internal/shared/server/respond"
)

const (
	groupDefault    = "DEFAULT"
	groupGeneration = "GENERATION"
)

// generationRoutes call the model and share the stricter rate limit.
var generationRoutes = map[string]bool{
	"POST /api/v1/resumes/upload":                 true,
	"POST /api/v1/resumes/:id/reanalyze":          true,
	"POST /api/v1/cover-letters/generate":         true,
	"PUT /api/v1/cover-letters/:id":               true,
	"POST /api/v1/interviews/generate-questions":  true,
	"POST /api/v1/interviews/:id/evaluate-answer": true,
	"POST /api/v1/jobs/match":                     true,
	"POST /api/v1/jobs/recommend":                 true,
}

// Registrar attaches a feature's routes to the API group.
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries what NewRouter needs.
type RouterDeps struct {
	Config   config.Config
	Health   *health.Service
	Handlers []Registrar
	Limiter  *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.FixedUser(deps.Config.DefaultUserID, deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: groupDefault,
			GroupFor:     rateLimitGroup,
			Limiter:      deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				groupDefault:    {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
				groupGeneration: {Rate: deps.Config.GenerationRPS, Burst: deps.Config.GenerationBurst},
			},
		}),
	)

	healthz := func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
	r.GET("/healthz", healthz)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthz)
	for _, h := range deps.Handlers {
		h.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "route not found", nil)
	})
	return r
}

func rateLimitGroup(c *gin.Context) string {
	if generationRoutes[c.Request.Method+" "+c.FullPath()] {
		return groupGeneration
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return groupDefault
	}
	// health and metrics probes are not limited
	return "PROBE"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
