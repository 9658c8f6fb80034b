package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/applications"
	googleauth "jobassist-backend/internal/auth"
	"jobassist-backend/internal/billing"
	"jobassist-backend/internal/generation"
	"jobassist-backend/internal/resumes"
	"jobassist-backend/internal/services/health"
	"jobassist-backend/internal/shared/config"
	"jobassist-backend/internal/shared/metrics"
	"jobassist-backend/internal/shared/server/middleware"
	"jobassist-backend/internal/shared/server/respond"
	"jobassist-backend/internal/users"
)

// Routes that call the language model share the stricter LLM bucket.
var llmRoutes = []string{
	"POST /api/v1/resume/parse",
	"POST /api/v1/documents/generate",
	"POST /api/v1/documents/apply",
}

// DefaultRateLimits returns the per-principal token buckets.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"DEFAULT":            {Rate: 10, Burst: 40},
		middleware.LLMGroup: {Rate: 0.2, Burst: 5},
	}
}

// RouterDeps carries the handlers built by bootstrap. Nil handlers are skipped.
type RouterDeps struct {
	Config             config.Config
	Verifier           middleware.TokenVerifier
	Health             *health.Service
	RateLimits         map[string]middleware.RateLimitRule
	ResumeHandler      *resumes.Handler
	GenerationHandler  *generation.Handler
	ApplicationHandler *applications.Handler
	BillingHandler     *billing.Handler
	UserHandler        *users.Handler
	GoogleAuth         *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	limits := deps.RateLimits
	if limits == nil {
		limits = DefaultRateLimits()
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    limits,
			GroupFor: middleware.GroupByRoute(llmRoutes...),
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api)
	}
	if deps.GenerationHandler != nil {
		deps.GenerationHandler.RegisterRoutes(api)
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(api)
	}
	if deps.BillingHandler != nil {
		deps.BillingHandler.RegisterRoutes(api)
	}

	return r
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
