package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"training-app/internal/services/health"
	"training-app/internal/shared/metrics"
	"training-app/internal/shared/server/middleware"
	"training-app/internal/shared/server/respond"
)

// RouterOptions configures the shared middleware stack.
type RouterOptions struct {
	// Service names the binary in /health and metric labels.
	Service     string
	CORSOrigins []string
	Metrics     *metrics.Collector
	// Health holds dependency checks; nil reports the service as up.
	Health *health.Service
}

// NewRouter constructs the Gin engine with the shared middleware, /health and
// /metrics registered. Callers add their own routes.
func NewRouter(opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(opts.CORSOrigins),
		metrics.Middleware(opts.Metrics),
	)

	checks := opts.Health
	if checks == nil {
		checks = health.NewService(opts.Service)
	}
	r.GET("/health", func(c *gin.Context) {
		report, ok := checks.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if opts.Metrics != nil {
		r.GET("/metrics", metrics.Handler(opts.Metrics))
	}
	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", gin.H{"path": c.Request.URL.Path})
	})

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
