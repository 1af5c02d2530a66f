package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/middleware"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

// NewRouter assembles the middleware chain and the API routes
func NewRouter(
	cfg config.ServerConfig,
	flyover *FlyoverHandler,
	health *HealthHandler,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger, m))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Security())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow, logger, m)

	api := router.Group("/api/v1")
	{
		api.GET("/health", health.Health)
		api.GET("/ready", health.Ready)
		api.GET("/scheduler", health.SchedulerStatus)
		api.GET("/passes/latest", flyover.GetLatestPasses)
		api.GET("/passes",
			limiter.Middleware(),
			middleware.Timeout(cfg.RequestTimeout, logger),
			flyover.GetPasses,
		)
	}

	return router
}
