package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
	"github.com/wesplit/wesplit_app/internal/middleware"
	"github.com/wesplit/wesplit_app/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	rate := limiter.Rate{Period: cfg.RateLimitPeriod, Limit: cfg.RateLimit}
	limiterInstance := limiter.New(memory.NewStore(), rate)

	// Apply rate limiting and AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.RateLimit(limiterInstance), middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))

	RegisterExpenseRoutes(v1, services.Settlement, cfg.CountdownInterval)
	RegisterEventRoutes(v1, services.Settlement, services.Events, cfg.HeartbeatInterval)
	RegisterBalanceRoutes(v1, services.Balance)
}
