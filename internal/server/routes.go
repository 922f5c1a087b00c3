package server

import (
	"github.com/gin-gonic/gin"
	"github.com/nulzo/care-assist/internal/server/middleware"
	v1 "github.com/nulzo/care-assist/internal/server/v1"
	"github.com/nulzo/care-assist/internal/server/validator"
)

func (s *Server) SetupRoutes() {
	if s.config.Tracing.Enabled {
		s.router.Use(middleware.Tracing(serviceName))
	}
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler(s.deps.Version)
	s.router.GET("/health", healthHandler.Health)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}

	val := validator.New()
	limiter := middleware.NewGenerationLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	{
		gen := v1.NewGenerationHandler(s.deps.AltText, s.deps.Chat, val)
		limited := api.Group("", limiter.Middleware())
		limited.POST("/alt-text", gen.AltText)
		limited.POST("/chat", gen.Chat)

		settingsHandler := v1.NewSettingsHandler(s.deps.Settings, val)
		api.GET("/settings/providers", settingsHandler.ListProviders)
		api.PUT("/settings/providers/:provider/key", settingsHandler.SetKey)
		api.DELETE("/settings/providers/:provider/key", settingsHandler.ClearKey)
		api.PUT("/settings/preferred", settingsHandler.SetPreferred)

		analyticsHandler := v1.NewAnalyticsHandler(s.deps.Analytics)
		api.GET("/stats", analyticsHandler.GetUsage)
		api.GET("/generations/:id", analyticsHandler.GetGeneration)
	}
}
