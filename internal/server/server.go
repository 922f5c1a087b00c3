package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ginzap "github.com/gin-contrib/zap"
	"github.com/nulzo/care-assist/internal/analytics"
	"github.com/nulzo/care-assist/internal/config"
	"github.com/nulzo/care-assist/internal/server/middleware"
	v1 "github.com/nulzo/care-assist/internal/server/v1"
	"github.com/nulzo/care-assist/internal/settings"
	"go.uber.org/zap"
)

const serviceName = "careassist"

// Deps are the services the HTTP surface exposes.
type Deps struct {
	AltText   v1.AltTextGenerator
	Chat      v1.ChatAssistant
	Settings  settings.Service
	Analytics analytics.Service
	// Metrics serves /metrics; nil disables the route.
	Metrics http.Handler
	Version string
}

type Server struct {
	router *gin.Engine
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router: engine,
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// generations can walk three providers
		WriteTimeout: 3*s.config.AI.Timeout + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
