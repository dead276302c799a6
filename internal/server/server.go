package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"branchdesk/internal/config"
	"branchdesk/internal/handler"
	"branchdesk/internal/metrics"
	"branchdesk/internal/middleware"
	"branchdesk/internal/models"
	"branchdesk/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services are the domain components the HTTP surface exposes.
type Services struct {
	Auth     service.AuthService
	Members  service.MemberService
	Branches service.BranchService
	Alumni   service.AlumniService
}

type Server struct {
	router  *gin.Engine
	cfg     config.ServerConfig
	tokens  middleware.TokenVerifier
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewServer(cfg config.ServerConfig, services Services, tokens middleware.TokenVerifier, m *metrics.Metrics, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(m),
		middleware.CORS(cfg.CORSOrigins),
	)

	s := &Server{
		router:  router,
		cfg:     cfg,
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}
	s.setupRoutes(services)
	return s
}

func (s *Server) setupRoutes(services Services) {
	authHandler := handler.NewAuthHandler(services.Auth, s.logger)
	userHandler := handler.NewUserHandler(services.Members, s.logger)
	branchHandler := handler.NewBranchHandler(services.Branches, s.logger)
	alumniHandler := handler.NewAlumniHandler(services.Alumni, s.logger)

	authenticated := middleware.Authenticate(s.tokens, s.logger)
	necOnly := middleware.Authorize(s.tokens, s.logger, models.RoleNEC)
	officers := middleware.Authorize(s.tokens, s.logger, models.RoleNEC, models.RoleBEC)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authenticated, authHandler.Me)

	users := api.Group("/users")
	{
		users.GET("", authenticated, userHandler.List)
		users.GET("/:id", authenticated, userHandler.Get)
		users.PUT("/:id", authenticated, userHandler.Update)
		users.DELETE("/:id", officers, userHandler.Delete)
	}

	branches := api.Group("/branches")
	{
		branches.GET("", authenticated, branchHandler.List)
		branches.GET("/:id", authenticated, branchHandler.Get)
		branches.GET("/:id/users", authenticated, branchHandler.Members)
		branches.GET("/:id/alumni", authenticated, branchHandler.Alumni)
		branches.POST("", necOnly, branchHandler.Create)
		branches.PUT("/:id", necOnly, branchHandler.Update)
		branches.DELETE("/:id", necOnly, branchHandler.Delete)
	}

	alumni := api.Group("/alumni")
	{
		alumni.GET("", authenticated, alumniHandler.List)
		alumni.GET("/:id", authenticated, alumniHandler.Get)
		alumni.POST("", officers, alumniHandler.Create)
		alumni.PUT("/:id", officers, alumniHandler.Update)
		alumni.DELETE("/:id", officers, alumniHandler.Delete)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled and then drains in-flight requests for up
// to the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
