// Package httpserver wires the gin engine: middleware chain, route groups,
// and graceful shutdown.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tangent-server/internal/config"
	"tangent-server/internal/domain/auth"
	"tangent-server/internal/infrastructure/metrics"
	"tangent-server/internal/interfaces/httpserver/handlers/authhandler"
	"tangent-server/internal/interfaces/httpserver/handlers/chathandler"
	"tangent-server/internal/interfaces/httpserver/handlers/conversationhandler"
	middleware "tangent-server/internal/interfaces/httpserver/middlewares"
)

type HTTPServer struct {
	engine *gin.Engine
	cfg    *config.Config
	log    zerolog.Logger
}

func NewHTTPServer(
	cfg *config.Config,
	log zerolog.Logger,
	authService *auth.Service,
	authHandler *authhandler.AuthHandler,
	conversationHandler *conversationhandler.ConversationHandler,
	chatHandler *chathandler.ChatHandler,
) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	engine.Use(middleware.LoggingMiddleware(log))
	engine.Use(middleware.CORSMiddleware())
	engine.Use(metrics.Middleware())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Public auth routes
	authRoutes := engine.Group("/auth")
	authRoutes.POST("/signup", authHandler.SignUp)
	authRoutes.POST("/signin", authHandler.SignIn)

	// Protected routes
	protected := engine.Group("/")
	protected.Use(middleware.AuthMiddleware(authService, log))
	protected.POST("/auth/signout", authHandler.SignOut)
	protected.GET("/auth/me", authHandler.Me)

	v1 := protected.Group("/v1")
	v1.POST("/chat", chatHandler.Chat)

	conversations := v1.Group("/conversations")
	conversations.POST("", conversationHandler.CreateConversation)
	conversations.GET("", conversationHandler.ListConversations)
	conversations.POST("/:id/activate", conversationHandler.ActivateConversation)
	conversations.GET("/:id/branches", conversationHandler.ListBranches)
	conversations.POST("/:id/branches/:bid/activate", conversationHandler.ActivateBranch)
	conversations.PATCH("/:id/branches/:bid", conversationHandler.RenameBranch)
	conversations.DELETE("/:id/branches/:bid", conversationHandler.DeleteBranch)
	conversations.GET("/:id/branches/:bid/messages", conversationHandler.ListMessages)
	conversations.POST("/:id/branches/:bid/messages", conversationHandler.SendMessage)
	conversations.POST("/:id/messages/:mid/edit", conversationHandler.EditMessage)

	return &HTTPServer{engine: engine, cfg: cfg, log: log}
}

// Run starts the HTTP listener and shuts down gracefully on context cancellation.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.HTTPPort),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.cfg.HTTPPort).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
