package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookline-inbox/internal/config"
	"bookline-inbox/internal/handler"
	"bookline-inbox/internal/middleware"
	"bookline-inbox/internal/transport/httpdto"
	"bookline-inbox/internal/websocket"
	"bookline-inbox/pkg/database"
	"bookline-inbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	pool       *pgxpool.Pool
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Inbox   *handler.InboxHandler
	Stream  *handler.StreamHandler
	Message *handler.MessageHandler
	WS      *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger, pool *pgxpool.Pool) *Server {
	if cfg.Server.Environment == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Environment == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		pool:   pool,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), s.pool); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), httpdto.CodeUnhealthy))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	v1 := s.engine.Group("/v1", middleware.AuthMiddleware(s.config.Auth.JWTSecret))
	{
		inbox := v1.Group("/inbox")
		{
			// alias kept for clients that treat preview as an inbox read
			inbox.GET("/preview", handlers.Inbox.Preview)
			inbox.GET("/unread", handlers.Inbox.Unread)
			inbox.GET("/stream", handlers.Stream.Stream)
			inbox.GET("/ws", handlers.WS.Stream)
		}

		threads := v1.Group("/threads")
		{
			threads.GET("", handlers.Inbox.Threads)
			threads.GET("/preview", handlers.Inbox.Preview)
			threads.POST("/:id/messages", handlers.Message.Append)
			threads.DELETE("/:id/messages/:mid", handlers.Message.Delete)
			threads.POST("/:id/read", handlers.Message.MarkRead)
			threads.POST("/:id/reactions", handlers.Message.AddReaction)
			threads.DELETE("/:id/reactions", handlers.Message.RemoveReaction)
		}
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.Server.Port)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
