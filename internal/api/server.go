package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/middleware"
	"github.com/pharmaguard-server/internal/service"
	"github.com/pharmaguard-server/internal/session"
	"github.com/pharmaguard-server/internal/vcf"
	"github.com/pharmaguard-server/pkg/explain"
)

// Server represents the HTTP server
type Server struct {
	config   *domain.Config
	catalog  *catalog.Catalog
	reader   *vcf.Reader
	assessor *service.Assessor
	sessions *session.Store
	explain  *explain.Client
	logger   *logrus.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *domain.Config,
	cat *catalog.Catalog,
	sessions *session.Store,
	explainClient *explain.Client,
	logger *logrus.Logger,
) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLogMiddleware(logger))
	router.Use(corsMiddleware())
	router.Use(middleware.SecurityHeaders())
	if cfg.RateLimit.Enabled {
		router.Use(rateLimitMiddleware(cfg.RateLimit))
	}

	server := &Server{
		config:   cfg,
		catalog:  cat,
		reader:   vcf.NewReader(cat, logger),
		assessor: service.NewAssessor(cat, logger),
		sessions: sessions,
		explain:  explainClient,
		logger:   logger,
		router:   router,
	}

	server.setupRoutes()

	return server
}

// Router exposes the configured gin engine, used by tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/drugs", s.handleListDrugs)
		v1.POST("/assessments", s.handleAssess)
		v1.POST("/assessments/batch", s.handleAssessBatch)

		v1.POST("/sessions", s.handleCreateSession)
		v1.POST("/sessions/:id/assessments", s.handleSessionAssess)
		v1.POST("/sessions/:id/counterfactual", s.handleSessionCounterfactual)
		v1.DELETE("/sessions", s.handleResetSessions)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"catalog_version": s.catalog.Version,
		"drugs":           len(s.catalog.Drugs),
		"sessions":        s.sessions.Len(),
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// requestLogMiddleware emits one structured log line per request
func requestLogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": c.GetString("request_id"),
		}).Info("Handled request")
	}
}

// rateLimitMiddleware applies a token-bucket rate limit per client IP.
// Limiter state is kept in a bounded LRU so idle clients age out.
func rateLimitMiddleware(cfg domain.RateLimitConfig) gin.HandlerFunc {
	limiters, _ := lru.New[string, *rate.Limiter](4096)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter, ok := limiters.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
			limiters.Add(ip, limiter)
		}
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "too many requests",
				},
			})
			return
		}
		c.Next()
	}
}
