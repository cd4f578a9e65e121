// Package api serves the cohort and model summaries as JSON.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"phenosum/internal"
	"phenosum/internal/config"
)

// Cache keys
const (
	DiagnosisKey    = "diagnosis"
	ModelResultsKey = "model_results"
)

// Loaders produce the datasets the API reads from. Diagnosis must return the
// normalized diagnosis table.
type Loaders struct {
	Diagnosis    LoadFunc
	ModelResults LoadFunc
}

// Server is the HTTP read API
type Server struct {
	router   *gin.Engine
	cache    *Cache
	loaders  Loaders
	analysis config.AnalysisConfig
	logger   *internal.Logger
}

// NewServer creates the server and registers its routes
func NewServer(loaders Loaders, analysis config.AnalysisConfig, logger *internal.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		cache:    NewCache(),
		loaders:  loaders,
		analysis: analysis,
		logger:   logger.With("API"),
	}
	s.router.Use(s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/comorbidities", s.handleComorbidities)
		api.GET("/diagnoses/count", s.handleDiagnosisCount)
		api.GET("/models", s.handleModels)
		api.GET("/models/summary", s.handleModelSummary)
		api.POST("/cache/reset", s.handleCacheReset)
	}
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		return srv.Shutdown(context.Background())
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("%s %s -> %d", c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status())
	}
}
