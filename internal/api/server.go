// Package api exposes the document, matching, result and settings operations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/state"
)

const (
	shutdownTimeout = 10 * time.Second
	enrichTimeout   = 2 * time.Minute
)

type Server struct {
	state    *state.Manager
	matcher  *matching.Service
	enricher ai.Enricher
	logger   *zap.Logger

	background sync.WaitGroup
}

func NewServer(st *state.Manager, matcher *matching.Service, enricher ai.Enricher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{state: st, matcher: matcher, enricher: enricher, logger: logger}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	s.registerDocumentRoutes(v1.Group("/candidates"), domain.KindCandidate)
	s.registerDocumentRoutes(v1.Group("/jobs"), domain.KindJob)
	s.registerResultRoutes(v1.Group("/results"))
	s.registerSettingsRoutes(v1.Group("/settings"))
	v1.POST("/match", s.match)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	return err
}

// Wait blocks until background enrichments started by the handlers finish.
func (s *Server) Wait() {
	s.background.Wait()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(started)),
		)
	}
}

// respondError maps domain errors to HTTP statuses.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, state.ErrEnrichmentInProgress),
		errors.Is(err, state.ErrContentChanged):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, domain.ErrLastActiveDimension),
		errors.Is(err, domain.ErrNoDimensions),
		errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, domain.ErrInvalidDimension),
		errors.Is(err, domain.ErrDefaultDimension),
		errors.Is(err, matching.ErrNoCandidates),
		errors.Is(err, matching.ErrNoJobs):
		status = http.StatusBadRequest
	case errors.Is(err, ai.ErrInvalidAssessment):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
