package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/logger"
)

type createDocumentRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content" binding:"required"`
	Notes    string `json:"notes"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

func (s *Server) registerDocumentRoutes(g *gin.RouterGroup, kind domain.Kind) {
	g.GET("", func(c *gin.Context) { s.listDocuments(c, kind) })
	g.POST("", func(c *gin.Context) { s.createDocument(c, kind) })
	g.GET("/:id", func(c *gin.Context) { s.getDocument(c, kind) })
	g.PATCH("/:id", func(c *gin.Context) { s.updateDocument(c, kind) })
	g.DELETE("/:id", func(c *gin.Context) { s.deleteDocument(c, kind) })
	g.POST("/:id/enrich", func(c *gin.Context) { s.enrichDocument(c, kind) })
}

func (s *Server) listDocuments(c *gin.Context, kind domain.Kind) {
	docs, err := s.state.Documents(kind)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs})
}

func (s *Server) createDocument(c *gin.Context, kind domain.Kind) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	doc, err := domain.NewDocument(kind, req.Name, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	doc.Notes = req.Notes
	doc.FileName = req.FileName
	doc.MimeType = req.MimeType

	stored, err := s.state.AddDocument(c.Request.Context(), doc)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if enrich, _ := strconv.ParseBool(c.Query("enrich")); enrich && s.enricher != nil {
		s.enrichInBackground(c.Request.Context(), kind, stored.ID)
	}
	c.JSON(http.StatusCreated, stored)
}

// enrichInBackground runs enrichment detached from the request.
// The document stays usable whether it succeeds or not.
func (s *Server) enrichInBackground(reqCtx context.Context, kind domain.Kind, id string) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), enrichTimeout)
		defer cancel()

		if _, err := s.state.Enrich(ctx, kind, id, s.enricher); err != nil {
			s.logger.Warn("background enrichment failed", append(logger.DocumentFields(kind.String(), id), zap.Error(err))...)
		}
	}()
}

func (s *Server) getDocument(c *gin.Context, kind domain.Kind) {
	doc, err := s.state.GetDocument(kind, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) updateDocument(c *gin.Context, kind domain.Kind) {
	var patch domain.DocumentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	doc, err := s.state.UpdateDocument(c.Request.Context(), kind, c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) deleteDocument(c *gin.Context, kind domain.Kind) {
	removed, err := s.state.DeleteDocument(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resultsRemoved": removed})
}

func (s *Server) enrichDocument(c *gin.Context, kind domain.Kind) {
	if s.enricher == nil {
		s.respondError(c, errors.New("no enricher configured"))
		return
	}

	doc, err := s.state.Enrich(c.Request.Context(), kind, c.Param("id"), s.enricher)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
