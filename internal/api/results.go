package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spigell/cv-matcher/internal/filtering"
	"github.com/spigell/cv-matcher/internal/utils"
)

type matchRequest struct {
	CandidateIDs []string `json:"candidateIds"`
	JobIDs       []string `json:"jobIds"`
}

type failureResponse struct {
	CandidateID string `json:"candidateId"`
	JobID       string `json:"jobId"`
	Message     string `json:"message"`
}

func (s *Server) registerResultRoutes(g *gin.RouterGroup) {
	g.GET("", s.listResults)
	g.DELETE("", s.clearResults)
	g.GET("/report", s.reportResults)
	g.GET("/:id", s.getResult)
	g.DELETE("/:id", s.deleteResult)
}

// filterConfig reads min_score, candidate, job and top query parameters.
// An absent min_score falls back to the settings threshold when ranked=true.
func (s *Server) filterConfig(c *gin.Context) (*filtering.Config, error) {
	cfg := &filtering.Config{
		Candidates: utils.SplitList(c.Query("candidate")),
		Jobs:       utils.SplitList(c.Query("job")),
	}

	if raw := c.Query("min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("min_score: %w", err)
		}
		cfg.MinScore = &score
	} else if c.Query("ranked") == "true" {
		threshold := s.state.Settings().Threshold
		cfg.MinScore = &threshold
	}

	if raw := c.Query("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("top: %w", err)
		}
		cfg.Top = top
	}
	return cfg, nil
}

func (s *Server) listResults(c *gin.Context) {
	cfg, err := s.filterConfig(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	results, err := filtering.Run(c.Request.Context(), cfg, filtering.Deps{Logger: s.logger}, filtering.Default(), s.state.Results())
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": results.Items})
}

func (s *Server) reportResults(c *gin.Context) {
	cfg, err := s.filterConfig(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	results, err := filtering.Run(c.Request.Context(), cfg, filtering.Deps{Logger: s.logger}, filtering.Default(), s.state.Results())
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, results.ReportByJob())
}

func (s *Server) getResult(c *gin.Context) {
	result, err := s.state.GetResult(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) deleteResult(c *gin.Context) {
	if err := s.state.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearResults(c *gin.Context) {
	removed := s.state.ClearResults(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) match(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	report, err := s.matcher.Match(c.Request.Context(), req.CandidateIDs, req.JobIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}

	failures := make([]failureResponse, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, failureResponse{CandidateID: f.CandidateID, JobID: f.JobID, Message: f.Message})
	}

	c.JSON(http.StatusOK, gin.H{
		"successes": report.Successes,
		"failures":  failures,
		"added":     report.Added,
	})
}
