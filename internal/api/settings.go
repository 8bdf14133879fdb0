package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spigell/cv-matcher/internal/domain"
)

type toggleRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type thresholdRequest struct {
	Threshold *float64 `json:"threshold" binding:"required"`
}

func (s *Server) registerSettingsRoutes(g *gin.RouterGroup) {
	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.state.Settings())
	})
	g.PUT("", s.saveSettings)
	g.POST("/reset", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.state.ResetSettings(c.Request.Context()))
	})
	g.PUT("/threshold", s.setThreshold)
	g.POST("/dimensions", s.addDimension)
	g.PATCH("/dimensions/:id", s.toggleDimension)
	g.DELETE("/dimensions/:id", s.removeDimension)
}

func (s *Server) saveSettings(c *gin.Context) {
	var settings domain.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	s.respondSettings(c)(s.state.SaveSettings(c.Request.Context(), settings))
}

func (s *Server) setThreshold(c *gin.Context) {
	var req thresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.respondSettings(c)(s.state.SetThreshold(c.Request.Context(), *req.Threshold))
}

func (s *Server) addDimension(c *gin.Context) {
	var d domain.Dimension
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, err)
		return
	}
	s.respondSettings(c)(s.state.AddDimension(c.Request.Context(), d))
}

func (s *Server) toggleDimension(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.respondSettings(c)(s.state.SetDimensionActive(c.Request.Context(), c.Param("id"), *req.Active))
}

func (s *Server) removeDimension(c *gin.Context) {
	s.respondSettings(c)(s.state.RemoveDimension(c.Request.Context(), c.Param("id")))
}

func (s *Server) respondSettings(c *gin.Context) func(domain.Settings, error) {
	return func(settings domain.Settings, err error) {
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
