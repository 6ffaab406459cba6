package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/gauge/", s.handleGauges)

		garrd := api.Group("/garrd")
		garrd.GET("/", s.handlePixels)
		garrd.POST("/", s.handlePixels)
		garrd.GET("/grid", s.handleGrid)
	}
}
