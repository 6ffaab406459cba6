package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/3rww/rainfall-api/services/api/rainfall"
)

type queryFunc func(context.Context, rainfall.Params) (*rainfall.Result, error)

// handleGauges serves rain gauge data.
// GET /api/gauge/?ids=10,11&dates=2016-08-28T14:00/2016-08-29T06:00&interval=Hourly
func (s *Server) handleGauges(c *gin.Context) {
	s.serveQuery(c, s.svc.Gauges)
}

// handlePixels serves gauge-adjusted radar rainfall by pixel or basin.
// GET|POST /api/garrd/?ids=147125,148126 or ?basin=Saw%20Mill%20Run
func (s *Server) handlePixels(c *gin.Context) {
	s.serveQuery(c, s.svc.Pixels)
}

func (s *Server) serveQuery(c *gin.Context, query queryFunc) {
	var params rainfall.Params
	if err := c.ShouldBind(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": kindBadRequest})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout())
	defer cancel()

	res, err := query(ctx, params)
	if err != nil {
		s.writeError(c, err)
		return
	}

	body, err := json.Marshal(res.Body())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// handleGrid serves the GARR grid as polygons or centroids.
// GET /api/garrd/grid?geom=point
func (s *Server) handleGrid(c *gin.Context) {
	raw, err := s.svc.Grid(c.Query("geom"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
