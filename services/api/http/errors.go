package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/3rww/rainfall-api/services/api/ids"
	"github.com/3rww/rainfall-api/services/api/rainfall"
	"github.com/3rww/rainfall-api/services/api/reference"
	"github.com/3rww/rainfall-api/services/api/table"
	"github.com/3rww/rainfall-api/services/api/teragon"
)

// Error kinds reported in the "kind" field of error bodies.
const (
	kindBadRequest        = "BadRequest"
	kindMalformedID       = "MalformedId"
	kindUnknownBasin      = "UnknownBasin"
	kindUpstreamTimeout   = "UpstreamTimeout"
	kindUpstreamDown      = "UpstreamUnavailable"
	kindMalformedUpstream = "MalformedUpstreamResponse"
	kindNotFound          = "NotFound"
	kindInternal          = "Internal"
)

var errorKinds = []struct {
	target error
	kind   string
	status int
}{
	{ids.ErrMalformedID, kindMalformedID, http.StatusBadRequest},
	{reference.ErrUnknownBasin, kindUnknownBasin, http.StatusBadRequest},
	{teragon.ErrUpstreamTimeout, kindUpstreamTimeout, http.StatusGatewayTimeout},
	{teragon.ErrUpstreamUnavailable, kindUpstreamDown, http.StatusBadGateway},
	{table.ErrMalformedResponse, kindMalformedUpstream, http.StatusBadGateway},
	{rainfall.ErrNoGrid, kindNotFound, http.StatusNotFound},
}

func classify(err error) (string, int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind, k.status
		}
	}
	return kindInternal, http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind, status := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "kind", kind, "err", err, "request_id", c.GetString(requestIDKey))
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}
