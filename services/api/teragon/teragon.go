// Package teragon talks to the 3RWW rainfall provider. It turns a normalised
// request into the provider's form payload, posts it and hands back the raw
// body together with the format it is in.
package teragon

import (
	"errors"
	"fmt"
	"io"

	"github.com/3rww/rainfall-api/services/api/table"
	"github.com/3rww/rainfall-api/services/api/timeutil"
)

var (
	// ErrUpstreamUnavailable covers connection failures, non-2xx replies and
	// an open circuit breaker.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamTimeout is returned when the provider does not answer in time.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// Kind is the type of location being queried.
type Kind string

const (
	Gauges Kind = "gauges"
	Pixels Kind = "pixels"
)

// Interval is the aggregation period. The values are the provider's own
// vocabulary.
type Interval string

const (
	Daily         Interval = "Daily"
	Hourly        Interval = "Hourly"
	FifteenMinute Interval = "15-minute"
)

// ParseInterval returns Hourly for anything that is not an exact match.
func ParseInterval(s string) Interval {
	switch Interval(s) {
	case Daily, Hourly, FifteenMinute:
		return Interval(s)
	default:
		return Hourly
	}
}

// Format is the body format an endpoint answers with.
type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

// Parse reads a response body in format f.
func (f Format) Parse(r io.Reader) (*table.Table, error) {
	switch f {
	case FormatHTML:
		return table.ParseHTML(r)
	case FormatCSV:
		return table.ParseCSV(r)
	default:
		return nil, fmt.Errorf("unknown response format %q", f)
	}
}

// Request is one provider query.
type Request struct {
	Kind     Kind
	IDs      []string
	Window   timeutil.Window
	Interval Interval
	Zerofill bool
}
