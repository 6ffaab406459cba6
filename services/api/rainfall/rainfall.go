// Package rainfall runs a query end to end: it normalises the raw
// parameters, resolves locations, fetches from the provider, parses the body
// and pivots it into the output document.
package rainfall

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/3rww/rainfall-api/services/api/ids"
	"github.com/3rww/rainfall-api/services/api/metrics"
	"github.com/3rww/rainfall-api/services/api/pivot"
	"github.com/3rww/rainfall-api/services/api/reference"
	"github.com/3rww/rainfall-api/services/api/teragon"
	"github.com/3rww/rainfall-api/services/api/timeutil"
)

// ErrNoGrid is returned when a grid document was not loaded.
var ErrNoGrid = errors.New("grid not available")

// FormatRecords selects the deprecated [{id, d:[{id, v}]}] output.
const FormatRecords = "records"

// Params are the query parameters as received.
type Params struct {
	IDs      string `form:"ids" json:"ids"`
	Basin    string `form:"basin" json:"basin"`
	Dates    string `form:"dates" json:"dates"`
	Interval string `form:"interval" json:"interval"`
	Zerofill string `form:"zerofill" json:"zerofill"`
	KeyedBy  string `form:"keyed_by" json:"keyed_by"`
	Format   string `form:"format" json:"format"`
}

// Query is Params after defaulting.
type Query struct {
	IDs      []string
	Basin    string
	Window   timeutil.Window
	Interval teragon.Interval
	Zerofill bool
	KeyedBy  pivot.KeyedBy
	Records  bool
}

// Result is a pivoted response and the query that produced it.
type Result struct {
	Query    Query
	Document *pivot.Document
}

// Body returns the value to serialise: the document itself or its
// deprecated record list.
func (r *Result) Body() any {
	if r.Query.Records {
		return r.Document.Records()
	}
	return r.Document
}

// Fetcher posts a request to the provider.
type Fetcher interface {
	Fetch(ctx context.Context, req teragon.Request) ([]byte, error)
	Adapter() teragon.Adapter
}

// Service is safe for concurrent use.
type Service struct {
	fetcher Fetcher
	lookup  *reference.Lookup
	zone    *time.Location
	now     func() time.Time
	logger  *slog.Logger
}

// NewService builds a Service. zone is the zone naive dates are read in.
func NewService(f Fetcher, lookup *reference.Lookup, zone *time.Location, logger *slog.Logger) *Service {
	if zone == nil {
		zone = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: f, lookup: lookup, zone: zone, now: time.Now, logger: logger}
}

// Normalize applies the lenient defaults: unknown interval means Hourly,
// unknown keyed_by means time, and a missing or unparseable dates value
// means the last 24 hours.
func (s *Service) Normalize(p Params) Query {
	q := Query{
		IDs:      ids.SplitList(p.IDs),
		Basin:    strings.TrimSpace(p.Basin),
		Interval: teragon.ParseInterval(p.Interval),
		Zerofill: truthy(p.Zerofill),
		KeyedBy:  pivot.ParseKeyedBy(p.KeyedBy),
		Records:  p.Format == FormatRecords,
	}

	q.Window = timeutil.LastDay(s.now())
	if d := strings.TrimSpace(p.Dates); d != "" {
		w, err := timeutil.ParseDates(d, s.zone)
		if err != nil {
			metrics.DateFallbacksTotal.Inc()
			s.logger.Warn("dates fallback to last 24 hours", "dates", d, "err", err)
		} else {
			q.Window = w
		}
	}
	return q
}

// Gauges queries rain gauges. Without ids every gauge is requested.
func (s *Service) Gauges(ctx context.Context, p Params) (*Result, error) {
	q := s.Normalize(p)
	locs := q.IDs
	if len(locs) == 0 {
		locs = ids.DefaultGauges()
	}
	if err := ids.ValidateGauges(locs); err != nil {
		return nil, err
	}
	return s.run(ctx, q, teragon.Gauges, locs)
}

// Pixels queries GARR pixels. ids wins over basin; with neither every pixel
// is requested.
func (s *Service) Pixels(ctx context.Context, p Params) (*Result, error) {
	q := s.Normalize(p)
	locs := q.IDs
	for _, id := range locs {
		if err := ids.ValidatePixel(id); err != nil {
			return nil, err
		}
	}
	if len(locs) == 0 {
		if q.Basin != "" {
			px, err := s.lookup.ResolveBasin(q.Basin)
			if err != nil {
				return nil, err
			}
			locs = px
		} else {
			locs = s.lookup.Pixels()
		}
	}
	return s.run(ctx, q, teragon.Pixels, locs)
}

func (s *Service) run(ctx context.Context, q Query, kind teragon.Kind, locs []string) (*Result, error) {
	req := teragon.Request{
		Kind:     kind,
		IDs:      locs,
		Window:   q.Window,
		Interval: q.Interval,
		Zerofill: q.Zerofill,
	}
	body, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	format := s.fetcher.Adapter().Format()
	tbl, err := format.Parse(bytes.NewReader(body))
	if err != nil {
		metrics.RecordParseError(string(format))
		return nil, err
	}
	doc, err := pivot.Build(tbl, q.KeyedBy)
	if err != nil {
		metrics.RecordParseError(string(format))
		return nil, err
	}

	s.logger.Debug("query complete", "kind", kind, "locations", len(locs), "rows", len(doc.Rows), "keyed_by", q.KeyedBy)
	return &Result{Query: q, Document: doc}, nil
}

// Grid returns the grid GeoJSON for geom, polygon unless geom is "point".
func (s *Service) Grid(geom string) ([]byte, error) {
	raw, ok := s.lookup.Grid(reference.ParseGeom(geom))
	if !ok {
		return nil, ErrNoGrid
	}
	return raw, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}
