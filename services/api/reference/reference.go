// Package reference holds the static data the API serves or resolves
// against: the GARR pixel master list, the basin lookup and the grid
// GeoJSON documents. A Lookup is built once at start and never mutated.
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/3rww/rainfall-api/services/api/ids"
)

// ErrUnknownBasin is returned for basin names missing from the lookup.
var ErrUnknownBasin = errors.New("unknown basin")

// AllBasins is the basin name meaning every pixel.
const AllBasins = "all basins"

// File names inside the data directory.
const (
	BasinsFile        = "lookup_basins.json"
	PixelsFile        = "grid_centroids.csv"
	PolygonGridFile   = "grid.geojson"
	CentroidsGridFile = "grid_centroids.geojson"
)

// Geom selects which grid document to serve.
type Geom string

const (
	Polygon Geom = "polygon"
	Point   Geom = "point"
)

// ParseGeom maps the geom parameter to a Geom, defaulting to Polygon.
func ParseGeom(s string) Geom {
	if Geom(s) == Point {
		return Point
	}
	return Polygon
}

// Lookup is safe for concurrent use because nothing writes to it after
// construction.
type Lookup struct {
	basins map[string][]string
	pixels []string
	grids  map[Geom][]byte
}

// New builds a Lookup. The inputs are copied.
func New(basins map[string][]string, pixels []string, grids map[Geom][]byte) *Lookup {
	l := &Lookup{
		basins: make(map[string][]string, len(basins)),
		pixels: append([]string(nil), pixels...),
		grids:  make(map[Geom][]byte, len(grids)),
	}
	for name, px := range basins {
		l.basins[name] = append([]string(nil), px...)
	}
	for g, raw := range grids {
		l.grids[g] = raw
	}
	return l
}

// LoadDir reads every reference file from dir.
func LoadDir(dir string) (*Lookup, error) {
	pixels, err := LoadPixels(filepath.Join(dir, PixelsFile))
	if err != nil {
		return nil, err
	}
	basins, err := LoadBasins(filepath.Join(dir, BasinsFile))
	if err != nil {
		return nil, err
	}
	grids, err := LoadGrids(dir)
	if err != nil {
		return nil, err
	}
	return New(basins, pixels, grids), nil
}

// LoadBasins reads the basin name → pixel ids mapping.
func LoadBasins(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read basins: %w", err)
	}
	var basins map[string][]string
	if err := json.Unmarshal(raw, &basins); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return basins, nil
}

// LoadPixels reads the id column of the grid centroid CSV, in file order.
func LoadPixels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	defer f.Close()
	return readPixels(f)
}

func readPixels(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read pixel header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(h) == "id" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.New("pixel csv has no id column")
	}

	var pixels []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read pixel row: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		pixels = append(pixels, strings.TrimSpace(rec[col]))
	}
	return pixels, nil
}

// LoadGrids reads both grid GeoJSON documents from dir. The bytes are kept
// as-is and only checked to be valid JSON.
func LoadGrids(dir string) (map[Geom][]byte, error) {
	files := map[Geom]string{Polygon: PolygonGridFile, Point: CentroidsGridFile}
	grids := make(map[Geom][]byte, len(files))
	for g, name := range files {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read grid: %w", err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%s is not valid json", name)
		}
		grids[g] = raw
	}
	return grids, nil
}

// Validate checks that every basin lists at least one pixel, every pixel id
// is well formed and every basin pixel is in the master list.
func (l *Lookup) Validate() error {
	known := make(map[string]struct{}, len(l.pixels))
	for _, id := range l.pixels {
		if err := ids.ValidatePixel(id); err != nil {
			return fmt.Errorf("pixel master list: %w", err)
		}
		known[id] = struct{}{}
	}
	for _, name := range l.BasinNames() {
		px := l.basins[name]
		if len(px) == 0 {
			return fmt.Errorf("basin %q has no pixels", name)
		}
		for _, id := range px {
			if _, ok := known[id]; !ok {
				return fmt.Errorf("basin %q: pixel %s not in master list", name, id)
			}
		}
	}
	return nil
}

// Pixels returns a copy of the master pixel list.
func (l *Lookup) Pixels() []string {
	return append([]string(nil), l.pixels...)
}

// BasinNames returns the basin names in sorted order.
func (l *Lookup) BasinNames() []string {
	names := make([]string, 0, len(l.basins))
	for name := range l.basins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveBasin returns the pixel ids of the named basin.
func (l *Lookup) ResolveBasin(name string) ([]string, error) {
	if px, ok := l.basins[name]; ok {
		return append([]string(nil), px...), nil
	}
	if name == AllBasins {
		return l.Pixels(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBasin, name)
}

// Grid returns the raw GeoJSON document for g.
func (l *Lookup) Grid(g Geom) ([]byte, bool) {
	raw, ok := l.grids[g]
	return raw, ok
}
