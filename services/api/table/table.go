// Package table holds the typed table the upstream responses are parsed into
// and the parsers for both upstream response formats.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TimestampColumn names the key column every parsed table starts with.
const TimestampColumn = "Timestamp"

// NullSentinel is the upstream's marker for a missing value.
const NullSentinel = "N/D"

// ErrMalformedResponse is returned when an upstream body does not have the
// structure the parsers expect.
var ErrMalformedResponse = errors.New("malformed upstream response")

// Cell is a single table value. The zero Cell is null.
type Cell struct {
	Text  string
	Valid bool
}

// Str returns a non-null cell.
func Str(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// Null returns a null cell.
func Null() Cell {
	return Cell{}
}

// IsNull reports whether the cell is null.
func (c Cell) IsNull() bool {
	return !c.Valid
}

func (c Cell) String() string {
	if !c.Valid {
		return "null"
	}
	return c.Text
}

// Table is an ordered list of rows sharing one header.
type Table struct {
	Header []string
	Rows   [][]Cell
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Validate checks that every row is as wide as the header.
func (t *Table) Validate() error {
	if len(t.Header) == 0 {
		return fmt.Errorf("%w: empty header", ErrMalformedResponse)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformedResponse, i, len(row), len(t.Header))
		}
	}
	return nil
}

// Transpose swaps rows and columns. The first column's name stays the name
// of the first column, and its values become the new header.
func (t *Table) Transpose() *Table {
	if len(t.Header) == 0 {
		return &Table{}
	}

	header := make([]string, 0, len(t.Rows)+1)
	header = append(header, t.Header[0])
	for _, row := range t.Rows {
		header = append(header, row[0].String())
	}

	rows := make([][]Cell, 0, len(t.Header)-1)
	for c := 1; c < len(t.Header); c++ {
		row := make([]Cell, 0, len(t.Rows)+1)
		row = append(row, Str(t.Header[c]))
		for _, r := range t.Rows {
			row = append(row, r[c])
		}
		rows = append(rows, row)
	}
	return &Table{Header: header, Rows: rows}
}

// ReplaceAll turns every cell whose text equals from into a null.
func (t *Table) ReplaceAll(from string) {
	for _, row := range t.Rows {
		for i, c := range row {
			if c.Valid && c.Text == from {
				row[i] = Null()
			}
		}
	}
}

// Record is one observation of the long-form table.
type Record struct {
	Timestamp  string
	LocationID string
	Value      *float64
}

// Long flattens a table keyed by Timestamp into one record per
// (timestamp, location) pair, in row then column order.
func (t *Table) Long() ([]Record, error) {
	ts := t.Column(TimestampColumn)
	if ts < 0 {
		return nil, fmt.Errorf("%w: no %s column", ErrMalformedResponse, TimestampColumn)
	}

	out := make([]Record, 0, len(t.Rows)*(len(t.Header)-1))
	for _, row := range t.Rows {
		for c, name := range t.Header {
			if c == ts {
				continue
			}
			v, err := ParseValue(row[c])
			if err != nil {
				return nil, err
			}
			out = append(out, Record{Timestamp: row[ts].Text, LocationID: name, Value: v})
		}
	}
	return out, nil
}

// ParseValue coerces a cell into a rainfall amount. Null and empty cells
// yield nil.
func ParseValue(c Cell) (*float64, error) {
	if !c.Valid {
		return nil, nil
	}
	s := strings.TrimSpace(c.Text)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-numeric value %q", ErrMalformedResponse, c.Text)
	}
	return &f, nil
}

// fit pads a short row with nulls. The upstream leaves off trailing empty
// cells, but a row wider than the header cannot be aligned with it.
func fit(row []Cell, width int) ([]Cell, error) {
	if len(row) > width {
		return nil, fmt.Errorf("%w: row has %d cells, header has %d", ErrMalformedResponse, len(row), width)
	}
	for len(row) < width {
		row = append(row, Null())
	}
	return row, nil
}
