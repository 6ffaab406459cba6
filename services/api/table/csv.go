package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// totalRow marks the upstream's per-column summary row.
const totalRow = "TOTAL"

// notesSuffix is appended to a location id to name its notes column.
const notesSuffix = "-n"

// isoNaive is the layout for timestamps that carried no zone upstream.
const isoNaive = "2006-01-02T15:04:05"

var explicitZone = regexp.MustCompile(`\d:\d{2}(:\d{2}(\.\d+)?)?\s*(Z|[+-]\d{2}:?\d{2})$`)

// NormalizeTimestamp reformats an upstream timestamp as ISO-8601. Values
// without a zone stay naive; values with one keep their offset.
func NormalizeTimestamp(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: timestamp %q: %v", ErrMalformedResponse, s, err)
	}
	if explicitZone.MatchString(s) {
		return t.Format(time.RFC3339), nil
	}
	return t.Format(isoNaive), nil
}

// ParseCSV parses the wide CSV returned by the modern upstream endpoints.
//
// After the timestamp column the upstream emits a (data, notes) pair per
// location. Each data column is kept under its location id, notes columns
// and TOTAL rows are dropped, timestamps are normalised and N/D becomes null.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	raw, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", ErrMalformedResponse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", ErrMalformedResponse, err)
	}

	if len(raw) < 1 {
		return nil, fmt.Errorf("%w: empty csv header", ErrMalformedResponse)
	}
	pairs := raw[1:]
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%w: %d columns after %s, expected data/notes pairs", ErrMalformedResponse, len(pairs), TimestampColumn)
	}

	renamed := []string{TimestampColumn}
	notes := make(map[int]bool, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		id := strings.TrimSpace(pairs[i])
		renamed = append(renamed, id, id+notesSuffix)
		notes[len(renamed)-1] = true
	}

	var keep []int
	var header []string
	for i, name := range renamed {
		if notes[i] {
			continue
		}
		keep = append(keep, i)
		header = append(header, name)
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv row: %v", ErrMalformedResponse, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rec[0]), totalRow) {
			continue
		}
		if len(rec) > len(raw) {
			return nil, fmt.Errorf("%w: row has %d fields, header has %d", ErrMalformedResponse, len(rec), len(raw))
		}

		row := make([]Cell, 0, len(keep))
		for _, idx := range keep {
			if idx < len(rec) {
				row = append(row, Str(strings.TrimSpace(rec[idx])))
			} else {
				row = append(row, Null())
			}
		}

		ts, err := NormalizeTimestamp(row[0].Text)
		if err != nil {
			return nil, err
		}
		row[0] = Str(ts)
		t.Rows = append(t.Rows, row)
	}

	t.ReplaceAll(NullSentinel)
	return t, nil
}
