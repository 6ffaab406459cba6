// Package report summarises one probe run.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/3rww/rainfall-api/services/api/pivot"
)

// Report holds stage timings and the shape of the reshaped document.
type Report struct {
	Upstream  string        `json:"upstream"`
	Kind      string        `json:"kind"`
	Locations int           `json:"locations"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Bytes     int           `json:"bytes"`
	Fetch     time.Duration `json:"fetch_ns"`
	Parse     time.Duration `json:"parse_ns"`
	Pivot     time.Duration `json:"pivot_ns"`
	Rows      int           `json:"rows"`
	Values    int           `json:"values"`
	Nulls     int           `json:"nulls"`
	Totals    []Total       `json:"totals,omitempty"`
}

// Total is the sum of the non-null values under one outer key.
type Total struct {
	Key   string   `json:"key"`
	Sum   *float64 `json:"sum"`
	Count int      `json:"count"`
}

// Summarize fills the document counters and per-key totals of r.
func (r *Report) Summarize(doc *pivot.Document) {
	r.Rows, r.Values, r.Nulls, r.Totals = 0, 0, 0, nil
	if doc == nil {
		return
	}
	r.Rows = len(doc.Rows)
	for _, row := range doc.Rows {
		t := Total{Key: row.Key}
		for _, e := range row.Entries {
			r.Values++
			if e.Value == nil {
				r.Nulls++
				continue
			}
			t.Count++
			if t.Sum == nil {
				t.Sum = new(float64)
			}
			*t.Sum += *e.Value
		}
		r.Totals = append(r.Totals, t)
	}
	sort.Slice(r.Totals, func(i, j int) bool { return r.Totals[i].Key < r.Totals[j].Key })
}

// Total returns the time spent in all stages.
func (r *Report) Total() time.Duration {
	return r.Fetch + r.Parse + r.Pivot
}

// WriteText prints the timings the way an operator reads them.
func (r *Report) WriteText(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("upstream %s, %d %s, %s to %s", r.Upstream, r.Locations, r.Kind, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339)),
		fmt.Sprintf("response received in %.3f seconds (%d bytes)", r.Fetch.Seconds(), r.Bytes),
		fmt.Sprintf("parsing table took %.3f seconds", r.Parse.Seconds()),
		fmt.Sprintf("reshaping took %.3f seconds", r.Pivot.Seconds()),
		fmt.Sprintf("%d rows, %d values, %d null", r.Rows, r.Values, r.Nulls),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// ValueString prints optional values for logging.
func ValueString(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%.3f", *v)
}
