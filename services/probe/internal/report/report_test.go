package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/3rww/rainfall-api/services/api/pivot"
)

func fp(v float64) *float64 { return &v }

func sampleDoc() *pivot.Document {
	return &pivot.Document{
		KeyedBy: pivot.ByLocation,
		Rows: []pivot.Row{
			{Key: "148129", Entries: []pivot.Entry{
				{ID: "2017-03-03T12:00:00", Value: fp(0.25)},
				{ID: "2017-03-03T13:00:00", Value: fp(0.5)},
			}},
			{Key: "135142", Entries: []pivot.Entry{
				{ID: "2017-03-03T12:00:00", Value: nil},
				{ID: "2017-03-03T13:00:00", Value: fp(0)},
			}},
		},
	}
}

func TestSummarize(t *testing.T) {
	r := &Report{}
	r.Summarize(sampleDoc())

	if r.Rows != 2 || r.Values != 4 || r.Nulls != 1 {
		t.Fatalf("counters = %d %d %d", r.Rows, r.Values, r.Nulls)
	}
	if len(r.Totals) != 2 || r.Totals[0].Key != "135142" {
		t.Fatalf("totals = %+v", r.Totals)
	}
	if got := ValueString(r.Totals[0].Sum); got != "0.000" || r.Totals[0].Count != 1 {
		t.Errorf("135142 total = %s (%d)", got, r.Totals[0].Count)
	}
	if got := ValueString(r.Totals[1].Sum); got != "0.750" {
		t.Errorf("148129 total = %s", got)
	}

	r.Summarize(nil)
	if r.Rows != 0 || r.Totals != nil {
		t.Errorf("after nil = %+v", r)
	}
}

func TestSummarizeAllNull(t *testing.T) {
	r := &Report{}
	r.Summarize(&pivot.Document{Rows: []pivot.Row{{Key: "k", Entries: []pivot.Entry{{ID: "a"}}}}})
	if r.Totals[0].Sum != nil || ValueString(r.Totals[0].Sum) != "null" {
		t.Errorf("sum = %v", r.Totals[0].Sum)
	}
}

func TestWriteText(t *testing.T) {
	r := &Report{
		Upstream:  "modern",
		Kind:      "pixels",
		Locations: 2,
		Start:     time.Date(2004, 9, 17, 7, 0, 0, 0, time.UTC),
		End:       time.Date(2004, 9, 18, 4, 0, 0, 0, time.UTC),
		Bytes:     512,
		Fetch:     1500 * time.Millisecond,
		Parse:     20 * time.Millisecond,
		Pivot:     5 * time.Millisecond,
	}
	r.Summarize(sampleDoc())

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"upstream modern, 2 pixels, 2004-09-17T07:00:00Z to 2004-09-18T04:00:00Z",
		"response received in 1.500 seconds (512 bytes)",
		"parsing table took 0.020 seconds",
		"2 rows, 4 values, 1 null",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if r.Total() != 1525*time.Millisecond {
		t.Errorf("Total() = %v", r.Total())
	}
}

func TestWriteJSON(t *testing.T) {
	r := &Report{Upstream: "legacy", Kind: "gauges", Fetch: time.Second}
	r.Summarize(sampleDoc())

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["upstream"] != "legacy" || got["fetch_ns"] != float64(time.Second) {
		t.Errorf("decoded = %v", got)
	}
	totals, ok := got["totals"].([]any)
	if !ok || len(totals) != 2 {
		t.Errorf("totals = %v", got["totals"])
	}
}
