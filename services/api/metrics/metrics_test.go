package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/gauge/", "200"))
	RecordAPIRequest("GET", "/api/gauge/", "200", 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/gauge/", "200"))
	if after-before != 1 {
		t.Errorf("requests delta = %v, want 1", after-before)
	}
}

func TestRecordUpstream(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		outcome string
		bytes   int
	}{
		{"ok", "gauges", "ok", 2048},
		{"timeout", "pixels", "timeout", 0},
		{"rejected", "pixels", "rejected", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordUpstream(tt.kind, tt.outcome, 300*time.Millisecond, tt.bytes)
		})
	}
	if n := testutil.CollectAndCount(UpstreamRequestDuration); n < 3 {
		t.Errorf("upstream duration series = %d, want >= 3", n)
	}
}

func TestRecordParseError(t *testing.T) {
	before := testutil.ToFloat64(ParseErrorsTotal.WithLabelValues("csv"))
	RecordParseError("csv")
	if got := testutil.ToFloat64(ParseErrorsTotal.WithLabelValues("csv")) - before; got != 1 {
		t.Errorf("parse errors delta = %v, want 1", got)
	}
}
