package timeutil

import (
	"errors"
	"testing"
	"time"
)

func mustZone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadZone(DefaultZone)
	if err != nil {
		t.Fatalf("LoadZone() error = %v", err)
	}
	return loc
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"to_local", ToLocal, false},
		{"from_utc", ToLocal, false},
		{"to_utc", ToUTC, false},
		{"from_local", ToUTC, false},
		{" TO_UTC ", ToUTC, false},
		{"sideways", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidDirection) {
				t.Errorf("error = %v, want ErrInvalidDirection", err)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertZone(t *testing.T) {
	ny := mustZone(t)

	got, err := ConvertZone("2017-03-03T17:00:00", ToLocal, ny)
	if err != nil {
		t.Fatalf("ConvertZone() error = %v", err)
	}
	want := time.Date(2017, 3, 3, 12, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Errorf("ToLocal = %v, want %v", got, want)
	}
	if got.Location() != ny {
		t.Errorf("ToLocal location = %v, want %v", got.Location(), ny)
	}

	got, err = ConvertZone("2017-07-01 08:30:00", ToUTC, ny)
	if err != nil {
		t.Fatalf("ConvertZone() error = %v", err)
	}
	want = time.Date(2017, 7, 1, 12, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ToUTC = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("ToUTC location = %v, want UTC", got.Location())
	}
}

func TestConvertZoneErrors(t *testing.T) {
	if _, err := ConvertZone("2017-03-03T17:00:00", Direction(42), time.UTC); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("bad direction error = %v, want ErrInvalidDirection", err)
	}
	if _, err := ConvertZone("not a date", ToUTC, time.UTC); err == nil {
		t.Error("expected parse error")
	}
}

func TestLastDay(t *testing.T) {
	before := time.Now()
	w := LastDay(time.Now())
	after := time.Now()

	if w.Duration() != 24*time.Hour {
		t.Errorf("Duration() = %v, want 24h", w.Duration())
	}
	if w.End.Before(before.Add(-time.Second)) || w.End.After(after.Add(time.Second)) {
		t.Errorf("End = %v, want close to now", w.End)
	}
	if w.End.Location() != time.UTC {
		t.Errorf("End location = %v, want UTC", w.End.Location())
	}
}

func TestParseDates(t *testing.T) {
	ny := mustZone(t)

	tests := []struct {
		name      string
		in        string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "interval naive local",
			in:        "2016-08-28T14:00/2016-08-29T06:00",
			wantStart: time.Date(2016, 8, 28, 14, 0, 0, 0, ny),
			wantEnd:   time.Date(2016, 8, 29, 6, 0, 0, 0, ny),
		},
		{
			name:      "interval zulu",
			in:        "2016-08-28T18:00:00Z/2016-08-28T20:00:00Z",
			wantStart: time.Date(2016, 8, 28, 18, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2016, 8, 28, 20, 0, 0, 0, time.UTC),
		},
		{
			name:      "interval offset",
			in:        "2016-08-28T14:00-04:00/2016-08-28T16:00-0400",
			wantStart: time.Date(2016, 8, 28, 18, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2016, 8, 28, 20, 0, 0, 0, time.UTC),
		},
		{
			name:      "single date covers day",
			in:        "2016-08-28",
			wantStart: time.Date(2016, 8, 28, 0, 0, 0, 0, ny),
			wantEnd:   time.Date(2016, 8, 29, 0, 0, 0, 0, ny),
		},
		{
			name:      "single hour",
			in:        "2016-08-28T14",
			wantStart: time.Date(2016, 8, 28, 14, 0, 0, 0, ny),
			wantEnd:   time.Date(2016, 8, 28, 15, 0, 0, 0, ny),
		},
		{
			name:      "single minute",
			in:        "2016-08-28T14:15",
			wantStart: time.Date(2016, 8, 28, 14, 15, 0, 0, ny),
			wantEnd:   time.Date(2016, 8, 28, 14, 16, 0, 0, ny),
		},
		{
			name:      "date interval",
			in:        "2016-08-01/2016-08-03",
			wantStart: time.Date(2016, 8, 1, 0, 0, 0, 0, ny),
			wantEnd:   time.Date(2016, 8, 3, 0, 0, 0, 0, ny),
		},
		{
			name:      "start and hours",
			in:        "2020-01-01T00:00/PT6H",
			wantStart: time.Date(2020, 1, 1, 0, 0, 0, 0, ny),
			wantEnd:   time.Date(2020, 1, 1, 6, 0, 0, 0, ny),
		},
		{
			name:      "day before end",
			in:        "P1D/2020-01-02T00:00",
			wantStart: time.Date(2020, 1, 1, 0, 0, 0, 0, ny),
			wantEnd:   time.Date(2020, 1, 2, 0, 0, 0, 0, ny),
		},
		{
			name:      "zulu start and day",
			in:        "2020-01-01T00:00:00Z/P1D",
			wantStart: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "calendar month",
			in:        "2020-01-31/P1M",
			wantStart: time.Date(2020, 1, 31, 0, 0, 0, 0, ny),
			wantEnd:   time.Date(2020, 1, 31, 0, 0, 0, 0, ny).AddDate(0, 1, 0),
		},
		{
			name:      "days and hours",
			in:        "2020-03-01T00:00/P1DT12H",
			wantStart: time.Date(2020, 3, 1, 0, 0, 0, 0, ny),
			wantEnd:   time.Date(2020, 3, 2, 12, 0, 0, 0, ny),
		},
		{
			name:      "minutes before zoned end",
			in:        "PT90M/2020-01-01T12:00:00-05:00",
			wantStart: time.Date(2020, 1, 1, 15, 30, 0, 0, time.UTC),
			wantEnd:   time.Date(2020, 1, 1, 17, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDates(tt.in, ny)
			if err != nil {
				t.Fatalf("ParseDates(%q) error = %v", tt.in, err)
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("ParseDates(%q) = [%v, %v], want [%v, %v]", tt.in, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
			if got.Start.Location() != time.UTC {
				t.Errorf("Start location = %v, want UTC", got.Start.Location())
			}
		})
	}
}

func TestParseDatesInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"yesterday",
		"2016-08-28T14:00/",
		"2016-13-01",
		"2016-08-29T00:00/2016-08-28T00:00",
		"PT6H/P1D",
		"2020-01-01T00:00/PT6X",
		"2020-01-01T00:00/P0.5M",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDates(in, time.UTC)
			if !errors.Is(err, ErrInvalidDateRange) {
				t.Errorf("ParseDates(%q) error = %v, want ErrInvalidDateRange", in, err)
			}
		})
	}
}
