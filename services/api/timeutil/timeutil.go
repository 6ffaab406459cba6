// Package timeutil converts between UTC and the upstream's local zone and
// resolves the time window of a rainfall query.
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sosodev/duration"
)

// DefaultZone is the wall-clock zone of the upstream provider.
const DefaultZone = "America/New_York"

var (
	// ErrInvalidDirection is returned for a conversion direction other than
	// to_local/from_utc or to_utc/from_local.
	ErrInvalidDirection = errors.New("invalid conversion direction")

	// ErrInvalidDateRange is returned when a dates argument cannot be parsed
	// or its start is after its end.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Direction selects the zone conversion applied by ConvertZone.
type Direction int

const (
	// ToLocal reads the wall clock as UTC and converts it to the local zone.
	ToLocal Direction = iota + 1
	// ToUTC reads the wall clock as local time and converts it to UTC.
	ToUTC
)

// ParseDirection accepts the two direction spellings used by callers.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to_local", "from_utc":
		return ToLocal, nil
	case "to_utc", "from_local":
		return ToUTC, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

func (d Direction) String() string {
	switch d {
	case ToLocal:
		return "to_local"
	case ToUTC:
		return "to_utc"
	default:
		return "invalid"
	}
}

// ConvertZone parses instant, attaches the source zone implied by dir to its
// wall clock and converts it to the target zone. Any zone carried by instant
// is replaced, not honoured.
func ConvertZone(instant string, dir Direction, local *time.Location) (time.Time, error) {
	if local == nil {
		local = time.UTC
	}

	var from, to *time.Location
	switch dir {
	case ToLocal:
		from, to = time.UTC, local
	case ToUTC:
		from, to = local, time.UTC
	default:
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(instant), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", instant, err)
	}

	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), from)
	return wall.In(to), nil
}

// Window is a closed time range. Start never comes after End.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// In returns the window with both ends expressed in loc.
func (w Window) In(loc *time.Location) Window {
	return Window{Start: w.Start.In(loc), End: w.End.In(loc)}
}

// LastDay returns the 24 hours ending at now, in UTC.
func LastDay(now time.Time) Window {
	end := now.UTC()
	return Window{Start: end.Add(-24 * time.Hour), End: end}
}

// isoLayout pairs an ISO-8601 layout with the span a value of that precision
// covers when it is given on its own.
type isoLayout struct {
	layout string
	span   func(time.Time) time.Time
}

var isoLayouts = []isoLayout{
	{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
	{"2006-01-02T15", func(t time.Time) time.Time { return t.Add(time.Hour) }},
	{"2006-01-02T15:04", func(t time.Time) time.Time { return t.Add(time.Minute) }},
	{"2006-01-02T15:04:05", func(t time.Time) time.Time { return t.Add(time.Second) }},
	{"2006-01-02T15:04:05.999999999", func(t time.Time) time.Time { return t.Add(time.Second) }},
}

var zoneSuffix = regexp.MustCompile(`(Z|[+-]\d{2}(:?\d{2})?)$`)

// parseISO parses one side of a dates argument. Values without an offset are
// wall-clock times in local.
func parseISO(value string, local *time.Location) (time.Time, isoLayout, error) {
	value = strings.TrimSpace(value)
	zone := ""
	body := value
	// Date-only values end in "-DD", which would otherwise read as an offset.
	if strings.Contains(value, "T") {
		if m := zoneSuffix.FindString(value); m != "" {
			zone = m
			body = strings.TrimSuffix(value, m)
		}
	}

	for _, l := range isoLayouts {
		if zone == "" {
			t, err := time.ParseInLocation(l.layout, body, local)
			if err == nil {
				return t, l, nil
			}
			continue
		}
		t, err := time.Parse(l.layout+"Z07:00", body+normalizeOffset(zone))
		if err == nil {
			return t, l, nil
		}
	}
	return time.Time{}, isoLayout{}, fmt.Errorf("%w: cannot parse %q", ErrInvalidDateRange, value)
}

// normalizeOffset rewrites +HH and +HHMM to +HH:MM.
func normalizeOffset(zone string) string {
	if zone == "Z" {
		return zone
	}
	digits := strings.ReplaceAll(zone[1:], ":", "")
	if len(digits) == 2 {
		digits += "00"
	}
	return zone[:1] + digits[:2] + ":" + digits[2:]
}

// ParseDates resolves an ISO-8601 instant or interval into a UTC window.
// Intervals are start/end, start/duration or duration/end. A lone instant
// covers its own precision: a date is the whole day, an hour the whole hour,
// and so on.
func ParseDates(value string, local *time.Location) (Window, error) {
	if local == nil {
		local = time.UTC
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Window{}, fmt.Errorf("%w: empty", ErrInvalidDateRange)
	}

	startStr, endStr, isInterval := strings.Cut(value, "/")
	if !isInterval {
		start, layout, err := parseISO(startStr, local)
		if err != nil {
			return Window{}, err
		}
		return Window{Start: start.UTC(), End: layout.span(start).UTC()}, nil
	}

	var start, end time.Time
	var err error
	switch {
	case isDuration(startStr) && isDuration(endStr):
		return Window{}, fmt.Errorf("%w: %q has no anchor instant", ErrInvalidDateRange, value)
	case isDuration(startStr):
		if end, _, err = parseISO(endStr, local); err != nil {
			return Window{}, err
		}
		if start, err = shift(end, startStr, -1); err != nil {
			return Window{}, err
		}
	case isDuration(endStr):
		if start, _, err = parseISO(startStr, local); err != nil {
			return Window{}, err
		}
		if end, err = shift(start, endStr, 1); err != nil {
			return Window{}, err
		}
	default:
		if start, _, err = parseISO(startStr, local); err != nil {
			return Window{}, err
		}
		if end, _, err = parseISO(endStr, local); err != nil {
			return Window{}, err
		}
	}

	if start.After(end) {
		return Window{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidDateRange, startStr, endStr)
	}
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

func isDuration(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "P")
}

// shift moves t by the ISO-8601 duration period, forward for sign 1 and
// backward for -1. Years, months and whole days follow the calendar; the
// rest is added as elapsed time.
func shift(t time.Time, period string, sign int) (time.Time, error) {
	period = strings.TrimSpace(period)
	d, err := duration.Parse(period)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: duration %q: %v", ErrInvalidDateRange, period, err)
	}
	if d.Negative {
		return time.Time{}, fmt.Errorf("%w: negative duration %q", ErrInvalidDateRange, period)
	}
	if d.Years != math.Trunc(d.Years) || d.Months != math.Trunc(d.Months) {
		return time.Time{}, fmt.Errorf("%w: fractional years or months in %q", ErrInvalidDateRange, period)
	}

	days := d.Weeks*7 + d.Days
	wholeDays := math.Trunc(days)
	clock := (days-wholeDays)*24*float64(time.Hour) +
		d.Hours*float64(time.Hour) +
		d.Minutes*float64(time.Minute) +
		d.Seconds*float64(time.Second)

	out := t.AddDate(sign*int(d.Years), sign*int(d.Months), sign*int(wholeDays))
	return out.Add(time.Duration(float64(sign) * clock)), nil
}

// LoadZone wraps time.LoadLocation, defaulting to DefaultZone.
func LoadZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return loc, nil
}
