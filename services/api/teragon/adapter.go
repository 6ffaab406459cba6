package teragon

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/3rww/rainfall-api/services/api/ids"
	"github.com/3rww/rainfall-api/services/api/timeutil"
)

// Adapter knows one generation of the provider's endpoints.
type Adapter interface {
	Name() string
	Format() Format
	Endpoint(Kind) string
	Payload(Request) (url.Values, error)
}

// Endpoints holds the URL per kind.
type Endpoints struct {
	Gauges string
	Pixels string
}

func (e Endpoints) url(k Kind) string {
	if k == Pixels {
		return e.Pixels
	}
	return e.Gauges
}

// Credentials are the fixed guest credentials the legacy pages expect.
type Credentials struct {
	UserID  string
	Passwd  string
	UserPtr string
}

// Legacy posts to the HTML report pages.
type Legacy struct {
	Endpoints Endpoints
	Creds     Credentials
	Zone      *time.Location
}

func (Legacy) Name() string             { return "legacy" }
func (Legacy) Format() Format           { return FormatHTML }
func (a Legacy) Endpoint(k Kind) string { return a.Endpoints.url(k) }

// Payload builds the positional form of the legacy pages: credentials, the
// split window with its targetday twins, on/off zerofill and one g{id}=on
// flag per gauge.
func (a Legacy) Payload(req Request) (url.Values, error) {
	v := url.Values{}
	v.Set("_userid", a.Creds.UserID)
	v.Set("_passwd", a.Creds.Passwd)
	v.Set("_userptr", a.Creds.UserPtr)

	start, end := setWindow(v, req.Window, a.Zone)
	v.Set("targetday", targetDay(start))
	v.Set("targetday2", targetDay(end))
	v.Set("interval", string(req.Interval))
	if req.Zerofill {
		v.Set("zerofill", "on")
	} else {
		v.Set("zerofill", "off")
	}

	switch req.Kind {
	case Gauges:
		if err := checkGauges(req.IDs); err != nil {
			return nil, err
		}
		for _, id := range req.IDs {
			v.Set("g"+id, "on")
		}
	case Pixels:
		px, err := encodePixels(req.IDs)
		if err != nil {
			return nil, err
		}
		v.Set("pixels", px)
	default:
		return nil, fmt.Errorf("unknown kind %q", req.Kind)
	}
	return v, nil
}

// Modern posts to the CSV API endpoints.
type Modern struct {
	Endpoints Endpoints
	Zone      *time.Location
}

func (Modern) Name() string             { return "modern" }
func (Modern) Format() Format           { return FormatCSV }
func (a Modern) Endpoint(k Kind) string { return a.Endpoints.url(k) }

// Payload builds the structured form of the API endpoints.
func (a Modern) Payload(req Request) (url.Values, error) {
	v := url.Values{}
	setWindow(v, req.Window, a.Zone)
	v.Set("interval", string(req.Interval))
	if req.Zerofill {
		v.Set("zerofill", "yes")
	} else {
		v.Set("zerofill", "")
	}

	switch req.Kind {
	case Gauges:
		if err := checkGauges(req.IDs); err != nil {
			return nil, err
		}
		v.Set("gauges", ids.EncodeGaugeList(req.IDs))
	case Pixels:
		px, err := encodePixels(req.IDs)
		if err != nil {
			return nil, err
		}
		v.Set("pixels", px)
	default:
		return nil, fmt.Errorf("unknown kind %q", req.Kind)
	}
	return v, nil
}

// setWindow writes the start*/end* fields in zone and returns the converted
// instants.
func setWindow(v url.Values, w timeutil.Window, zone *time.Location) (start, end time.Time) {
	if zone == nil {
		zone = time.UTC
	}
	local := w.In(zone)
	start, end = local.Start, local.End
	for prefix, t := range map[string]time.Time{"start": start, "end": end} {
		v.Set(prefix+"year", strconv.Itoa(t.Year()))
		v.Set(prefix+"month", strconv.Itoa(int(t.Month())))
		v.Set(prefix+"day", strconv.Itoa(t.Day()))
		v.Set(prefix+"hour", strconv.Itoa(t.Hour()))
	}
	return start, end
}

// targetDay renders "2017/3/1", unpadded.
func targetDay(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Year(), int(t.Month()), t.Day())
}

func checkGauges(gauges []string) error {
	if len(gauges) == 0 {
		return fmt.Errorf("%w: no gauges requested", ids.ErrMalformedID)
	}
	return ids.ValidateGauges(gauges)
}

func encodePixels(pixels []string) (string, error) {
	if len(pixels) == 0 {
		return "", fmt.Errorf("%w: no pixels requested", ids.ErrMalformedID)
	}
	return ids.EncodePixelList(pixels)
}

// NewAdapter picks the adapter for a provider generation, "legacy" or
// anything else for modern.
func NewAdapter(generation string, e Endpoints, creds Credentials, zone *time.Location) Adapter {
	if generation == "legacy" {
		return Legacy{Endpoints: e, Creds: creds, Zone: zone}
	}
	return Modern{Endpoints: e, Zone: zone}
}
