// Package ids translates gauge and pixel identifiers between the API's
// comma-separated form and the upstream provider's conventions.
package ids

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedID is returned for identifiers that are not in the expected
// fixed-width or numeric form.
var ErrMalformedID = errors.New("malformed id")

// PixelIDLength is the width of a GARR pixel id: three x digits followed by
// three y digits.
const PixelIDLength = 6

// DefaultGaugeCount is the number of rain gauges in the network.
const DefaultGaugeCount = 33

// XY is a pixel id split into its grid coordinates.
type XY struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// SplitList turns "a, b,,c" into ["a" "b" "c"].
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidatePixel reports whether id is a 6-digit pixel id.
func ValidatePixel(id string) error {
	if len(id) != PixelIDLength || !isDigits(id) {
		return fmt.Errorf("%w: pixel %q must be %d digits", ErrMalformedID, id, PixelIDLength)
	}
	return nil
}

// EncodePixelList renders pixel ids as the upstream's "xxx,yyy;xxx,yyy" list.
func EncodePixelList(pixels []string) (string, error) {
	pairs := make([]string, 0, len(pixels))
	for _, id := range pixels {
		if err := ValidatePixel(id); err != nil {
			return "", err
		}
		pairs = append(pairs, id[:3]+","+id[3:])
	}
	return strings.Join(pairs, ";"), nil
}

// DecodePixelList is the inverse of EncodePixelList.
func DecodePixelList(arg string) ([]string, error) {
	xys, err := DecodePixelXY(arg)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(xys))
	for _, xy := range xys {
		out = append(out, xy.X+xy.Y)
	}
	return out, nil
}

// DecodePixelXY splits an upstream pixel list into its x,y coordinates.
func DecodePixelXY(arg string) ([]XY, error) {
	if arg == "" {
		return []XY{}, nil
	}
	parts := strings.Split(arg, ";")
	out := make([]XY, 0, len(parts))
	for _, p := range parts {
		x, y, ok := strings.Cut(p, ",")
		if !ok || x == "" || y == "" || strings.Contains(y, ",") {
			return nil, fmt.Errorf("%w: pixel pair %q", ErrMalformedID, p)
		}
		out = append(out, XY{X: x, Y: y})
	}
	return out, nil
}

// ValidateGauges checks that every gauge id is a positive integer.
func ValidateGauges(gauges []string) error {
	for _, g := range gauges {
		n, err := strconv.Atoi(g)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: gauge %q must be a positive integer", ErrMalformedID, g)
		}
	}
	return nil
}

// EncodeGaugeList joins gauge ids with commas, unchanged.
func EncodeGaugeList(gauges []string) string {
	return strings.Join(gauges, ",")
}

// DefaultGauges returns every gauge id, 1 through DefaultGaugeCount.
func DefaultGauges() []string {
	out := make([]string, 0, DefaultGaugeCount)
	for i := 1; i <= DefaultGaugeCount; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
