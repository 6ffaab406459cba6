package table

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestParseHTMLFixture(t *testing.T) {
	f, err := os.Open("testdata/gauges.html")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := ParseHTML(f)
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	want := &Table{
		Header: []string{"Timestamp", "10 Fox Chapel", "11"},
		Rows: [][]Cell{
			{Str("2017-03-03T12:00:00"), Str("0.10"), Null()},
			{Str("2017-03-03T13:00:00"), Str("0.25"), Null()},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseHTML() = %+v, want %+v", got, want)
	}
}

func TestParseHTMLThead(t *testing.T) {
	body := `<table><thead><tr><th>TOTAL:</th><th>A</th></tr></thead>
<tbody><tr><td>sum</td><td>1.5</td></tr></tbody></table>`
	got, err := ParseHTML(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0][1] != Str("1.5") {
		t.Errorf("rows = %v", got.Rows)
	}
}

func TestParseHTMLMalformed(t *testing.T) {
	tests := map[string]string{
		"no table":  `<html><body><p>Service temporarily unavailable</p></body></html>`,
		"no rows":   `<html><body><table></table></body></html>`,
		"empty":     ``,
		"bad stamp": `<table><tr><th>Timestamp</th><th>A</th></tr><tr><td>soon</td><td>1</td></tr></table>`,
		"wide row":  `<table><tr><th>Timestamp</th><th>A</th></tr><tr><td>2020-01-01 00:00</td><td>1</td><td>2</td></tr></table>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseHTML(strings.NewReader(body)); !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("ParseHTML() error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}
