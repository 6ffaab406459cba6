// Package pivot reshapes a parsed upstream table into the API's output
// document, keyed either by timestamp or by location.
package pivot

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/3rww/rainfall-api/services/api/table"
)

// KeyedBy selects the orientation of the output document.
type KeyedBy string

const (
	ByTime     KeyedBy = "time"
	ByLocation KeyedBy = "location"
)

// ParseKeyedBy maps the keyed_by parameter to an orientation. Anything
// unrecognised means ByTime.
func ParseKeyedBy(s string) KeyedBy {
	if KeyedBy(s) == ByLocation {
		return ByLocation
	}
	return ByTime
}

// TotalColumn is the key column the legacy summary tables use in place of
// table.TimestampColumn.
const TotalColumn = "TOTAL:"

// nullKey is used as the outer key when a table has no key column.
const nullKey = "null"

// Entry is one inner value of a row.
type Entry struct {
	ID    string
	Value *float64
}

// Row is one outer key with its values, sorted by Entry.ID.
type Row struct {
	Key     string
	Entries []Entry
}

// Document is the reshaped response. Rows are sorted by Key.
type Document struct {
	KeyedBy KeyedBy
	Rows    []Row
}

// Build pivots t into a Document. For ByLocation the table is transposed
// first, so locations become the outer keys.
func Build(t *table.Table, keyedBy KeyedBy) (*Document, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", table.ErrMalformedResponse)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if keyedBy == ByLocation {
		t = t.Transpose()
	}

	key := t.Column(table.TimestampColumn)
	if key < 0 {
		key = t.Column(TotalColumn)
	}

	byKey := make(map[string]map[string]*float64, len(t.Rows))
	for _, row := range t.Rows {
		outer := nullKey
		if key >= 0 {
			outer = row[key].String()
		}
		inner := make(map[string]*float64, len(t.Header))
		for c, name := range t.Header {
			if c == key {
				continue
			}
			v, err := table.ParseValue(row[c])
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", outer, name, err)
			}
			inner[name] = v
		}
		byKey[outer] = inner
	}

	doc := &Document{KeyedBy: keyedBy, Rows: make([]Row, 0, len(byKey))}
	for outer, inner := range byKey {
		r := Row{Key: outer, Entries: make([]Entry, 0, len(inner))}
		for id, v := range inner {
			r.Entries = append(r.Entries, Entry{ID: id, Value: v})
		}
		sort.Slice(r.Entries, func(i, j int) bool { return r.Entries[i].ID < r.Entries[j].ID })
		doc.Rows = append(doc.Rows, r)
	}
	sort.Slice(doc.Rows, func(i, j int) bool { return doc.Rows[i].Key < doc.Rows[j].Key })
	return doc, nil
}

// Value looks up a single cell. ok is false when either key is missing.
func (d *Document) Value(outer, inner string) (v *float64, ok bool) {
	i := sort.Search(len(d.Rows), func(i int) bool { return d.Rows[i].Key >= outer })
	if i == len(d.Rows) || d.Rows[i].Key != outer {
		return nil, false
	}
	entries := d.Rows[i].Entries
	j := sort.Search(len(entries), func(j int) bool { return entries[j].ID >= inner })
	if j == len(entries) || entries[j].ID != inner {
		return nil, false
	}
	return entries[j].Value, true
}

// Keys returns the outer keys in order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		keys[i] = r.Key
	}
	return keys
}

// MarshalJSON writes the canonical shape, {"outer": {"inner": value}},
// keeping both levels in sorted order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range d.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, r.Key); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, e := range r.Entries {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, e.ID); err != nil {
				return nil, err
			}
			v, err := json.Marshal(e.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) error {
	b, err := json.Marshal(k)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}

// Record and Pair form the deprecated list shape,
// [{"id": outer, "d": [{"id": inner, "v": value}]}].
type Record struct {
	ID string `json:"id"`
	D  []Pair `json:"d"`
}

type Pair struct {
	ID string   `json:"id"`
	V  *float64 `json:"v"`
}

// Records converts the document to the deprecated list shape.
func (d *Document) Records() []Record {
	out := make([]Record, 0, len(d.Rows))
	for _, r := range d.Rows {
		rec := Record{ID: r.Key, D: make([]Pair, 0, len(r.Entries))}
		for _, e := range r.Entries {
			rec.D = append(rec.D, Pair{ID: e.ID, V: e.Value})
		}
		out = append(out, rec)
	}
	return out
}
