package table

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses the HTML page returned by the legacy upstream endpoints.
//
// The first row of the first table is the header. Its sibling rows are data,
// except rows holding a <center> cell, which the upstream uses for footers
// and summaries.
func ParseHTML(r io.Reader) (*Table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrMalformedResponse, err)
	}

	tbl := findFirst(doc, atom.Table)
	if tbl == nil {
		return nil, fmt.Errorf("%w: no table element", ErrMalformedResponse)
	}
	head := findFirst(tbl, atom.Tr)
	if head == nil {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedResponse)
	}

	t := &Table{}
	for _, cell := range cells(head) {
		t.Header = append(t.Header, strings.TrimSpace(strings.ReplaceAll(textContent(cell), ",", "")))
	}
	if len(t.Header) == 0 {
		return nil, fmt.Errorf("%w: header row has no cells", ErrMalformedResponse)
	}

	for _, tr := range dataRows(head) {
		tds := cells(tr)
		if len(tds) == 0 || hasCenter(tds) {
			continue
		}
		row := make([]Cell, 0, len(tds))
		for _, td := range tds {
			row = append(row, Str(strings.TrimSpace(textContent(td))))
		}
		row, err := fit(row, len(t.Header))
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}

	if ts := t.Column(TimestampColumn); ts >= 0 {
		for _, row := range t.Rows {
			if !row[ts].Valid {
				continue
			}
			norm, err := NormalizeTimestamp(row[ts].Text)
			if err != nil {
				return nil, err
			}
			row[ts] = Str(norm)
		}
	}

	t.ReplaceAll(NullSentinel)
	return t, nil
}

// dataRows returns the <tr> siblings following head. When the header sits in
// a <thead>, rows of the following <tbody> sections are included too.
func dataRows(head *html.Node) []*html.Node {
	var rows []*html.Node
	for n := head.NextSibling; n != nil; n = n.NextSibling {
		if isElement(n, atom.Tr) {
			rows = append(rows, n)
		}
	}

	if head.Parent != nil && isElement(head.Parent, atom.Thead) {
		for sec := head.Parent.NextSibling; sec != nil; sec = sec.NextSibling {
			if !isElement(sec, atom.Tbody) {
				continue
			}
			for n := sec.FirstChild; n != nil; n = n.NextSibling {
				if isElement(n, atom.Tr) {
					rows = append(rows, n)
				}
			}
		}
	}
	return rows
}

// cells returns the element children of a row.
func cells(tr *html.Node) []*html.Node {
	var out []*html.Node
	for n := tr.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out
}

func hasCenter(tds []*html.Node) bool {
	for _, td := range tds {
		if findFirst(td, atom.Center) != nil {
			return true
		}
	}
	return false
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}

// findFirst does a depth-first search below n.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, a) {
			return c
		}
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
