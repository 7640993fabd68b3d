// Package render prints record collections as text tables.
package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"

	"github.com/mickamy/ormrecord/record"
)

// Collection renders c with one column per name. A name may be an
// attribute or a loaded relationship: single entities print as
// "Model#id", collections as the list of their ids.
func Collection(c record.Collection, names ...string) string {
	w := table.NewWriter()

	header := make(table.Row, 0, len(names)+1)
	header = append(header, "#")
	for _, n := range names {
		header = append(header, n)
	}
	w.AppendHeader(header)

	for key, e := range c.Pairs() {
		row := make(table.Row, 0, len(names)+1)
		row = append(row, key)
		for _, n := range names {
			row = append(row, cell(e, n))
		}
		w.AppendRow(row)
	}
	return w.Render()
}

// Fprint writes the rendered table and a trailing newline to out.
func Fprint(out io.Writer, c record.Collection, names ...string) error {
	_, err := fmt.Fprintln(out, Collection(c, names...))
	return err //nolint:wrapcheck // pass through
}

func cell(e *record.Entity, name string) any {
	if e.Has(name) {
		return e.Attr(name)
	}
	v, ok := e.Related(name)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case *record.Entity:
		if x == nil {
			return "-"
		}
		return fmt.Sprintf("%s#%v", x.Model().Name(), x.ID())
	case record.Collection:
		if x.Len() == 0 {
			return "[]"
		}
		return fmt.Sprint(record.Column(x, x.First().Model().IDColumn()))
	default:
		return fmt.Sprint(v)
	}
}
