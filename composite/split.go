package composite

import (
	"strings"

	"github.com/Konsultn-Engineering/morph/schema"
)

// subrow is one row split along alias paths: own columns plus sub-rows
// keyed by the first path segment, in first-seen column order. Sub-rows
// whose columns are all null (outer-join miss) are dropped entirely.
type subrow struct {
	row    *schema.Row
	segs   []string
	nested map[string]*subrow
}

func splitRow(row *schema.Row, sep string) *subrow {
	out := &subrow{row: schema.NewRow(), nested: map[string]*subrow{}}
	flat := map[string]*schema.Row{}
	var order []string

	for _, key := range row.Keys() {
		seg, rest, found := strings.Cut(key, sep)
		if !found || seg == "" || rest == "" {
			out.row.Set(key, row.Value(key))
			continue
		}
		sub, ok := flat[seg]
		if !ok {
			sub = schema.NewRow()
			flat[seg] = sub
			order = append(order, seg)
		}
		sub.Set(rest, row.Value(key))
	}

	for _, seg := range order {
		sub := flat[seg]
		if sub.AllNull() {
			continue
		}
		out.segs = append(out.segs, seg)
		out.nested[seg] = splitRow(sub, sep)
	}
	return out
}
