package composite

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/morph/schema"
)

// AssemblyError reports rows that cannot be grouped, e.g. an entirely
// empty row. Assembly either completes every group or fails the call.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return "composite: " + e.Reason
}

// pending is a group under construction: the representative row for one
// object plus deduplicated child groups per path segment.
type pending struct {
	row      *schema.Row
	segs     []string
	children map[string][]*pending
	seen     map[string]map[string]int
}

func newPending(row *schema.Row) *pending {
	return &pending{
		row:      row,
		children: map[string][]*pending{},
		seen:     map[string]map[string]int{},
	}
}

// Assemble groups rows by the root grouping key (first-seen order, stable)
// and hydrates one object tree per group. Nested objects under the same
// parent and path are deduplicated by their own key, so fan-out joins do
// not produce duplicates; rows whose nested columns are all null
// contribute nothing at that path.
func Assemble(m *Map, rows []*schema.Row) ([]any, error) {
	var (
		order  []*pending
		groups = map[string]*pending{}
	)

	for _, row := range rows {
		if row.Len() == 0 {
			return nil, &AssemblyError{Reason: "row has no columns to group by"}
		}
		sr := splitRow(row, Separator)
		key, err := groupKey(sr.row, m)
		if err != nil {
			return nil, err
		}
		p, ok := groups[key]
		if !ok {
			p = newPending(sr.row)
			groups[key] = p
			order = append(order, p)
		}
		if err := addNested(p, sr, m); err != nil {
			return nil, err
		}
	}

	out := make([]any, 0, len(order))
	for _, p := range order {
		obj, err := compile(p, m)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func addNested(p *pending, sr *subrow, m *Map) error {
	for _, seg := range sr.segs {
		child := sr.nested[seg]
		cm := m.child(seg)

		key, err := groupKey(child.row, cm)
		if err != nil {
			return err
		}
		if p.seen[seg] == nil {
			p.seen[seg] = map[string]int{}
			p.segs = append(p.segs, seg)
		}
		idx, ok := p.seen[seg][key]
		if !ok {
			idx = len(p.children[seg])
			p.seen[seg][key] = idx
			p.children[seg] = append(p.children[seg], newPending(child.row))
		}
		if err := addNested(p.children[seg][idx], child, cm); err != nil {
			return err
		}
	}
	return nil
}

// groupKey identifies a row for grouping/dedup: the RowID override, else
// the mapper's primary key values when present in the row, else the full
// column set compared structurally. The structural fallback is a
// documented relaxation, not an error.
func groupKey(row *schema.Row, m *Map) (string, error) {
	if m != nil && m.RowID != nil {
		if key, ok := m.RowID(row); ok {
			return "id:" + key, nil
		}
	}
	if m != nil && m.Mapper != nil {
		if pk := m.Mapper.PrimaryKey(); len(pk) > 0 {
			var sb strings.Builder
			complete := true
			for _, cm := range pk {
				v, ok := row.Get(cm.Column)
				if !ok {
					complete = false
					break
				}
				fmt.Fprintf(&sb, "%v\x00", v)
			}
			if complete {
				return "pk:" + sb.String(), nil
			}
		}
	}
	var sb strings.Builder
	for _, key := range row.Keys() {
		fmt.Fprintf(&sb, "%s=%v\x00", key, row.Value(key))
	}
	return "all:" + sb.String(), nil
}

// compile hydrates the object for a group and attaches its assembled
// children. Levels without a mapper stay plain rows.
func compile(p *pending, m *Map) (any, error) {
	children := make(map[string]any, len(p.segs))
	for _, seg := range p.segs {
		cm := m.child(seg)
		compiled := make([]any, 0, len(p.children[seg]))
		for _, child := range p.children[seg] {
			obj, err := compile(child, cm)
			if err != nil {
				return nil, err
			}
			compiled = append(compiled, obj)
		}
		if cm != nil && cm.Single {
			if len(compiled) > 0 {
				children[seg] = compiled[0]
			}
			continue
		}
		children[seg] = compiled
	}

	if m == nil || m.Mapper == nil {
		row := p.row.Clone()
		for _, seg := range p.segs {
			if v, ok := children[seg]; ok {
				row.Set(seg, v)
			}
		}
		return row, nil
	}

	obj, err := m.Mapper.HydrateNew(p.row)
	if err != nil {
		return nil, err
	}
	for _, seg := range p.segs {
		value, ok := children[seg]
		if !ok {
			continue
		}
		if err := attach(m.Mapper, obj, seg, value); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// attach sets an assembled child value on the parent, matching the path
// segment to a struct field by snake_case name. Parents without a matching
// field keep the value as an unknown attribute when allowed.
func attach(m *schema.Mapper, obj any, seg string, value any) error {
	field, ok := fieldForSegment(m.Type, seg)
	if !ok {
		return m.Set(obj, seg, value)
	}

	target := reflect.ValueOf(obj).Elem().FieldByIndex(field.Index)
	switch target.Kind() {
	case reflect.Slice:
		items, ok := value.([]any)
		if !ok {
			items = []any{value}
		}
		slice := reflect.MakeSlice(target.Type(), 0, len(items))
		for _, item := range items {
			ev, err := elemValue(item, target.Type().Elem())
			if err != nil {
				return err
			}
			slice = reflect.Append(slice, ev)
		}
		target.Set(slice)
	default:
		single := value
		if items, ok := value.([]any); ok {
			if len(items) == 0 {
				return nil
			}
			single = items[0]
		}
		ev, err := elemValue(single, target.Type())
		if err != nil {
			return err
		}
		target.Set(ev)
	}
	return nil
}

func fieldForSegment(t reflect.Type, seg string) (reflect.StructField, bool) {
	if f, ok := t.FieldByName(seg); ok {
		return f, true
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(strings.ReplaceAll(seg, "_", ""), f.Name) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// elemValue adapts a hydrated *T to the field's element kind.
func elemValue(item any, want reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(item)
	if rv.Type() == want {
		return rv, nil
	}
	if rv.Kind() == reflect.Ptr && rv.Type().Elem() == want {
		return rv.Elem(), nil
	}
	if want.Kind() == reflect.Interface && rv.Type().Implements(want) {
		return rv, nil
	}
	return reflect.Value{}, fmt.Errorf("composite: cannot attach %s as %s", rv.Type(), want)
}
