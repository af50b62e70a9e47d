// Package composite regroups flat joined rows into nested object trees.
// Column aliases carry the nesting as delimited paths: comments__id means
// column id of the nested entity under the comments attribute. The
// delimiter is a fixed two-character contract with whoever authors the
// SELECT list.
package composite

import (
	"strings"

	"github.com/Konsultn-Engineering/morph/schema"
)

// Separator splits column-alias paths. Two characters, fixed.
const Separator = "__"

// Map describes how one level of a composite result is assembled: which
// mapper hydrates rows at this path, what identifies a row for dedup, and
// which deeper paths nest under it.
type Map struct {
	Mapper *schema.Mapper
	Nested map[string]*Map
	// RowID overrides the grouping key for this level. When nil, the
	// mapper's primary key is used, falling back to the full column set.
	RowID func(*schema.Row) (string, bool)
	// Single attaches the first assembled object instead of a collection.
	Single bool
}

func NewMap(m *schema.Mapper) *Map {
	return &Map{Mapper: m, Nested: map[string]*Map{}}
}

// Get resolves a dot-separated path, creating empty levels on the way.
func (m *Map) Get(path string) *Map {
	current := m
	for _, seg := range strings.Split(path, ".") {
		if current.Nested == nil {
			current.Nested = map[string]*Map{}
		}
		next, ok := current.Nested[seg]
		if !ok {
			next = &Map{Nested: map[string]*Map{}}
			current.Nested[seg] = next
		}
		current = next
	}
	return current
}

// MapPath assigns a mapper to a path. Use Get for finer control.
func (m *Map) MapPath(path string, mapper *schema.Mapper, single bool) *Map {
	target := m.Get(path)
	target.Mapper = mapper
	target.Single = single
	return m
}

// child returns the map for a path segment, which may be nil for paths
// that appear in rows without being declared.
func (m *Map) child(seg string) *Map {
	if m == nil || m.Nested == nil {
		return nil
	}
	return m.Nested[seg]
}
