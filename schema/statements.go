package schema

import (
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/morph/fragment"
)

// ErrNoChanges reports an UPDATE with nothing to set, e.g. no dirty
// attributes since the last boundary.
var ErrNoChanges = errors.New("schema: no attributes to update")

// SelectFrom builds "SELECT <cols> FROM <table>" honouring lazy column
// selection. Callers chain Where/OrderBy on the result.
func (m *Mapper) SelectFrom(withLazy ...string) fragment.Expr {
	return fragment.Select(m.SelectColumns(withLazy...).Node()).From(m.Table)
}

// PrefixedSelectColumns returns the select list aliased for composite
// assembly under the given path attribute (path + "__" + column).
func (m *Mapper) PrefixedSelectColumns(path string, withLazy ...string) fragment.Columns {
	return m.SelectColumns(withLazy...).AliasedTable(m.Table).Prefixed(path + "__")
}

// PrimaryKeyCondition builds the WHERE condition matching one row by
// primary key. Composite keys take a []any in declaration order.
func (m *Mapper) PrimaryKeyCondition(pk any) (fragment.Expr, error) {
	if len(m.pk) == 0 {
		return fragment.Expr{}, fmt.Errorf("schema: missing primary key for table %s", m.Table)
	}
	if len(m.pk) == 1 {
		return fragment.Col(m.pk[0].Column).Eq(pk), nil
	}
	values, ok := pk.([]any)
	if !ok || len(values) != len(m.pk) {
		return fragment.Expr{}, fmt.Errorf("schema: composite primary key for %s requires %d values", m.Table, len(m.pk))
	}
	conds := make([]any, len(m.pk))
	for i, cm := range m.pk {
		conds[i] = fragment.Col(cm.Column).Eq(values[i])
	}
	return fragment.E(fragment.And(conds...)), nil
}

// GetPrimaryKey reads the primary key value from obj: a single value, or
// []any for composite keys. Returns nil when no key is declared.
func (m *Mapper) GetPrimaryKey(obj any) (any, error) {
	if len(m.pk) == 0 {
		return nil, nil
	}
	if len(m.pk) == 1 {
		return m.GetAttr(obj, m.pk[0].Attr)
	}
	values := make([]any, len(m.pk))
	for i, cm := range m.pk {
		v, err := m.GetAttr(obj, cm.Attr)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// SelectByPK builds the single-row SELECT for a primary key value.
func (m *Mapper) SelectByPK(pk any, withLazy ...string) (fragment.Expr, error) {
	cond, err := m.PrimaryKeyCondition(pk)
	if err != nil {
		return fragment.Expr{}, err
	}
	return m.SelectFrom(withLazy...).Where(cond), nil
}

// Insert builds the INSERT for obj. Generator-tagged zero attributes are
// filled first; a fully empty row inserts defaults.
func (m *Mapper) Insert(obj any) (fragment.Expr, error) {
	if err := m.ApplyGenerators(obj); err != nil {
		return fragment.Expr{}, err
	}
	row, err := m.Dehydrate(obj)
	if err != nil {
		return fragment.Expr{}, err
	}
	return InsertRow(m.Table, row), nil
}

// InsertRow builds "INSERT INTO table (cols) VALUES (params)" from an
// ordered row.
func InsertRow(table string, row *Row) fragment.Expr {
	if row.Len() == 0 {
		return fragment.InsertInto(table, "DEFAULT VALUES")
	}
	cols := make([]any, 0, row.Len())
	values := make([]any, 0, row.Len())
	for _, key := range row.Keys() {
		cols = append(cols, fragment.Col(key))
		values = append(values, &fragment.Param{Value: row.Value(key), Name: key})
	}
	return fragment.InsertInto(table, fragment.Tuple(cols...)).
		Values(fragment.Tuple(values...))
}

// Update builds the UPDATE for obj. With dirty tracking enabled only
// attributes assigned since the last boundary are set; otherwise every
// mapped and known attribute is. ErrNoChanges when the set list is empty.
func (m *Mapper) Update(obj any) (fragment.Expr, error) {
	pk, err := m.GetPrimaryKey(obj)
	if err != nil {
		return fragment.Expr{}, err
	}

	opts := []DehydrateOption{WithoutPrimaryKey()}
	if m.DirtyTracking {
		opts = append(opts, DirtyOnly())
	}
	row, err := m.Dehydrate(obj, opts...)
	if err != nil {
		return fragment.Expr{}, err
	}
	if row.Len() == 0 {
		return fragment.Expr{}, ErrNoChanges
	}

	cond, err := m.PrimaryKeyCondition(pk)
	if err != nil {
		return fragment.Expr{}, err
	}
	return UpdateRow(m.Table, row).Where(cond), nil
}

// UpdateRow builds "UPDATE table SET col = param, ..." from an ordered row.
func UpdateRow(table string, row *Row) fragment.Expr {
	assignments := make([]any, 0, row.Len())
	for _, key := range row.Keys() {
		assignments = append(assignments, fragment.Col(key).Eq(&fragment.Param{Value: row.Value(key), Name: key}))
	}
	return fragment.Update(table).Set(fragment.List(assignments...))
}

// Delete builds the DELETE for obj by primary key.
func (m *Mapper) Delete(obj any) (fragment.Expr, error) {
	pk, err := m.GetPrimaryKey(obj)
	if err != nil {
		return fragment.Expr{}, err
	}
	cond, err := m.PrimaryKeyCondition(pk)
	if err != nil {
		return fragment.Expr{}, err
	}
	return fragment.DeleteFrom(m.Table).Where(cond), nil
}
