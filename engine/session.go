package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/morph/composite"
	"github.com/Konsultn-Engineering/morph/fragment"
	"github.com/Konsultn-Engineering/morph/schema"
	"github.com/Konsultn-Engineering/morph/template"
)

// ErrNotFound reports a single-row fetch that matched nothing.
var ErrNotFound = errors.New("engine: not found")

// FetchRows runs a statement and returns the raw ordered rows.
func (e *Engine) FetchRows(ctx context.Context, stmt fragment.Node) ([]*schema.Row, error) {
	sql, args, err := e.Render(stmt)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows)
}

// FetchAll runs a statement and hydrates every row into dest, a pointer
// to a slice of T or *T.
func (e *Engine) FetchAll(ctx context.Context, dest any, stmt fragment.Node) error {
	slice, elem, byPtr, err := destSlice(dest)
	if err != nil {
		return err
	}
	mapper, err := e.registry.MapperOf(elem)
	if err != nil {
		return err
	}

	rows, err := e.FetchRows(ctx, stmt)
	if err != nil {
		return err
	}
	for _, row := range rows {
		obj, err := mapper.HydrateNew(row)
		if err != nil {
			return err
		}
		v := reflect.ValueOf(obj)
		if !byPtr {
			v = v.Elem()
		}
		slice.Set(reflect.Append(slice, v))
	}
	return nil
}

// FetchOne runs a statement and hydrates the first row into dest, a
// pointer to a struct. ErrNotFound when the result is empty.
func (e *Engine) FetchOne(ctx context.Context, dest any, stmt fragment.Node) error {
	mapper, err := e.registry.MapperOf(dest)
	if err != nil {
		return err
	}

	sql, args, err := e.Render(stmt)
	if err != nil {
		return err
	}
	rows, err := e.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return err
	}
	collected, err := collectRows(rows)
	if err != nil {
		return err
	}
	if len(collected) == 0 {
		return ErrNotFound
	}
	return mapper.Hydrate(dest, collected[0])
}

// FetchComposite runs a statement whose select list is path-prefixed and
// assembles the rows into object trees per the composite map.
func (e *Engine) FetchComposite(ctx context.Context, m *composite.Map, stmt fragment.Node) ([]any, error) {
	rows, err := e.FetchRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return composite.Assemble(m, rows)
}

// FetchTemplate renders a template with bindings and fetches all rows
// into dest.
func (e *Engine) FetchTemplate(ctx context.Context, dest any, tpl *template.Template, bindings map[string]any) error {
	node, err := tpl.Render(bindings)
	if err != nil {
		return err
	}
	return e.FetchAll(ctx, dest, node)
}

// Get fetches one row by primary key into dest, a pointer to a struct.
func (e *Engine) Get(ctx context.Context, dest any, pk any, withLazy ...string) error {
	mapper, err := e.registry.MapperOf(dest)
	if err != nil {
		return err
	}
	stmt, err := mapper.SelectByPK(pk, withLazy...)
	if err != nil {
		return err
	}
	return e.FetchOne(ctx, dest, stmt.Node())
}

// Find fetches every row matching the conditions (ANDed together; none
// means all rows) into dest, a pointer to a slice.
func (e *Engine) Find(ctx context.Context, dest any, conds ...any) error {
	_, elem, _, err := destSlice(dest)
	if err != nil {
		return err
	}
	mapper, err := e.registry.MapperOf(elem)
	if err != nil {
		return err
	}
	stmt := mapper.SelectFrom()
	if len(conds) > 0 {
		stmt = stmt.Where(fragment.And(conds...))
	}
	return e.FetchAll(ctx, dest, stmt.Node())
}

// Insert persists obj, generating tagged identifiers first.
func (e *Engine) Insert(ctx context.Context, obj any) error {
	mapper, err := e.registry.MapperOf(obj)
	if err != nil {
		return err
	}
	stmt, err := mapper.Insert(obj)
	if err != nil {
		return err
	}
	_, err = e.Exec(ctx, stmt.Node())
	return err
}

// Update persists obj's changed attributes by primary key. A no-op
// returning nil when dirty tracking reports nothing to write.
func (e *Engine) Update(ctx context.Context, obj any) error {
	mapper, err := e.registry.MapperOf(obj)
	if err != nil {
		return err
	}
	stmt, err := mapper.Update(obj)
	if errors.Is(err, schema.ErrNoChanges) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = e.Exec(ctx, stmt.Node())
	return err
}

// Delete removes obj's row by primary key.
func (e *Engine) Delete(ctx context.Context, obj any) error {
	mapper, err := e.registry.MapperOf(obj)
	if err != nil {
		return err
	}
	stmt, err := mapper.Delete(obj)
	if err != nil {
		return err
	}
	_, err = e.Exec(ctx, stmt.Node())
	return err
}

// Exec renders and runs a statement, returning affected rows.
func (e *Engine) Exec(ctx context.Context, stmt fragment.Node) (int64, error) {
	sql, args, err := e.Render(stmt)
	if err != nil {
		return 0, err
	}
	res, err := e.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExecScript splits a multi-statement script on top-level semicolons and
// runs each statement in order, stopping at the first failure.
func (e *Engine) ExecScript(ctx context.Context, script string) error {
	for _, stmt := range SplitStatements(script) {
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("engine: script statement %q: %w", stmt, err)
		}
	}
	return nil
}

// destSlice validates a *[]T or *[]*T destination and returns the slice
// value, the element struct type, and whether elements are pointers.
func destSlice(dest any) (reflect.Value, reflect.Type, bool, error) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return reflect.Value{}, nil, false, fmt.Errorf("engine: destination must be a non-nil pointer to a slice, got %T", dest)
	}
	slice := v.Elem()
	elem := slice.Type().Elem()
	byPtr := elem.Kind() == reflect.Ptr
	if byPtr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return reflect.Value{}, nil, false, fmt.Errorf("engine: slice elements must be structs, got %s", elem)
	}
	return slice, elem, byPtr, nil
}
