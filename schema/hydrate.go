package schema

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
)

// MappingError reports an attribute access failure during hydrate or
// dehydrate.
type MappingError struct {
	Attr string
	Err  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("schema: attribute %q: %v", e.Attr, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// orderedSet is a string set preserving insertion order, used for
// hydration records and dirty sets.
type orderedSet struct {
	keys []string
	idx  map[string]int
}

func newOrderedSet() *orderedSet {
	return &orderedSet{idx: make(map[string]int, 8)}
}

func (s *orderedSet) add(key string) {
	if _, ok := s.idx[key]; ok {
		return
	}
	s.idx[key] = len(s.keys)
	s.keys = append(s.keys, key)
}

func (s *orderedSet) has(key string) bool {
	_, ok := s.idx[key]
	return ok
}

func (s *orderedSet) clear() {
	s.keys = s.keys[:0]
	for k := range s.idx {
		delete(s.idx, k)
	}
}

// hydrationState is the per-instance metadata side-table entry: which
// attributes a row populated, which were assigned since the last
// hydrate/dehydrate boundary, and values for attributes the struct has no
// field for.
type hydrationState struct {
	mu       sync.Mutex
	hydrated *orderedSet
	dirty    *orderedSet
	unknown  map[string]any
}

// states associates instances with their hydration state, keyed by the
// instance address. A cleanup registered on the instance drops the entry
// when the object is collected, so a later allocation reusing the address
// never inherits a dead object's record. ReleaseState drops it eagerly.
var states sync.Map // uintptr -> *hydrationState

func stateFor(rv reflect.Value) *hydrationState {
	key := rv.Pointer()
	if st, ok := states.Load(key); ok {
		return st.(*hydrationState)
	}
	st := &hydrationState{hydrated: newOrderedSet(), dirty: newOrderedSet(), unknown: map[string]any{}}
	actual, loaded := states.LoadOrStore(key, st)
	if !loaded {
		runtime.AddCleanup((*byte)(rv.UnsafePointer()), func(k uintptr) {
			states.Delete(k)
		}, key)
	}
	return actual.(*hydrationState)
}

func loadState(obj any) (*hydrationState, bool) {
	ptr, err := instancePtr(obj)
	if err != nil {
		return nil, false
	}
	st, ok := states.Load(ptr.Pointer())
	if !ok {
		return nil, false
	}
	return st.(*hydrationState), true
}

// ReleaseState drops the hydration record for obj. After release the
// object reads as never hydrated and not dirty.
func ReleaseState(obj any) {
	if ptr, err := instancePtr(obj); err == nil {
		states.Delete(ptr.Pointer())
	}
}

// HydratedAttrs returns the attribute names populated by hydration, in
// insertion order.
func HydratedAttrs(obj any) []string {
	st, ok := loadState(obj)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string(nil), st.hydrated.keys...)
}

// DirtyAttrs returns attributes assigned since the last hydrate/dehydrate
// boundary.
func DirtyAttrs(obj any) []string {
	st, ok := loadState(obj)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string(nil), st.dirty.keys...)
}

// MarkDirty records attributes as assigned.
func MarkDirty(obj any, attrs ...string) {
	ptr, err := instancePtr(obj)
	if err != nil {
		return
	}
	st := stateFor(ptr)
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, a := range attrs {
		st.dirty.add(a)
	}
}

func instancePtr(obj any) (reflect.Value, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("schema: expected non-nil pointer, got %T", obj)
	}
	return rv, nil
}

// HydrateNew allocates a bare instance of the mapped type, never running
// any user construction logic, and hydrates it from row. The returned
// value is a pointer to the mapped struct.
func (m *Mapper) HydrateNew(row *Row) (any, error) {
	obj := reflect.New(m.Type).Interface()
	if err := m.Hydrate(obj, row); err != nil {
		return nil, err
	}
	return obj, nil
}

// Hydrate populates obj from row with unknown-column recording enabled.
func (m *Mapper) Hydrate(obj any, row *Row) error {
	return m.HydrateExt(obj, row, true)
}

// HydrateExt populates obj from row. Mapped columns write through direct
// setters, bypassing any accessor on the model. Row keys without a mapping
// entry are recorded verbatim as unknown attributes when withUnknown and
// the mapper allows them, and silently ignored otherwise. Hydration is a
// dirty-tracking boundary: the dirty set resets.
func (m *Mapper) HydrateExt(obj any, row *Row, withUnknown bool) error {
	rv, err := instancePtr(obj)
	if err != nil {
		return err
	}
	if rv.Elem().Type() != m.Type {
		return fmt.Errorf("schema: cannot hydrate %T with %s", obj, m)
	}

	structPtr := rv.UnsafePointer()
	st := stateFor(rv)
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, key := range row.Keys() {
		value := row.Value(key)
		if cm, ok := m.columnMap[key]; ok {
			if err := cm.directSet(structPtr, value); err != nil {
				return &MappingError{Attr: cm.Attr, Err: err}
			}
			st.hydrated.add(cm.Attr)
			continue
		}
		if withUnknown && m.AllowUnknown {
			st.unknown[key] = value
			st.hydrated.add(key)
		}
	}

	st.dirty.clear()
	return nil
}

type dehydrateConfig struct {
	withPrimaryKey bool
	withUnknown    bool
	dirtyOnly      bool
	only           map[string]bool
	except         map[string]bool
}

type DehydrateOption func(*dehydrateConfig)

// WithoutPrimaryKey skips primary key entries, as UPDATE SET lists do.
func WithoutPrimaryKey() DehydrateOption {
	return func(c *dehydrateConfig) { c.withPrimaryKey = false }
}

// WithoutUnknown skips unknown hydrated attributes.
func WithoutUnknown() DehydrateOption {
	return func(c *dehydrateConfig) { c.withUnknown = false }
}

// DirtyOnly restricts output to attributes assigned since the last
// hydrate/dehydrate boundary.
func DirtyOnly() DehydrateOption {
	return func(c *dehydrateConfig) { c.dirtyOnly = true }
}

// Only restricts output to the named attributes.
func Only(attrs ...string) DehydrateOption {
	return func(c *dehydrateConfig) {
		c.only = make(map[string]bool, len(attrs))
		for _, a := range attrs {
			c.only[a] = true
		}
	}
}

// Except drops the named attributes.
func Except(attrs ...string) DehydrateOption {
	return func(c *dehydrateConfig) {
		c.except = make(map[string]bool, len(attrs))
		for _, a := range attrs {
			c.except[a] = true
		}
	}
}

// Dehydrate reads obj back into a row: mapped entries first in declaration
// order, then unknown hydrated attributes in hydration insertion order.
// Dehydration is a dirty-tracking boundary: the dirty set resets.
func (m *Mapper) Dehydrate(obj any, opts ...DehydrateOption) (*Row, error) {
	cfg := dehydrateConfig{withPrimaryKey: true, withUnknown: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	rv, err := instancePtr(obj)
	if err != nil {
		return nil, err
	}
	if rv.Elem().Type() != m.Type {
		return nil, fmt.Errorf("schema: cannot dehydrate %T with %s", obj, m)
	}

	st, hasState := loadState(obj)
	if hasState {
		st.mu.Lock()
		defer st.mu.Unlock()
	}

	include := func(attr string) bool {
		if cfg.only != nil && !cfg.only[attr] {
			return false
		}
		if cfg.except != nil && cfg.except[attr] {
			return false
		}
		if cfg.dirtyOnly && (!hasState || !st.dirty.has(attr)) {
			return false
		}
		return true
	}

	row := NewRow()
	elem := rv.Elem()
	for _, cm := range m.Columns {
		if !cfg.withPrimaryKey && cm.Primary {
			continue
		}
		if !include(cm.Attr) {
			continue
		}
		row.Set(cm.Column, elem.FieldByIndex(cm.Index).Interface())
	}

	if cfg.withUnknown && m.AllowUnknown && hasState {
		for _, attr := range st.hydrated.keys {
			if _, mapped := m.attrMap[attr]; mapped {
				continue
			}
			if !include(attr) {
				continue
			}
			value, ok := st.unknown[attr]
			if !ok {
				return nil, &MappingError{Attr: attr, Err: fmt.Errorf("hydrated attribute has no readable value")}
			}
			row.Set(attr, value)
		}
	}

	if hasState {
		st.dirty.clear()
	}
	return row, nil
}

// Set assigns an attribute on obj and marks it dirty. Mapped attributes
// write through the direct setter; unknown ones land in the side-table
// when the mapper allows them.
func (m *Mapper) Set(obj any, attr string, value any) error {
	rv, err := instancePtr(obj)
	if err != nil {
		return err
	}
	st := stateFor(rv)
	st.mu.Lock()
	defer st.mu.Unlock()

	if cm, ok := m.attrMap[attr]; ok {
		if err := cm.directSet(rv.UnsafePointer(), value); err != nil {
			return &MappingError{Attr: attr, Err: err}
		}
	} else if m.AllowUnknown {
		st.unknown[attr] = value
		st.hydrated.add(attr)
	} else {
		return &MappingError{Attr: attr, Err: fmt.Errorf("no mapping entry and unknown columns are disabled")}
	}
	st.dirty.add(attr)
	return nil
}

// GetAttr reads an attribute from obj, consulting the unknown side-table
// for attributes without a mapping entry.
func (m *Mapper) GetAttr(obj any, attr string) (any, error) {
	rv, err := instancePtr(obj)
	if err != nil {
		return nil, err
	}
	if cm, ok := m.attrMap[attr]; ok {
		return rv.Elem().FieldByIndex(cm.Index).Interface(), nil
	}
	if st, ok := loadState(obj); ok {
		st.mu.Lock()
		defer st.mu.Unlock()
		if v, ok := st.unknown[attr]; ok {
			return v, nil
		}
	}
	return nil, &MappingError{Attr: attr, Err: fmt.Errorf("attribute not present")}
}
