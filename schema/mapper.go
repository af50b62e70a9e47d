package schema

import (
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/morph/fragment"
)

// ColumnMeta is one attribute-to-column mapping entry. Entry order in
// Mapper.Columns follows struct declaration order.
type ColumnMeta struct {
	Attr      string // Go field name
	Column    string // database column name
	Type      reflect.Type
	Index     []int
	Offset    uintptr
	Primary   bool
	Lazy      bool
	LazyGroup string
	Default   string
	Generator string

	directSet SetterFunc
}

// Col returns the column reference fragment for this entry.
func (c *ColumnMeta) Col() *fragment.Column { return fragment.Col(c.Column) }

// Mapper owns the mapping between one struct type and its table. Built
// once per type and safe for concurrent reads afterwards.
type Mapper struct {
	Type          reflect.Type
	Name          string
	Table         string
	AllowUnknown  bool
	DirtyTracking bool
	Columns       []*ColumnMeta

	columnMap map[string]*ColumnMeta // db column -> meta
	attrMap   map[string]*ColumnMeta // field name -> meta
	pk        []*ColumnMeta
}

type MapperOption func(*Mapper)

// WithTable overrides the derived table name.
func WithTable(name string) MapperOption {
	return func(m *Mapper) { m.Table = name }
}

// WithoutUnknownColumns makes hydrate silently drop row keys that have no
// mapping entry instead of recording them.
func WithoutUnknownColumns() MapperOption {
	return func(m *Mapper) { m.AllowUnknown = false }
}

// WithoutDirtyTracking makes UPDATE dehydration include every mapped and
// known attribute instead of only dirty ones.
func WithoutDirtyTracking() MapperOption {
	return func(m *Mapper) { m.DirtyTracking = false }
}

// BuildMapper constructs the mapper for a struct type. Pointer types are
// dereferenced; anything but a struct is an error.
func BuildMapper(t reflect.Type, opts ...MapperOption) (*Mapper, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: invalid model type %s (expected struct)", t.Kind())
	}

	parser := NewTagParser()
	numFields := t.NumField()

	m := &Mapper{
		Type:          t,
		Name:          t.Name(),
		AllowUnknown:  true,
		DirtyTracking: true,
		Columns:       make([]*ColumnMeta, 0, numFields),
		columnMap:     make(map[string]*ColumnMeta, numFields),
		attrMap:       make(map[string]*ColumnMeta, numFields),
	}

	if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
		m.Table = tn.TableName()
	} else {
		m.Table = tableNameFor(t.Name())
	}

	for i := 0; i < numFields; i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}

		tag, err := parser.ParseTag(f.Name, f.Tag)
		if err != nil {
			return nil, err
		}
		if tag.Skip {
			continue
		}

		cm := &ColumnMeta{
			Attr:      f.Name,
			Column:    tag.ColumnName,
			Type:      f.Type,
			Index:     f.Index,
			Offset:    f.Offset,
			Primary:   tag.Primary,
			Lazy:      tag.Lazy,
			LazyGroup: tag.LazyGroup,
			Default:   tag.Default,
			Generator: tag.Generator,
			directSet: createDirectSetter(f.Type, f.Offset),
		}
		m.Columns = append(m.Columns, cm)
		m.columnMap[cm.Column] = cm
		m.attrMap[cm.Attr] = cm
		if cm.Primary {
			m.pk = append(m.pk, cm)
		}
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns the entry for a field name.
func (m *Mapper) Get(attr string) *ColumnMeta { return m.attrMap[attr] }

// ByColumn returns the entry for a database column name.
func (m *Mapper) ByColumn(column string) *ColumnMeta { return m.columnMap[column] }

// PrimaryKey returns the primary key entries, empty when none declared.
func (m *Mapper) PrimaryKey() []*ColumnMeta { return m.pk }

// AttrNames lists mapped field names in declaration order.
func (m *Mapper) AttrNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Attr
	}
	return names
}

// EagerColumns returns the non-lazy column list.
func (m *Mapper) EagerColumns() fragment.Columns {
	cols := make(fragment.Columns, 0, len(m.Columns))
	for _, c := range m.Columns {
		if !c.Lazy {
			cols = append(cols, fragment.Col(c.Column))
		}
	}
	return cols
}

// LazyColumns returns the lazy column list.
func (m *Mapper) LazyColumns() fragment.Columns {
	cols := make(fragment.Columns, 0, 4)
	for _, c := range m.Columns {
		if c.Lazy {
			cols = append(cols, fragment.Col(c.Column))
		}
	}
	return cols
}

// SelectColumns returns the columns for a SELECT list: eager columns plus
// any lazy column whose name or lazy group is listed in withLazy. The
// single value "*" includes all lazy columns.
func (m *Mapper) SelectColumns(withLazy ...string) fragment.Columns {
	all := len(withLazy) == 1 && withLazy[0] == "*"
	requested := make(map[string]bool, len(withLazy))
	for _, w := range withLazy {
		requested[w] = true
	}

	cols := make(fragment.Columns, 0, len(m.Columns))
	for _, c := range m.Columns {
		if c.Lazy && !all && !requested[c.Column] && !(c.LazyGroup != "" && requested[c.LazyGroup]) {
			continue
		}
		cols = append(cols, fragment.Col(c.Column))
	}
	return cols
}

func (m *Mapper) String() string {
	return fmt.Sprintf("Mapper(%s -> %s)", m.Table, m.Name)
}
