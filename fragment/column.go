package fragment

import "github.com/Konsultn-Engineering/morph/utils"

// Column is a named column reference, optionally table-qualified and
// aliased. Prefix prepends the alias, which is how composite SELECT lists
// tag related columns (comments__id). It renders as plain text but stays a
// typed node so it can anchor comparison builders.
type Column struct {
	Name   string
	Table  string
	Prefix string
	Alias  string
}

func Col(name string) *Column { return &Column{Name: name} }

func NewColumn(name, table, alias string) *Column {
	return &Column{Name: name, Table: table, Alias: alias}
}

func (c *Column) Kind() Kind             { return KindColumn }
func (c *Column) Accept(v Visitor) error { return v.VisitColumn(c) }
func (c *Column) Fingerprint() uint64 {
	return utils.FingerprintString("col:" + c.Table + "." + c.Name + ":" + c.Prefix + c.Alias)
}

// AliasOrName is the key this column will carry in a result row.
func (c *Column) AliasOrName() string {
	name := c.Alias
	if name == "" {
		name = c.Name
	}
	return c.Prefix + name
}

// Aliased returns a copy with an alias.
func (c *Column) Aliased(alias string) *Column {
	return &Column{Name: c.Name, Table: c.Table, Prefix: c.Prefix, Alias: alias}
}

// AliasedTable returns a copy qualified by table.
func (c *Column) AliasedTable(table string) *Column {
	return &Column{Name: c.Name, Table: table, Prefix: c.Prefix, Alias: c.Alias}
}

// Prefixed returns a copy whose rendered alias is the name with prefix
// prepended.
func (c *Column) Prefixed(prefix string) *Column {
	return &Column{Name: c.Name, Table: c.Table, Prefix: prefix, Alias: c.Alias}
}

func (c *Column) Expr() Expr { return E(c) }

func (c *Column) Eq(v any) Expr   { return E(c).Eq(v) }
func (c *Column) Ne(v any) Expr   { return E(c).Ne(v) }
func (c *Column) Gt(v any) Expr   { return E(c).Gt(v) }
func (c *Column) Ge(v any) Expr   { return E(c).Ge(v) }
func (c *Column) Lt(v any) Expr   { return E(c).Lt(v) }
func (c *Column) Le(v any) Expr   { return E(c).Le(v) }
func (c *Column) Like(v any) Expr { return E(c).Like(v) }

func (c *Column) In(values ...any) Expr    { return E(c).In(values...) }
func (c *Column) NotIn(values ...any) Expr { return E(c).NotIn(values...) }

// Columns is an ordered column list rendering as a comma-joined sequence.
type Columns []*Column

func Cols(names ...string) Columns {
	cols := make(Columns, len(names))
	for i, n := range names {
		cols[i] = Col(n)
	}
	return cols
}

func (cs Columns) Node() Node {
	if len(cs) == 0 {
		return Lit("*")
	}
	items := make([]any, len(cs))
	for i, c := range cs {
		items[i] = c
	}
	return &Sequence{Items: items, Sep: ", "}
}

func (cs Columns) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

func (cs Columns) Get(name string) *Column {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (cs Columns) AliasedTable(table string) Columns {
	out := make(Columns, len(cs))
	for i, c := range cs {
		out[i] = c.AliasedTable(table)
	}
	return out
}

func (cs Columns) Prefixed(prefix string) Columns {
	out := make(Columns, len(cs))
	for i, c := range cs {
		out[i] = c.Prefixed(prefix)
	}
	return out
}
