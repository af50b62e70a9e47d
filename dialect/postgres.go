package dialect

import "strconv"

// Postgres uses numbered placeholders, so the same parameter position can
// be referenced more than once by hand-written fragments.
type Postgres struct{}

func NewPostgresDialect() Dialect { return Postgres{} }

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
