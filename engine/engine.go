// Package engine is the external collaborator around the composition and
// hydration core: it renders fragment trees, runs them against a database
// boundary, and feeds the resulting rows back through the mappers. The
// core itself never touches I/O.
package engine

import (
	"github.com/Konsultn-Engineering/morph/cache"
	"github.com/Konsultn-Engineering/morph/connector"
	"github.com/Konsultn-Engineering/morph/database"
	"github.com/Konsultn-Engineering/morph/dialect"
	"github.com/Konsultn-Engineering/morph/fragment"
	"github.com/Konsultn-Engineering/morph/schema"
	"github.com/Konsultn-Engineering/morph/visitor"
)

type Engine struct {
	db       database.Database
	dialect  dialect.Dialect
	registry *schema.Registry
	queries  cache.QueryCache
}

type Option func(*Engine)

// WithQueryCache replaces the default LRU render cache.
func WithQueryCache(c cache.QueryCache) Option {
	return func(e *Engine) { e.queries = c }
}

// WithRegistry shares a mapper registry between engines.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// New builds an engine over an established connection.
func New(conn connector.Connection, opts ...Option) *Engine {
	return NewWithDB(conn.DB(), conn.Dialect(), opts...)
}

// NewWithDB builds an engine over a raw database boundary.
func NewWithDB(db database.Database, d dialect.Dialect, opts ...Option) *Engine {
	if d == nil {
		d = dialect.Default()
	}
	e := &Engine{
		db:       db,
		dialect:  d,
		registry: schema.NewRegistry(),
		queries:  cache.NewQueryCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *schema.Registry { return e.registry }

func (e *Engine) Dialect() dialect.Dialect { return e.dialect }

func (e *Engine) DB() database.Database { return e.db }

// Render turns a fragment tree into driver-ready text and arguments.
func (e *Engine) Render(root fragment.Node) (string, []any, error) {
	v := visitor.NewSQLVisitor(e.dialect, e.queries)
	defer v.Release()
	return v.Build(root)
}
