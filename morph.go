// Package morph is the top-level entry point: connect to a database,
// get an engine, and work with fragment statements and mapped structs.
//
//	eng, err := morph.Connect(ctx, "postgres", connector.Config{...})
//	stmt := morph.Select(morph.Col("id"), morph.Col("email")).
//		From("users").
//		Where(morph.Col("active").Eq(true))
//	var users []User
//	err = eng.FetchAll(ctx, &users, stmt.Node())
package morph

import (
	"context"

	"github.com/Konsultn-Engineering/morph/connector"
	"github.com/Konsultn-Engineering/morph/engine"
	"github.com/Konsultn-Engineering/morph/fragment"
)

// Connect establishes a connection through a registered provider and
// wraps it in an engine. The connection is owned by the engine's
// database handle; close it via eng.DB().Close().
func Connect(ctx context.Context, provider string, cfg connector.Config, opts ...engine.Option) (*engine.Engine, error) {
	conn, err := connector.New(ctx, provider, cfg)
	if err != nil {
		return nil, err
	}
	return engine.New(conn, opts...), nil
}

// Statement starters and fragment constructors, re-exported so simple
// callers need only this package.
var (
	Select     = fragment.Select
	InsertInto = fragment.InsertInto
	Update     = fragment.Update
	DeleteFrom = fragment.DeleteFrom

	Col     = fragment.Col
	Cols    = fragment.Cols
	Lit     = fragment.Lit
	Keyword = fragment.Keyword
	Func    = fragment.Func
	Count   = fragment.Count
	And     = fragment.And
	Or      = fragment.Or
	Tuple   = fragment.Tuple
	E       = fragment.E
)
