// Package database defines the driver boundary the core consumes: an
// executor of parameterized statements and a cursor yielding rows in SQL
// result order. Driver selection and pooling live in connector.
package database

import "context"

type Database interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Rows is a forward-only cursor. Implementations must preserve result
// order; composite assembly depends on it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

type Result interface {
	RowsAffected() (int64, error)
}
