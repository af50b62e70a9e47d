package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxDatabase adapts a pgxpool.Pool to the Database boundary.
type PgxDatabase struct {
	pool *pgxpool.Pool
}

func NewPgxDatabase(pool *pgxpool.Pool) *PgxDatabase {
	return &PgxDatabase{pool: pool}
}

func (p *PgxDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

func (p *PgxDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxResult{tag: tag}, nil
}

func (p *PgxDatabase) PingContext(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PgxDatabase) Close() error {
	p.pool.Close()
	return nil
}

// Pool exposes the underlying pool for callers needing pgx-specific
// features (transactions, batches).
func (p *PgxDatabase) Pool() *pgxpool.Pool { return p.pool }

// PgxRows adapts pgx.Rows.
type PgxRows struct {
	rows    pgx.Rows
	columns []string
}

func (r *PgxRows) Next() bool { return r.rows.Next() }

func (r *PgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }

func (r *PgxRows) Columns() ([]string, error) {
	if r.columns == nil {
		fds := r.rows.FieldDescriptions()
		r.columns = make([]string, len(fds))
		for i, fd := range fds {
			r.columns[i] = fd.Name
		}
	}
	return r.columns, nil
}

func (r *PgxRows) Err() error { return r.rows.Err() }

func (r *PgxRows) Close() error {
	r.rows.Close()
	return nil
}

type PgxResult struct {
	tag pgconn.CommandTag
}

func (r *PgxResult) RowsAffected() (int64, error) {
	return r.tag.RowsAffected(), nil
}

var _ Database = (*PgxDatabase)(nil)
