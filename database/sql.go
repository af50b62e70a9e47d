package database

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/morph/cache"
	"github.com/Konsultn-Engineering/morph/utils"
)

// SQLDatabase adapts a database/sql handle, keeping prepared statements in
// an LRU keyed by the query text fingerprint.
type SQLDatabase struct {
	db    *sql.DB
	stmts *cache.StatementCache
}

func NewSQLDatabase(db *sql.DB) *SQLDatabase {
	return &SQLDatabase{db: db, stmts: cache.NewStatementCache(256)}
}

func (s *SQLDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	stmt, err := s.stmts.GetOrPrepare(utils.FingerprintString(query), s.db, query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

func (s *SQLDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	stmt, err := s.stmts.GetOrPrepare(utils.FingerprintString(query), s.db, query)
	if err != nil {
		return nil, err
	}
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{res: res}, nil
}

func (s *SQLDatabase) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLDatabase) Close() error {
	s.stmts.Close()
	return s.db.Close()
}

func (s *SQLDatabase) DB() *sql.DB { return s.db }

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                  { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error      { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error)  { return r.rows.Columns() }
func (r *sqlRows) Err() error                  { return r.rows.Err() }
func (r *sqlRows) Close() error                { return r.rows.Close() }

type sqlResult struct {
	res sql.Result
}

func (r sqlResult) RowsAffected() (int64, error) { return r.res.RowsAffected() }

var _ Database = (*SQLDatabase)(nil)
