package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/morph/composite"
	"github.com/Konsultn-Engineering/morph/database"
	"github.com/Konsultn-Engineering/morph/dialect"
	"github.com/Konsultn-Engineering/morph/fragment"
	"github.com/Konsultn-Engineering/morph/schema"
	"github.com/Konsultn-Engineering/morph/template"
)

type user struct {
	ID    string `db:"id,pk"`
	Email string
	Score int64
}

// fakeDB records executed statements and plays back canned result sets.
type fakeDB struct {
	queries  []string
	args     [][]any
	columns  []string
	rows     [][]any
	affected int64
}

func (f *fakeDB) QueryContext(ctx context.Context, query string, args ...any) (database.Rows, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return &fakeRows{columns: f.columns, rows: f.rows}, nil
}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (database.Result, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return fakeResult{affected: f.affected}, nil
}

func (f *fakeDB) PingContext(ctx context.Context) error { return nil }
func (f *fakeDB) Close() error                          { return nil }

type fakeRows struct {
	columns []string
	rows    [][]any
	pos     int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*d.(*any) = r.rows[r.pos-1][i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.columns, nil }
func (r *fakeRows) Err() error                 { return nil }
func (r *fakeRows) Close() error               { return nil }

type fakeResult struct{ affected int64 }

func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

func newTestEngine(db *fakeDB) *Engine {
	return NewWithDB(db, dialect.Postgres{})
}

func TestFetchAll(t *testing.T) {
	db := &fakeDB{
		columns: []string{"id", "email", "score"},
		rows: [][]any{
			{"u-1", "a@example.com", int64(1)},
			{"u-2", "b@example.com", int64(2)},
		},
	}
	eng := newTestEngine(db)

	var users []*user
	stmt := fragment.Select(fragment.Cols("id", "email", "score").Node()).From("users")
	require.NoError(t, eng.FetchAll(context.Background(), &users, stmt.Node()))

	require.Len(t, users, 2)
	assert.Equal(t, "u-1", users[0].ID)
	assert.Equal(t, "b@example.com", users[1].Email)
	assert.Equal(t, `SELECT "id", "email", "score" FROM users`, db.queries[0])
}

func TestFetchAllValueSlice(t *testing.T) {
	db := &fakeDB{
		columns: []string{"id"},
		rows:    [][]any{{"u-1"}},
	}
	eng := newTestEngine(db)

	var users []user
	require.NoError(t, eng.FetchAll(context.Background(), &users, fragment.Select("*").From("users").Node()))
	require.Len(t, users, 1)
	assert.Equal(t, "u-1", users[0].ID)
}

func TestFetchAllBadDest(t *testing.T) {
	eng := newTestEngine(&fakeDB{})
	stmt := fragment.Select("*").From("users").Node()

	assert.Error(t, eng.FetchAll(context.Background(), user{}, stmt))
	var notSlice *user
	assert.Error(t, eng.FetchAll(context.Background(), notSlice, stmt))
	var ints []int
	assert.Error(t, eng.FetchAll(context.Background(), &ints, stmt))
}

func TestFetchOne(t *testing.T) {
	db := &fakeDB{
		columns: []string{"id", "email"},
		rows:    [][]any{{"u-1", "a@example.com"}},
	}
	eng := newTestEngine(db)

	var u user
	require.NoError(t, eng.FetchOne(context.Background(), &u, fragment.Select("*").From("users").Limit(1).Node()))
	assert.Equal(t, "a@example.com", u.Email)
}

func TestFetchOneNotFound(t *testing.T) {
	db := &fakeDB{columns: []string{"id"}}
	eng := newTestEngine(db)

	var u user
	err := eng.FetchOne(context.Background(), &u, fragment.Select("*").From("users").Node())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet(t *testing.T) {
	db := &fakeDB{
		columns: []string{"id", "email", "score"},
		rows:    [][]any{{"u-1", "a@example.com", int64(5)}},
	}
	eng := newTestEngine(db)

	var u user
	require.NoError(t, eng.Get(context.Background(), &u, "u-1"))
	assert.Equal(t, int64(5), u.Score)
	assert.Equal(t, `SELECT "id", "email", "score" FROM users WHERE "id" = $1`, db.queries[0])
	assert.Equal(t, []any{"u-1"}, db.args[0])
}

func TestFind(t *testing.T) {
	db := &fakeDB{columns: []string{"id", "email", "score"}}
	eng := newTestEngine(db)

	var users []user
	require.NoError(t, eng.Find(context.Background(), &users,
		fragment.Col("score").Gt(10),
		fragment.Col("email").Like("%@example.com"),
	))
	assert.Equal(t,
		`SELECT "id", "email", "score" FROM users WHERE ("score" > $1 AND "email" LIKE $2)`,
		db.queries[0])
	assert.Equal(t, []any{10, "%@example.com"}, db.args[0])
}

func TestInsertUpdateDelete(t *testing.T) {
	db := &fakeDB{affected: 1, columns: []string{"id"}}
	eng := newTestEngine(db)

	u := &user{ID: "u-1", Email: "a@example.com", Score: 3}
	defer schema.ReleaseState(u)

	require.NoError(t, eng.Insert(context.Background(), u))
	assert.Equal(t,
		`INSERT INTO users ("id", "email", "score") VALUES ($1, $2, $3)`,
		db.queries[0])

	// Nothing dirty yet, so update is a no-op.
	require.NoError(t, eng.Update(context.Background(), u))
	assert.Len(t, db.queries, 1)

	mapper, err := eng.Registry().MapperOf(u)
	require.NoError(t, err)
	require.NoError(t, mapper.Set(u, "Score", int64(4)))
	require.NoError(t, eng.Update(context.Background(), u))
	assert.Equal(t, `UPDATE users SET "score" = $1 WHERE "id" = $2`, db.queries[1])
	assert.Equal(t, []any{int64(4), "u-1"}, db.args[1])

	require.NoError(t, eng.Delete(context.Background(), u))
	assert.Equal(t, `DELETE FROM users WHERE "id" = $1`, db.queries[2])
}

func TestExec(t *testing.T) {
	db := &fakeDB{affected: 3}
	eng := newTestEngine(db)

	n, err := eng.Exec(context.Background(),
		fragment.DeleteFrom("users").Where(fragment.Col("score").Lt(0)).Node())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestFetchComposite(t *testing.T) {
	db := &fakeDB{
		columns: []string{"id", "email", "score", "tags__name"},
		rows: [][]any{
			{"u-1", "a@example.com", int64(1), "go"},
			{"u-1", "a@example.com", int64(1), "sql"},
		},
	}
	eng := newTestEngine(db)

	mapper, err := eng.Registry().MapperOf(user{})
	require.NoError(t, err)

	out, err := eng.FetchComposite(context.Background(), composite.NewMap(mapper),
		fragment.Select("*").From("users").Node())
	require.NoError(t, err)
	require.Len(t, out, 1)

	u := out[0].(*user)
	defer schema.ReleaseState(u)
	assert.Equal(t, "u-1", u.ID)

	tags, err := mapper.GetAttr(u, "tags")
	require.NoError(t, err)
	assert.Len(t, tags.([]any), 2)
}

func TestFetchTemplate(t *testing.T) {
	db := &fakeDB{columns: []string{"id", "email", "score"}}
	eng := newTestEngine(db)

	tpl := template.Must("SELECT id, email, score FROM users WHERE score > %(min)s")
	var users []user
	require.NoError(t, eng.FetchTemplate(context.Background(), &users, tpl, map[string]any{"min": 10}))
	assert.Equal(t, "SELECT id, email, score FROM users WHERE score > $1", db.queries[0])
	assert.Equal(t, []any{10}, db.args[0])
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected []string
	}{
		{
			"plain",
			"CREATE TABLE a (id int); INSERT INTO a VALUES (1);",
			[]string{"CREATE TABLE a (id int)", "INSERT INTO a VALUES (1)"},
		},
		{
			"semicolon in string",
			"INSERT INTO t VALUES ('a;b'); DELETE FROM t",
			[]string{"INSERT INTO t VALUES ('a;b')", "DELETE FROM t"},
		},
		{
			"escaped quote",
			"INSERT INTO t VALUES ('it''s; fine'); SELECT 1",
			[]string{"INSERT INTO t VALUES ('it''s; fine')", "SELECT 1"},
		},
		{
			"dollar quoted body",
			"CREATE FUNCTION f() RETURNS int AS $body$ SELECT 1; $body$ LANGUAGE sql; SELECT 2",
			[]string{"CREATE FUNCTION f() RETURNS int AS $body$ SELECT 1; $body$ LANGUAGE sql", "SELECT 2"},
		},
		{
			"empty statements dropped",
			";;\n SELECT 1 ;\n",
			[]string{"SELECT 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitStatements(tt.script))
		})
	}
}

func TestExecScript(t *testing.T) {
	db := &fakeDB{}
	eng := newTestEngine(db)

	require.NoError(t, eng.ExecScript(context.Background(),
		"CREATE TABLE a (id int); INSERT INTO a VALUES (1)"))
	assert.Equal(t, []string{"CREATE TABLE a (id int)", "INSERT INTO a VALUES (1)"}, db.queries)
}
