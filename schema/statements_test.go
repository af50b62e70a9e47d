package schema

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/morph/fragment"
	"github.com/Konsultn-Engineering/morph/visitor"
)

type membership struct {
	UserID  string `db:"user_id,pk"`
	GroupID string `db:"group_id,pk"`
	Role    string
}

func renderStmt(t *testing.T, e fragment.Expr) (string, []any) {
	t.Helper()
	sql, args, err := visitor.Render(e.Node(), nil)
	require.NoError(t, err)
	return sql, args
}

func TestSelectFrom(t *testing.T) {
	m := userMapper(t)

	sql, _ := renderStmt(t, m.SelectFrom())
	assert.Equal(t, `SELECT "id", "email", "full_name", "score", "created_at" FROM users`, sql)

	sql, _ = renderStmt(t, m.SelectFrom("profile"))
	assert.Equal(t, `SELECT "id", "email", "full_name", "bio", "avatar_url", "score", "created_at" FROM users`, sql)

	sql, args := renderStmt(t, m.SelectFrom().Where(m.Get("Email").Col().Eq("a@example.com")))
	assert.Equal(t, `SELECT "id", "email", "full_name", "score", "created_at" FROM users WHERE "email" = ?`, sql)
	assert.Equal(t, []any{"a@example.com"}, args)
}

func TestSelectByPK(t *testing.T) {
	m := userMapper(t)

	stmt, err := m.SelectByPK("u-1")
	require.NoError(t, err)
	sql, args := renderStmt(t, stmt)
	assert.Equal(t, `SELECT "id", "email", "full_name", "score", "created_at" FROM users WHERE "id" = ?`, sql)
	assert.Equal(t, []any{"u-1"}, args)
}

func TestCompositePrimaryKey(t *testing.T) {
	r := NewRegistry()
	m, err := r.MapperOf(membership{})
	require.NoError(t, err)

	mem := &membership{UserID: "u-1", GroupID: "g-1", Role: "admin"}
	pk, err := m.GetPrimaryKey(mem)
	require.NoError(t, err)
	assert.Equal(t, []any{"u-1", "g-1"}, pk)

	cond, err := m.PrimaryKeyCondition(pk)
	require.NoError(t, err)
	sql, args := renderStmt(t, cond)
	assert.Equal(t, `("user_id" = ? AND "group_id" = ?)`, sql)
	assert.Equal(t, []any{"u-1", "g-1"}, args)

	_, err = m.PrimaryKeyCondition("just-one")
	assert.Error(t, err, "a composite key needs all member values")
}

func TestInsert(t *testing.T) {
	m := userMapper(t)

	u := &User{Email: "a@example.com", FullName: "Ada"}
	stmt, err := m.Insert(u)
	require.NoError(t, err)

	sql, args := renderStmt(t, stmt)
	assert.Equal(t,
		`INSERT INTO users ("id", "email", "full_name", "bio", "avatar_url", "payload", "score", "created_at") VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sql)
	require.Len(t, args, 8)

	// The generator filled the key before dehydration.
	_, err = uuid.Parse(args[0].(string))
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", args[1])
}

func TestInsertRowDefaults(t *testing.T) {
	sql, args := renderStmt(t, InsertRow("events", NewRow()))
	assert.Equal(t, "INSERT INTO events DEFAULT VALUES", sql)
	assert.Empty(t, args)
}

func TestUpdateDirtyOnly(t *testing.T) {
	m := userMapper(t)

	u := &User{}
	defer ReleaseState(u)
	require.NoError(t, m.Hydrate(u, RowOf("id", "u-1", "email", "a@example.com", "full_name", "Ada")))

	_, err := m.Update(u)
	assert.ErrorIs(t, err, ErrNoChanges, "an unchanged object has nothing to write")

	require.NoError(t, m.Set(u, "Email", "new@example.com"))
	stmt, err := m.Update(u)
	require.NoError(t, err)

	sql, args := renderStmt(t, stmt)
	assert.Equal(t, `UPDATE users SET "email" = ? WHERE "id" = ?`, sql)
	assert.Equal(t, []any{"new@example.com", "u-1"}, args)
}

func TestUpdateWithoutDirtyTracking(t *testing.T) {
	m := userMapper(t, WithoutDirtyTracking())

	u := &User{ID: "u-1", Email: "a@example.com", FullName: "Ada"}
	stmt, err := m.Update(u)
	require.NoError(t, err)

	sql, args := renderStmt(t, stmt)
	assert.Equal(t,
		`UPDATE users SET "email" = ?, "full_name" = ?, "bio" = ?, "avatar_url" = ?, "payload" = ?, "score" = ?, "created_at" = ? WHERE "id" = ?`,
		sql)
	assert.Equal(t, "a@example.com", args[0])
	assert.Equal(t, "u-1", args[len(args)-1])
}

func TestDelete(t *testing.T) {
	m := userMapper(t)

	u := &User{ID: "u-1"}
	stmt, err := m.Delete(u)
	require.NoError(t, err)

	sql, args := renderStmt(t, stmt)
	assert.Equal(t, `DELETE FROM users WHERE "id" = ?`, sql)
	assert.Equal(t, []any{"u-1"}, args)
}

func TestMissingPrimaryKey(t *testing.T) {
	type note struct {
		Body string
	}
	m, err := BuildMapper(typeOf(note{}))
	require.NoError(t, err)

	_, err = m.Delete(&note{Body: "x"})
	assert.Error(t, err)
}

func TestPrefixedSelectColumns(t *testing.T) {
	m := userMapper(t)

	cols := m.PrefixedSelectColumns("author")
	sql, _, err := visitor.Render(cols.Node(), nil)
	require.NoError(t, err)
	assert.Equal(t,
		`"users"."id" AS "author__id", "users"."email" AS "author__email", "users"."full_name" AS "author__full_name", "users"."score" AS "author__score", "users"."created_at" AS "author__created_at"`,
		sql)
}
