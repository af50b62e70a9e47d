package schema

import (
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrate(t *testing.T) {
	m := userMapper(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	u := &User{}
	row := RowOf(
		"id", "u-1",
		"email", "a@example.com",
		"full_name", "Ada Lovelace",
		"score", int64(99),
		"created_at", created,
	)
	require.NoError(t, m.Hydrate(u, row))
	defer ReleaseState(u)

	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, "Ada Lovelace", u.FullName)
	assert.Equal(t, int64(99), u.Score)
	assert.Equal(t, created, u.CreatedAt)

	assert.Equal(t, []string{"ID", "Email", "FullName", "Score", "CreatedAt"}, HydratedAttrs(u))
	assert.Empty(t, DirtyAttrs(u), "hydration resets the dirty set")
}

func TestHydrateNew(t *testing.T) {
	m := userMapper(t)

	obj, err := m.HydrateNew(RowOf("id", "u-2", "email", "b@example.com"))
	require.NoError(t, err)
	defer ReleaseState(obj)

	u, ok := obj.(*User)
	require.True(t, ok)
	assert.Equal(t, "u-2", u.ID)
	assert.Equal(t, "b@example.com", u.Email)
}

func TestHydrateConversion(t *testing.T) {
	m := userMapper(t)

	// Drivers hand back whatever the wire gives them; setters convert.
	u := &User{}
	require.NoError(t, m.Hydrate(u, RowOf("score", int(7))))
	defer ReleaseState(u)
	assert.Equal(t, int64(7), u.Score)

	require.NoError(t, m.Hydrate(u, RowOf("created_at", "2024-05-01T12:00:00Z")))
	assert.Equal(t, 2024, u.CreatedAt.Year())
}

func TestHydrateConversionFailure(t *testing.T) {
	m := userMapper(t)

	u := &User{}
	defer ReleaseState(u)
	err := m.Hydrate(u, RowOf("created_at", "not a timestamp"))

	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "CreatedAt", me.Attr)
}

func TestHydrateUnknownColumns(t *testing.T) {
	m := userMapper(t)

	u := &User{}
	defer ReleaseState(u)
	require.NoError(t, m.Hydrate(u, RowOf("id", "u-3", "rank", 5)))

	assert.Equal(t, []string{"ID", "rank"}, HydratedAttrs(u))
	v, err := m.GetAttr(u, "rank")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestHydrateUnknownColumnsDisabled(t *testing.T) {
	m := userMapper(t, WithoutUnknownColumns())

	u := &User{}
	defer ReleaseState(u)
	require.NoError(t, m.Hydrate(u, RowOf("id", "u-4", "rank", 5)))

	assert.Equal(t, []string{"ID"}, HydratedAttrs(u))
	_, err := m.GetAttr(u, "rank")
	assert.Error(t, err)

	err = m.Set(u, "rank", 6)
	var me *MappingError
	assert.ErrorAs(t, err, &me)
}

func TestHydrateIdempotent(t *testing.T) {
	m := userMapper(t)
	row := RowOf("id", "u-5", "email", "c@example.com")

	u := &User{}
	defer ReleaseState(u)
	require.NoError(t, m.Hydrate(u, row))
	require.NoError(t, m.Hydrate(u, row))

	assert.Equal(t, []string{"ID", "Email"}, HydratedAttrs(u), "re-hydration does not duplicate the record")
}

func TestDehydrateRoundTrip(t *testing.T) {
	m := userMapper(t)

	u := &User{}
	defer ReleaseState(u)
	require.NoError(t, m.Hydrate(u, RowOf(
		"id", "u-6",
		"email", "d@example.com",
		"rank", 5,
		"region", "eu",
	)))

	row, err := m.Dehydrate(u)
	require.NoError(t, err)

	// Mapped columns in declaration order, then unknown attributes in
	// hydration order.
	assert.Equal(t,
		[]string{"id", "email", "full_name", "bio", "avatar_url", "payload", "score", "created_at", "rank", "region"},
		row.Keys())
	assert.Equal(t, "u-6", row.Value("id"))
	assert.Equal(t, 5, row.Value("rank"))
}

func TestDehydrateOptions(t *testing.T) {
	m := userMapper(t)

	u := &User{ID: "u-7", Email: "e@example.com", FullName: "Eve"}
	defer ReleaseState(u)

	row, err := m.Dehydrate(u, WithoutPrimaryKey())
	require.NoError(t, err)
	assert.False(t, row.Has("id"))
	assert.True(t, row.Has("email"))

	row, err = m.Dehydrate(u, Only("Email", "FullName"))
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "full_name"}, row.Keys())

	row, err = m.Dehydrate(u, Except("Email"))
	require.NoError(t, err)
	assert.False(t, row.Has("email"))
	assert.True(t, row.Has("full_name"))
}

func TestDirtyTracking(t *testing.T) {
	m := userMapper(t)

	u := &User{}
	defer ReleaseState(u)
	require.NoError(t, m.Hydrate(u, RowOf("id", "u-8", "email", "f@example.com")))

	require.NoError(t, m.Set(u, "Email", "new@example.com"))
	require.NoError(t, m.Set(u, "FullName", "Frank"))
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, []string{"Email", "FullName"}, DirtyAttrs(u))

	row, err := m.Dehydrate(u, DirtyOnly())
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "full_name"}, row.Keys())

	// Dehydration is a boundary: the dirty set is now empty.
	assert.Empty(t, DirtyAttrs(u))
	row, err = m.Dehydrate(u, DirtyOnly())
	require.NoError(t, err)
	assert.Zero(t, row.Len())
}

func TestMarkDirty(t *testing.T) {
	m := userMapper(t)

	u := &User{ID: "u-9"}
	defer ReleaseState(u)

	// Direct field writes bypass Set; MarkDirty records them after the fact.
	u.Email = "direct@example.com"
	MarkDirty(u, "Email")

	row, err := m.Dehydrate(u, DirtyOnly())
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, row.Keys())
}

func TestReleaseState(t *testing.T) {
	m := userMapper(t)

	u := &User{}
	require.NoError(t, m.Hydrate(u, RowOf("id", "u-10")))
	require.NotEmpty(t, HydratedAttrs(u))

	ReleaseState(u)
	assert.Empty(t, HydratedAttrs(u))
	assert.Empty(t, DirtyAttrs(u))
}

func TestRowOrdering(t *testing.T) {
	r := NewRow()
	r.Set("b", 1)
	r.Set("a", 2)
	r.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, r.Keys(), "re-setting a key keeps its position")
	assert.Equal(t, 3, r.Value("b"))

	clone := r.Clone()
	clone.Set("c", 4)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 3, clone.Len())

	assert.False(t, r.AllNull())
	assert.True(t, RowOf("x", nil, "y", nil).AllNull())
}

func TestStateDroppedOnCollection(t *testing.T) {
	m := userMapper(t)

	// Hydrate an instance without releasing it, then drop the only
	// reference. A later allocation at the same address must not see this
	// record, so collection has to clear it.
	key := func() uintptr {
		u := &User{}
		require.NoError(t, m.Hydrate(u, RowOf("id", "u-11")))
		return reflect.ValueOf(u).Pointer()
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		runtime.GC()
		if _, ok := states.Load(key); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("hydration record survived collection of its instance")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
