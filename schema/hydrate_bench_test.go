package schema

import (
	"reflect"
	"testing"
)

func BenchmarkHydrate(b *testing.B) {
	m, err := BuildMapper(reflect.TypeOf(User{}))
	if err != nil {
		b.Fatal(err)
	}
	row := RowOf(
		"id", "u-1",
		"email", "a@example.com",
		"full_name", "Ada Lovelace",
		"score", int64(99),
	)

	u := &User{}
	defer ReleaseState(u)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := m.Hydrate(u, row); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDehydrate(b *testing.B) {
	m, err := BuildMapper(reflect.TypeOf(User{}))
	if err != nil {
		b.Fatal(err)
	}
	u := &User{ID: "u-1", Email: "a@example.com", FullName: "Ada", Score: 99}
	defer ReleaseState(u)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := m.Dehydrate(u); err != nil {
			b.Fatal(err)
		}
	}
}
