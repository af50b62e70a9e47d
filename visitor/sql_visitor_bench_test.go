package visitor

import (
	"testing"

	"github.com/Konsultn-Engineering/morph/cache"
	"github.com/Konsultn-Engineering/morph/dialect"
	"github.com/Konsultn-Engineering/morph/fragment"
)

func benchStatement() fragment.Node {
	return fragment.Select(fragment.Cols("id", "email", "full_name", "created_at").Node()).
		From("users").
		Where(fragment.And(
			fragment.Col("active").Eq(true),
			fragment.Col("score").Gt(10),
			fragment.Col("region").In("eu", "us"),
		)).
		OrderBy(fragment.Col("created_at")).
		Limit(50).Node()
}

func BenchmarkRenderUncached(b *testing.B) {
	stmt := benchStatement()
	d := dialect.Postgres{}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v := NewSQLVisitor(d, cache.NopQueryCache{})
		if _, _, err := v.Build(stmt); err != nil {
			b.Fatal(err)
		}
		v.Release()
	}
}

func BenchmarkRenderCached(b *testing.B) {
	stmt := benchStatement()
	d := dialect.Postgres{}
	q := cache.NewQueryCache()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v := NewSQLVisitor(d, q)
		if _, _, err := v.Build(stmt); err != nil {
			b.Fatal(err)
		}
		v.Release()
	}
}
