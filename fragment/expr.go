package fragment

import (
	"strings"

	"github.com/Konsultn-Engineering/morph/utils"
)

// BinaryExpr joins two fragments with an infix operator.
type BinaryExpr struct {
	Left     Node
	Operator string
	Right    Node
}

func (b *BinaryExpr) Kind() Kind             { return KindBinaryExpr }
func (b *BinaryExpr) Accept(v Visitor) error { return v.VisitBinaryExpr(b) }
func (b *BinaryExpr) Fingerprint() uint64 {
	fp := utils.Mix64(b.Left.Fingerprint(), utils.FingerprintString("op:"+b.Operator))
	return utils.Mix64(fp, b.Right.Fingerprint())
}

// UnaryExpr applies a prefix (or postfix) operator to a single operand.
type UnaryExpr struct {
	Operator string
	Operand  Node
	Postfix  bool
}

func (u *UnaryExpr) Kind() Kind             { return KindUnaryExpr }
func (u *UnaryExpr) Accept(v Visitor) error { return v.VisitUnaryExpr(u) }
func (u *UnaryExpr) Fingerprint() uint64 {
	return utils.Mix64(utils.FingerprintString("un:"+u.Operator), u.Operand.Fingerprint())
}

// Expr is the fluent combination surface over nodes. The zero Expr is an
// empty statement; every method returns a new Expr and never mutates the
// receiver's tree.
type Expr struct {
	node Node
}

func E(n Node) Expr { return Expr{node: n} }

// Node returns the underlying tree, which may be nil for an empty Expr.
func (e Expr) Node() Node { return e.node }

func (e Expr) op(operator string, v any) Expr {
	return E(&BinaryExpr{Left: e.node, Operator: operator, Right: coerceValue(v)})
}

func (e Expr) Eq(v any) Expr   { return e.op("=", v) }
func (e Expr) Ne(v any) Expr   { return e.op("!=", v) }
func (e Expr) Gt(v any) Expr   { return e.op(">", v) }
func (e Expr) Ge(v any) Expr   { return e.op(">=", v) }
func (e Expr) Lt(v any) Expr   { return e.op("<", v) }
func (e Expr) Le(v any) Expr   { return e.op("<=", v) }
func (e Expr) Like(v any) Expr { return e.op("LIKE", v) }

// In wraps each value in Param and builds a parenthesized tuple.
func (e Expr) In(values ...any) Expr {
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = coerceValue(v)
	}
	return E(&BinaryExpr{Left: e.node, Operator: "IN", Right: Tuple(items...)})
}

func (e Expr) NotIn(values ...any) Expr {
	in := e.In(values...)
	b := in.node.(*BinaryExpr)
	return E(&BinaryExpr{Left: b.Left, Operator: "NOT IN", Right: b.Right})
}

func (e Expr) And(conds ...any) Expr {
	return E(And(append([]any{e}, conds...)...))
}

func (e Expr) Or(conds ...any) Expr {
	return E(Or(append([]any{e}, conds...)...))
}

func (e Expr) Not() Expr {
	return E(&UnaryExpr{Operator: "NOT", Operand: e.node})
}

func (e Expr) IsNull() Expr {
	return E(&UnaryExpr{Operator: "IS NULL", Operand: e.node, Postfix: true})
}

// Concat appends items to the statement, space separated.
func (e Expr) Concat(items ...any) Expr {
	if e.node == nil {
		return E(Concat(items...))
	}
	if seq, ok := e.node.(*Sequence); ok && seq.Sep == " " {
		return E(seq.append(items...))
	}
	return E(Concat(append([]any{e.node}, items...)...))
}

// KeywordText derives the SQL keyword for a builder method name:
// underscores become spaces and the result is upper-cased, so "order_by"
// yields "ORDER BY".
func KeywordText(name string) string {
	return strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(name, "_", " ")))
}

// Keyword appends the derived keyword followed by args, space separated.
// frag.Keyword("order_by", x) is exactly frag + "ORDER BY" + x.
func (e Expr) Keyword(name string, args ...any) Expr {
	items := make([]any, 0, len(args)+1)
	items = append(items, Lit(KeywordText(name)))
	items = append(items, args...)
	return e.Concat(items...)
}

func (e Expr) Select(args ...any) Expr     { return e.Keyword("select", args...) }
func (e Expr) From(args ...any) Expr       { return e.Keyword("from", args...) }
func (e Expr) Where(args ...any) Expr      { return e.Keyword("where", args...) }
func (e Expr) GroupBy(args ...any) Expr    { return e.Keyword("group_by", args...) }
func (e Expr) Having(args ...any) Expr     { return e.Keyword("having", args...) }
func (e Expr) OrderBy(args ...any) Expr    { return e.Keyword("order_by", args...) }
func (e Expr) Limit(args ...any) Expr      { return e.Keyword("limit", args...) }
func (e Expr) Offset(args ...any) Expr     { return e.Keyword("offset", args...) }
func (e Expr) InsertInto(args ...any) Expr { return e.Keyword("insert_into", args...) }
func (e Expr) Values(args ...any) Expr     { return e.Keyword("values", args...) }
func (e Expr) Update(args ...any) Expr     { return e.Keyword("update", args...) }
func (e Expr) Set(args ...any) Expr        { return e.Keyword("set", args...) }
func (e Expr) DeleteFrom(args ...any) Expr { return e.Keyword("delete_from", args...) }
func (e Expr) Returning(args ...any) Expr  { return e.Keyword("returning", args...) }
func (e Expr) LeftJoin(args ...any) Expr   { return e.Keyword("left_join", args...) }
func (e Expr) On(args ...any) Expr         { return e.Keyword("on", args...) }

// Statement starters.

// Keyword starts a statement with an arbitrary derived keyword, for
// clauses without a named builder.
func Keyword(name string, args ...any) Expr { return Expr{}.Keyword(name, args...) }

func Select(args ...any) Expr     { return Expr{}.Select(args...) }
func InsertInto(args ...any) Expr { return Expr{}.InsertInto(args...) }
func Update(args ...any) Expr     { return Expr{}.Update(args...) }
func DeleteFrom(args ...any) Expr { return Expr{}.DeleteFrom(args...) }
