package fragment

import (
	"hash/fnv"
	"strings"

	"github.com/Konsultn-Engineering/morph/utils"
)

// FuncCall is an SQL function invocation. Arguments were already coerced
// to nodes by Func.
type FuncCall struct {
	Name string
	Args []Node
}

func (f *FuncCall) Kind() Kind             { return KindFuncCall }
func (f *FuncCall) Accept(v Visitor) error { return v.VisitFuncCall(f) }
func (f *FuncCall) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("func:" + f.Name))
	for _, arg := range f.Args {
		h.Write(utils.U64ToBytes(arg.Fingerprint()))
	}
	return h.Sum64()
}

// Func builds a function call, upper-casing the name. Every argument that
// is not already a fragment is wrapped in Param; this mirrors the coercion
// rule of the comparison builders.
func Func(name string, args ...any) Expr {
	nodes := make([]Node, len(args))
	for i, a := range args {
		nodes[i] = coerceValue(a)
	}
	return E(&FuncCall{Name: strings.ToUpper(name), Args: nodes})
}

// Count is the one function common enough to deserve a shortcut.
func Count(arg any) Expr {
	if arg == nil {
		return Func("count", Lit("*"))
	}
	return Func("count", arg)
}
