package fragment

import (
	"fmt"
	"time"
)

type Kind int

const (
	KindLiteral Kind = iota
	KindParam
	KindPlaceholder
	KindSequence
	KindEnclosed
	KindBinaryExpr
	KindUnaryExpr
	KindColumn
	KindFuncCall
)

// Node is an immutable piece of composable SQL. Combinators always return
// new nodes; a sub-tree can be shared between statements and rendered any
// number of times.
type Node interface {
	Kind() Kind
	Accept(v Visitor) error
	Fingerprint() uint64
}

type Visitor interface {
	VisitLiteral(*Literal) error
	VisitParam(*Param) error
	VisitPlaceholder(*Placeholder) error
	VisitSequence(*Sequence) error
	VisitEnclosed(*Enclosed) error
	VisitBinaryExpr(*BinaryExpr) error
	VisitUnaryExpr(*UnaryExpr) error
	VisitColumn(*Column) error
	VisitFuncCall(*FuncCall) error
}

// UnsupportedTypeError reports a sequence item that is neither a Node nor a
// renderable scalar. It is raised at render time; construction never fails.
type UnsupportedTypeError struct {
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("fragment: unsupported type %T in sql sequence", e.Value)
}

// CoerceItem resolves a raw sequence item to a Node. Strings splice in as
// literal SQL text; value-like scalars become bind parameters. Anything
// else is rejected so the renderer can surface UnsupportedTypeError.
func CoerceItem(item any) (Node, error) {
	switch v := item.(type) {
	case nil:
		return nil, nil
	case Node:
		return v, nil
	case Expr:
		return v.node, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return &Literal{Text: v}, nil
	case bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		[]byte, time.Time:
		return &Param{Value: v}, nil
	case fmt.Stringer:
		return &Literal{Text: v.String()}, nil
	default:
		return nil, &UnsupportedTypeError{Value: item}
	}
}

// coerceValue wraps a comparison/function operand in Param unless it is
// already a fragment. This is the only implicit coercion to Param besides
// CoerceItem's scalar handling.
func coerceValue(v any) Node {
	switch n := v.(type) {
	case Node:
		return n
	case Expr:
		return n.node
	default:
		return &Param{Value: v}
	}
}
