package fragment

import (
	"fmt"
	"hash/fnv"

	"github.com/Konsultn-Engineering/morph/utils"
)

// Sequence is an ordered list of items joined by a separator. Items are
// held as any; CoerceItem resolves them during rendering, so an empty
// sequence renders as empty text and a bad item fails only at render time.
type Sequence struct {
	Items []any
	Sep   string
}

func Seq(sep string, items ...any) *Sequence {
	return &Sequence{Items: items, Sep: sep}
}

// Concat joins items with single spaces, the default composition rule.
func Concat(items ...any) *Sequence {
	return &Sequence{Items: items, Sep: " "}
}

// List joins items with ", ", as in SELECT column lists and SET clauses.
func List(items ...any) *Sequence {
	return &Sequence{Items: items, Sep: ", "}
}

func (s *Sequence) Kind() Kind             { return KindSequence }
func (s *Sequence) Accept(v Visitor) error { return v.VisitSequence(s) }

func (s *Sequence) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("seq:" + s.Sep))
	for _, item := range s.Items {
		switch v := item.(type) {
		case Node:
			h.Write(utils.U64ToBytes(v.Fingerprint()))
		case Expr:
			if v.node != nil {
				h.Write(utils.U64ToBytes(v.node.Fingerprint()))
			}
		default:
			// Raw items hash with their Go type: "5" splices as literal
			// text while 5 binds as a parameter, so they must never
			// share a fingerprint.
			h.Write(utils.U64ToBytes(utils.FingerprintString(fmt.Sprintf("raw:%T:%v", item, item))))
		}
	}
	return h.Sum64()
}

// append returns a copy with extra items; the receiver is left untouched.
func (s *Sequence) append(items ...any) *Sequence {
	merged := make([]any, 0, len(s.Items)+len(items))
	merged = append(merged, s.Items...)
	merged = append(merged, items...)
	return &Sequence{Items: merged, Sep: s.Sep}
}

// Enclosed wraps an inner node in delimiters, usually parentheses.
type Enclosed struct {
	Inner Node
	Open  string
	Close string
}

func Parens(inner Node) *Enclosed {
	return &Enclosed{Inner: inner, Open: "(", Close: ")"}
}

func (e *Enclosed) Kind() Kind             { return KindEnclosed }
func (e *Enclosed) Accept(v Visitor) error { return v.VisitEnclosed(e) }
func (e *Enclosed) Fingerprint() uint64 {
	inner := uint64(0)
	if e.Inner != nil {
		inner = e.Inner.Fingerprint()
	}
	return utils.Mix64(utils.FingerprintString("enc:"+e.Open+e.Close), inner)
}

// And combines conditions into a single parenthesized AND list. Operands
// that already are AND lists are merged rather than nested, so chained
// combination stays one flat list.
func And(conds ...any) *Enclosed { return boolList(" AND ", conds) }

// Or is And's OR counterpart, with the same flattening rule.
func Or(conds ...any) *Enclosed { return boolList(" OR ", conds) }

// Tuple renders as a parenthesized comma list, e.g. IN right-hand sides
// and INSERT column/value lists.
func Tuple(items ...any) *Enclosed {
	return Parens(&Sequence{Items: items, Sep: ", "})
}

func boolList(sep string, conds []any) *Enclosed {
	items := make([]any, 0, len(conds))
	for _, c := range conds {
		if flat, ok := sameBoolList(c, sep); ok {
			items = append(items, flat.Items...)
			continue
		}
		items = append(items, c)
	}
	return Parens(&Sequence{Items: items, Sep: sep})
}

// sameBoolList reports whether c is an Enclosed(Sequence) built with the
// same boolean separator, i.e. a candidate for one-level flattening.
func sameBoolList(c any, sep string) (*Sequence, bool) {
	var n Node
	switch v := c.(type) {
	case Expr:
		n = v.node
	case Node:
		n = v
	default:
		return nil, false
	}
	enc, ok := n.(*Enclosed)
	if !ok || enc.Open != "(" || enc.Close != ")" {
		return nil, false
	}
	seq, ok := enc.Inner.(*Sequence)
	if !ok || seq.Sep != sep {
		return nil, false
	}
	return seq, true
}
