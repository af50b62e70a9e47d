package fragment

import (
	"fmt"

	"github.com/Konsultn-Engineering/morph/utils"
)

// Literal is raw SQL text. It is never parameterized.
type Literal struct {
	Text string
}

func Lit(text string) *Literal { return &Literal{Text: text} }

func (l *Literal) Kind() Kind             { return KindLiteral }
func (l *Literal) Accept(v Visitor) error { return v.VisitLiteral(l) }
func (l *Literal) Fingerprint() uint64 {
	return utils.FingerprintString("lit:" + l.Text)
}

// Param is a bound parameter. It renders as a dialect placeholder and its
// value is appended to the argument list in tree order. Name is optional
// and only meaningful to named paramstyles.
type Param struct {
	Value any
	Name  string
}

func NewParam(value any) *Param { return &Param{Value: value} }

func (p *Param) Kind() Kind             { return KindParam }
func (p *Param) Accept(v Visitor) error { return v.VisitParam(p) }
func (p *Param) Fingerprint() uint64 {
	return utils.FingerprintString(fmt.Sprintf("param:%s:%T:%v", p.Name, p.Value, p.Value))
}

// Placeholder is a named bind position with no inline value. The value is
// supplied at execution time by the caller, in the order placeholders were
// rendered.
type Placeholder struct {
	Name string
}

func (p *Placeholder) Kind() Kind             { return KindPlaceholder }
func (p *Placeholder) Accept(v Visitor) error { return v.VisitPlaceholder(p) }
func (p *Placeholder) Fingerprint() uint64 {
	return utils.FingerprintString("ph:" + p.Name)
}
