package visitor

import (
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/morph/cache"
	"github.com/Konsultn-Engineering/morph/dialect"
	"github.com/Konsultn-Engineering/morph/fragment"
)

var visitorPool = sync.Pool{
	New: func() any {
		return &SQLVisitor{
			args:  make([]any, 0, 8),
			names: make([]string, 0, 2),
		}
	},
}

// SQLVisitor walks a fragment tree left to right, producing the statement
// text and the bound arguments in placeholder order. Rendering is pure:
// the same tree always yields the same (sql, args) pair.
type SQLVisitor struct {
	sb      strings.Builder
	args    []any
	names   []string
	binds   int
	dialect dialect.Dialect
	qcache  cache.QueryCache
}

func NewSQLVisitor(d dialect.Dialect, q cache.QueryCache) *SQLVisitor {
	v := visitorPool.Get().(*SQLVisitor)
	if d == nil {
		d = dialect.Default()
	}
	if q == nil {
		q = cache.NopQueryCache{}
	}
	v.dialect = d
	v.qcache = q
	v.reset()
	return v
}

func (v *SQLVisitor) Release() {
	v.dialect = nil
	v.qcache = nil
	v.reset()
	visitorPool.Put(v)
}

func (v *SQLVisitor) reset() {
	v.sb.Reset()
	v.args = v.args[:0]
	v.names = v.names[:0]
	v.binds = 0
}

// ParamNames lists named placeholders in the order their bind positions
// were emitted during the last Build.
func (v *SQLVisitor) ParamNames() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Build renders root. Results are cached by tree fingerprint; a cached
// entry returns the exact text and argument sequence of the first render.
func (v *SQLVisitor) Build(root fragment.Node) (string, []any, error) {
	fp := root.Fingerprint()
	if cached, ok := v.qcache.Get(fp); ok && cached != nil {
		v.names = append(v.names[:0], cached.ParamNames...)
		return cached.SQL, copyArgs(cached.Args), nil
	}

	v.reset()
	if err := root.Accept(v); err != nil {
		return "", nil, err
	}

	sql := v.sb.String()
	v.qcache.Set(fp, &cache.CachedQuery{
		SQL:        sql,
		Args:       copyArgs(v.args),
		ParamNames: v.ParamNames(),
	})
	// Callers get their own slice; the cached one must stay pristine.
	return sql, copyArgs(v.args), nil
}

func copyArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	return out
}

// Render is the cache-free entry point for one-off statements.
func Render(root fragment.Node, d dialect.Dialect) (string, []any, error) {
	v := NewSQLVisitor(d, cache.NopQueryCache{})
	defer v.Release()
	return v.Build(root)
}

func (v *SQLVisitor) VisitLiteral(l *fragment.Literal) error {
	v.sb.WriteString(l.Text)
	return nil
}

func (v *SQLVisitor) VisitParam(p *fragment.Param) error {
	v.binds++
	v.sb.WriteString(v.dialect.Placeholder(v.binds))
	v.args = append(v.args, p.Value)
	return nil
}

func (v *SQLVisitor) VisitPlaceholder(p *fragment.Placeholder) error {
	v.binds++
	v.sb.WriteString(v.dialect.Placeholder(v.binds))
	v.names = append(v.names, p.Name)
	return nil
}

func (v *SQLVisitor) VisitSequence(s *fragment.Sequence) error {
	first := true
	for _, item := range s.Items {
		node, err := fragment.CoerceItem(item)
		if err != nil {
			return err
		}
		if node == nil || rendersEmpty(node) {
			continue
		}
		if !first {
			v.sb.WriteString(s.Sep)
		}
		first = false
		if err := node.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitEnclosed(e *fragment.Enclosed) error {
	v.sb.WriteString(e.Open)
	if e.Inner != nil {
		if err := e.Inner.Accept(v); err != nil {
			return err
		}
	}
	v.sb.WriteString(e.Close)
	return nil
}

func (v *SQLVisitor) VisitBinaryExpr(b *fragment.BinaryExpr) error {
	if b.Left != nil {
		if err := b.Left.Accept(v); err != nil {
			return err
		}
		v.sb.WriteByte(' ')
	}
	v.sb.WriteString(b.Operator)
	v.sb.WriteByte(' ')
	return b.Right.Accept(v)
}

func (v *SQLVisitor) VisitUnaryExpr(u *fragment.UnaryExpr) error {
	if u.Postfix {
		if err := u.Operand.Accept(v); err != nil {
			return err
		}
		v.sb.WriteByte(' ')
		v.sb.WriteString(u.Operator)
		return nil
	}
	v.sb.WriteString(u.Operator)
	v.sb.WriteByte(' ')
	return u.Operand.Accept(v)
}

func (v *SQLVisitor) VisitColumn(c *fragment.Column) error {
	if c.Name == "*" {
		if c.Table != "" {
			v.sb.WriteString(v.dialect.QuoteIdentifier(c.Table))
			v.sb.WriteByte('.')
		}
		v.sb.WriteByte('*')
		return nil
	}
	if c.Table != "" {
		v.sb.WriteString(v.dialect.QuoteIdentifier(c.Table))
		v.sb.WriteByte('.')
	}
	v.sb.WriteString(v.dialect.QuoteIdentifier(c.Name))

	alias := c.Alias
	if c.Prefix != "" {
		if alias == "" {
			alias = c.Name
		}
		alias = c.Prefix + alias
	}
	if alias != "" && alias != c.Name {
		v.sb.WriteString(" AS ")
		v.sb.WriteString(v.dialect.QuoteIdentifier(alias))
	}
	return nil
}

func (v *SQLVisitor) VisitFuncCall(f *fragment.FuncCall) error {
	v.sb.WriteString(f.Name)
	v.sb.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := arg.Accept(v); err != nil {
			return err
		}
	}
	v.sb.WriteByte(')')
	return nil
}

// rendersEmpty reports a node that contributes no text, so it must not
// trigger a separator. Sequences are checked recursively; coercion errors
// are left for Accept to surface.
func rendersEmpty(n fragment.Node) bool {
	switch v := n.(type) {
	case *fragment.Literal:
		return v.Text == ""
	case *fragment.Sequence:
		for _, item := range v.Items {
			node, err := fragment.CoerceItem(item)
			if err != nil {
				return false
			}
			if node != nil && !rendersEmpty(node) {
				return false
			}
		}
		return true
	}
	return false
}

var _ fragment.Visitor = (*SQLVisitor)(nil)
