// Package template renders parameterized SQL from strings with two marker
// syntaxes: {expr} splices the evaluated expression as raw SQL text, and
// %(expr)s splices it as a bind parameter. Rendering produces a fragment
// tree; nothing is sent to a database here.
package template

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/morph/fragment"
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenInline
	tokenParam
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// ParseError reports an unterminated marker.
type ParseError struct {
	Pos int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template: marker opened at position %d is not closed", e.Pos)
}

// EvalError reports a marker whose expression could not be evaluated.
type EvalError struct {
	Marker string
	Pos    int
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("template: cannot evaluate %q at position %d: %v", e.Marker, e.Pos, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Template is a parsed statement template. Parsing happens once; Render
// may be called repeatedly with different bindings.
type Template struct {
	raw    string
	tokens []token
	funcs  map[string]Func
}

// Parse scans text into literal, inline and parameter tokens. Inline
// bodies tolerate one nested level of braces; running past the end of the
// input inside a marker is a parse error.
func Parse(text string) (*Template, error) {
	t := &Template{raw: text, funcs: ambientFuncs()}
	var (
		sql     strings.Builder
		code    strings.Builder
		inBlock tokenKind
		open    bool
		openPos int
		nested  int
	)

	flushText := func() {
		if sql.Len() > 0 {
			t.tokens = append(t.tokens, token{kind: tokenText, text: sql.String()})
			sql.Reset()
		}
	}

	i := 0
	for i < len(text) {
		switch {
		case !open && strings.HasPrefix(text[i:], "{"):
			flushText()
			open, inBlock, openPos, nested = true, tokenInline, i, 0
			code.Reset()
			i++
		case !open && strings.HasPrefix(text[i:], "%("):
			flushText()
			open, inBlock, openPos = true, tokenParam, i
			code.Reset()
			i += 2
		case open && inBlock == tokenInline && text[i] == '{':
			nested++
			code.WriteByte('{')
			i++
		case open && inBlock == tokenInline && text[i] == '}':
			if nested > 0 {
				nested--
				code.WriteByte('}')
				i++
				break
			}
			t.tokens = append(t.tokens, token{kind: tokenInline, text: code.String(), pos: openPos})
			open = false
			i++
		case open && inBlock == tokenParam && strings.HasPrefix(text[i:], ")s"):
			t.tokens = append(t.tokens, token{kind: tokenParam, text: code.String(), pos: openPos})
			open = false
			i += 2
		case open:
			code.WriteByte(text[i])
			i++
		default:
			sql.WriteByte(text[i])
			i++
		}
	}
	if open {
		return nil, &ParseError{Pos: openPos}
	}
	flushText()
	return t, nil
}

// Must parses text and panics on error, for package-level template vars.
func Must(text string) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// WithFuncs returns a copy of the template with extra ambient functions
// available to inline expressions.
func (t *Template) WithFuncs(funcs map[string]Func) *Template {
	merged := make(map[string]Func, len(t.funcs)+len(funcs))
	for k, v := range t.funcs {
		merged[k] = v
	}
	for k, v := range funcs {
		merged[k] = v
	}
	return &Template{raw: t.raw, tokens: t.tokens, funcs: merged}
}

func (t *Template) String() string { return t.raw }

// Render evaluates markers against bindings and returns the fragment tree.
// Text chunks are stripped and joined with single spaces, matching plain
// Concat composition.
func (t *Template) Render(bindings map[string]any) (fragment.Node, error) {
	parts := make([]any, 0, len(t.tokens))
	for _, tok := range t.tokens {
		switch tok.kind {
		case tokenText:
			parts = append(parts, strings.TrimSpace(tok.text))
		case tokenParam:
			value, err := t.eval(tok.text, bindings)
			if err != nil {
				return nil, &EvalError{Marker: "%(" + tok.text + ")s", Pos: tok.pos, Err: err}
			}
			parts = append(parts, &fragment.Param{Value: value, Name: paramName(tok.text)})
		case tokenInline:
			nodes, err := t.renderInline(tok, bindings)
			if err != nil {
				return nil, err
			}
			parts = append(parts, nodes...)
		}
	}
	return fragment.Concat(parts...), nil
}

// renderInline handles an inline body. A body holding %(..)s sub-markers is
// a one-level mini grammar: the surrounding body text splices verbatim and
// each sub-marker becomes a Param. Otherwise the body is one expression.
func (t *Template) renderInline(tok token, bindings map[string]any) ([]any, error) {
	if !strings.Contains(tok.text, "%(") {
		value, err := t.eval(tok.text, bindings)
		if err != nil {
			return nil, &EvalError{Marker: "{" + tok.text + "}", Pos: tok.pos, Err: err}
		}
		return []any{splice(value)}, nil
	}

	var parts []any
	rest := tok.text
	for {
		start := strings.Index(rest, "%(")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start:], ")s")
		if end < 0 {
			return nil, &EvalError{Marker: "{" + tok.text + "}", Pos: tok.pos,
				Err: fmt.Errorf("nested parameter marker is not closed")}
		}
		if text := strings.TrimSpace(rest[:start]); text != "" {
			parts = append(parts, text)
		}
		expr := rest[start+2 : start+end]
		value, err := t.eval(expr, bindings)
		if err != nil {
			return nil, &EvalError{Marker: "%(" + expr + ")s", Pos: tok.pos, Err: err}
		}
		parts = append(parts, &fragment.Param{Value: value, Name: paramName(expr)})
		rest = rest[start+end+2:]
	}
	if text := strings.TrimSpace(rest); text != "" {
		parts = append(parts, text)
	}
	return parts, nil
}

// splice turns an inline evaluation result into a sequence item. Fragments
// pass through; everything else becomes raw SQL text.
func splice(value any) any {
	switch v := value.(type) {
	case fragment.Node:
		return v
	case fragment.Expr:
		return v.Node()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// paramName keeps simple identifiers as the parameter name so named
// paramstyles stay readable; complex expressions go unnamed.
func paramName(expr string) string {
	expr = strings.TrimSpace(expr)
	if isIdent(expr) {
		return expr
	}
	return ""
}
