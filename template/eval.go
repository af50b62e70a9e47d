package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Func is an ambient function callable from template expressions.
type Func func(args ...any) (any, error)

// ambientFuncs are available in every template, mirroring the schema value
// generators so templates can mint identifiers inline.
func ambientFuncs() map[string]Func {
	return map[string]Func{
		"uuid": func(args ...any) (any, error) {
			return uuid.NewString(), nil
		},
		"ulid": func(args ...any) (any, error) {
			return ulid.Make().String(), nil
		},
		"now": func(args ...any) (any, error) {
			return time.Now().UTC(), nil
		},
	}
}

// eval interprets a marker expression: a quoted or numeric literal, a
// dotted lookup into bindings, or an ambient function call whose arguments
// are themselves expressions.
func (t *Template) eval(expr string, bindings map[string]any) (any, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}

	if lit, ok, err := literalValue(expr); ok || err != nil {
		return lit, err
	}

	if open := strings.Index(expr, "("); open > 0 && strings.HasSuffix(expr, ")") {
		name := strings.TrimSpace(expr[:open])
		if !isIdent(name) {
			return nil, fmt.Errorf("malformed call %q", expr)
		}
		fn, ok := t.funcs[name]
		if !ok {
			return nil, fmt.Errorf("unknown function %q", name)
		}
		args, err := t.evalArgs(expr[open+1:len(expr)-1], bindings)
		if err != nil {
			return nil, err
		}
		return fn(args...)
	}

	return lookup(expr, bindings)
}

func (t *Template) evalArgs(list string, bindings map[string]any) ([]any, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	raw := splitArgs(list)
	args := make([]any, len(raw))
	for i, a := range raw {
		v, err := t.eval(a, bindings)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// splitArgs splits on top-level commas, respecting quotes and parentheses.
func splitArgs(list string) []string {
	var (
		args  []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			args = append(args, list[start:i])
			start = i + 1
		}
	}
	args = append(args, list[start:])
	return args
}

func literalValue(expr string) (any, bool, error) {
	if len(expr) >= 2 {
		if (expr[0] == '\'' && expr[len(expr)-1] == '\'') ||
			(expr[0] == '"' && expr[len(expr)-1] == '"') {
			return expr[1 : len(expr)-1], true, nil
		}
	}
	c := expr[0]
	if c == '-' || (c >= '0' && c <= '9') {
		if i, err := strconv.ParseInt(expr, 10, 64); err == nil {
			return i, true, nil
		}
		if f, err := strconv.ParseFloat(expr, 64); err == nil {
			return f, true, nil
		}
		return nil, true, fmt.Errorf("malformed number %q", expr)
	}
	switch expr {
	case "true":
		return true, true, nil
	case "false":
		return false, true, nil
	case "nil", "null":
		return nil, true, nil
	}
	return nil, false, nil
}

// lookup resolves a dotted path against bindings, descending through maps
// and exported struct fields.
func lookup(path string, bindings map[string]any) (any, error) {
	segs := strings.Split(path, ".")
	if !isIdent(segs[0]) {
		return nil, fmt.Errorf("malformed expression %q", path)
	}
	current, ok := bindings[segs[0]]
	if !ok {
		return nil, fmt.Errorf("unknown binding %q", segs[0])
	}
	for _, seg := range segs[1:] {
		if !isIdent(seg) {
			return nil, fmt.Errorf("malformed expression %q", path)
		}
		next, err := descend(current, seg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		current = next
	}
	return current, nil
}

func descend(v any, key string) (any, error) {
	if m, ok := v.(map[string]any); ok {
		next, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("missing key %q", key)
		}
		return next, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil value before %q", key)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(key))
		if !mv.IsValid() {
			return nil, fmt.Errorf("missing key %q", key)
		}
		return mv.Interface(), nil
	case reflect.Struct:
		fv := rv.FieldByName(key)
		if !fv.IsValid() || !fv.CanInterface() {
			return nil, fmt.Errorf("missing field %q", key)
		}
		return fv.Interface(), nil
	}
	return nil, fmt.Errorf("cannot descend into %T", v)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
