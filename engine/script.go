package engine

import "strings"

// SplitStatements cuts a SQL script into individual statements on
// semicolons, ignoring semicolons inside single-quoted, double-quoted,
// and dollar-quoted text. Empty statements are dropped.
func SplitStatements(script string) []string {
	var out []string
	var sb strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(sb.String())
		if stmt != "" {
			out = append(out, stmt)
		}
		sb.Reset()
	}

	var quote byte
	dollar := ""
	for i := 0; i < len(script); i++ {
		c := script[i]

		switch {
		case dollar != "":
			sb.WriteByte(c)
			if c == '$' && strings.HasSuffix(sb.String(), dollar) {
				dollar = ""
			}
			continue
		case quote != 0:
			sb.WriteByte(c)
			if c == quote {
				// doubled quote escapes itself
				if i+1 < len(script) && script[i+1] == quote {
					sb.WriteByte(script[i+1])
					i++
				} else {
					quote = 0
				}
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
			sb.WriteByte(c)
		case '$':
			if tag, ok := dollarTag(script[i:]); ok {
				dollar = tag
				sb.WriteString(tag)
				i += len(tag) - 1
			} else {
				sb.WriteByte(c)
			}
		case ';':
			flush()
		default:
			sb.WriteByte(c)
		}
	}
	flush()
	return out
}

// dollarTag matches a leading $tag$ delimiter, e.g. "$$" or "$body$".
func dollarTag(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '$' {
			return s[:i+1], true
		}
		if !isTagChar(c) {
			return "", false
		}
	}
	return "", false
}

func isTagChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
