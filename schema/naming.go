package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

var pluralizeClient = pluralizer.NewClient()

// TableNamer lets a model override the derived table name.
type TableNamer interface {
	TableName() string
}

// formatName converts a Go field name to snake_case, keeping acronym runs
// together (UserID -> user_id, HTTPCode -> http_code).
func formatName(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// tableNameFor derives the default table name: pluralized snake_case of
// the struct name.
func tableNameFor(structName string) string {
	return pluralizeClient.Plural(formatName(structName))
}
