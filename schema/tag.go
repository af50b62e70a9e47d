package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ParsedTag is the mapping configuration parsed from a `db` struct tag.
//
//	db:"-"                          skip the field
//	db:"col_name"                   explicit column name
//	db:"id,pk"                      primary key member
//	db:"body,lazy"                  lazy column
//	db:"bio,lazy=profile"           lazy column in the named group
//	db:"created_at,default=now()"   SQL-side default expression
//	db:"id,pk,generator=uuid"       value generator applied on insert
type ParsedTag struct {
	ColumnName string
	Skip       bool
	Primary    bool
	Lazy       bool
	LazyGroup  string
	Default    string
	Generator  string
}

// TagParser parses db tags with a per-(field,tag) cache so repeated
// mapper builds of the same type do no string work.
type TagParser struct {
	cache sync.Map // string -> *ParsedTag
}

func NewTagParser() *TagParser { return &TagParser{} }

func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	raw := tag.Get("db")
	cacheKey := fieldName + "\x00" + raw

	if cached, ok := p.cache.Load(cacheKey); ok {
		return cached.(*ParsedTag), nil
	}

	parsed, err := parseTagValue(fieldName, raw)
	if err != nil {
		return nil, err
	}
	p.cache.Store(cacheKey, parsed)
	return parsed, nil
}

func parseTagValue(fieldName, raw string) (*ParsedTag, error) {
	parsed := &ParsedTag{}
	if raw == "-" {
		parsed.Skip = true
		return parsed, nil
	}

	parts := strings.Split(raw, ",")
	if raw != "" && parts[0] != "" {
		parsed.ColumnName = parts[0]
	} else {
		parsed.ColumnName = formatName(fieldName)
	}

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		key, value, hasValue := strings.Cut(opt, "=")
		switch key {
		case "":
		case "pk", "primary":
			parsed.Primary = true
		case "lazy":
			parsed.Lazy = true
			parsed.LazyGroup = value
		case "default":
			if !hasValue {
				return nil, fmt.Errorf("schema: field %s: default option requires a value", fieldName)
			}
			parsed.Default = value
		case "generator":
			if value != "uuid" && value != "ulid" {
				return nil, fmt.Errorf("schema: field %s: unknown generator %q", fieldName, value)
			}
			parsed.Generator = value
		default:
			return nil, fmt.Errorf("schema: field %s: unknown tag option %q", fieldName, opt)
		}
	}
	return parsed, nil
}
