package connector

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DSNBuilder builds database connection strings.
type DSNBuilder struct {
	scheme   string
	username string
	password string
	host     string
	port     int
	database string
	params   map[string]string
}

func NewDSNBuilder(scheme string) *DSNBuilder {
	return &DSNBuilder{scheme: scheme, params: make(map[string]string)}
}

func (b *DSNBuilder) Auth(username, password string) *DSNBuilder {
	b.username = username
	b.password = password
	return b
}

func (b *DSNBuilder) Host(host string, port int) *DSNBuilder {
	b.host = host
	b.port = port
	return b
}

func (b *DSNBuilder) Database(name string) *DSNBuilder {
	b.database = name
	return b
}

func (b *DSNBuilder) Param(key, value string) *DSNBuilder {
	if value != "" {
		b.params[key] = value
	}
	return b
}

func (b *DSNBuilder) Params(params map[string]string) *DSNBuilder {
	for k, v := range params {
		b.Param(k, v)
	}
	return b
}

func (b *DSNBuilder) Validate() error {
	if b.host == "" {
		return fmt.Errorf("connector: host is required")
	}
	if b.port <= 0 || b.port > 65535 {
		return fmt.Errorf("connector: invalid port %d", b.port)
	}
	return nil
}

func (b *DSNBuilder) Build() (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.scheme)
	sb.WriteString("://")
	if b.username != "" {
		sb.WriteString(url.UserPassword(b.username, b.password).String())
		sb.WriteByte('@')
	}
	sb.WriteString(b.host)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(b.port))
	if b.database != "" {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(b.database))
	}

	if len(b.params) > 0 {
		keys := make([]string, 0, len(b.params))
		for k := range b.params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(b.params[k]))
		}
	}
	return sb.String(), nil
}
