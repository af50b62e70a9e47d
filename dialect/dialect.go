package dialect

// Dialect supplies the driver-facing pieces of statement rendering: how
// identifiers are quoted and what a bind placeholder looks like. The
// renderer never selects a dialect itself; callers pass one in.
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	// Placeholder returns the bind token for the n-th parameter (1-based).
	// Positional styles ignore n and return a fixed token.
	Placeholder(n int) string
}

// Default is the paramstyle used when no dialect is supplied: a fixed "?"
// token repeated for every parameter.
func Default() Dialect { return Generic{} }

// Generic quotes with double quotes and binds with "?".
type Generic struct{}

func (Generic) Name() string { return "generic" }

func (Generic) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (Generic) Placeholder(n int) string { return "?" }
