package dialect

type MySQL struct{}

func NewMySQLDialect() Dialect { return MySQL{} }

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + name + "`"
}

func (MySQL) Placeholder(n int) string { return "?" }
