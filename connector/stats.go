package connector

// Stats is a point-in-time snapshot of a connection pool.
type Stats struct {
	Open    int
	Idle    int
	InUse   int
	MaxOpen int
}
