package schema

// Row is an order-preserving column/value record. It is the boundary
// representation for rows crossing into and out of the mapper: cursor
// adapters build Rows in SELECT-list order, and Dehydrate emits columns in
// declaration order followed by unknown attributes in insertion order.
type Row struct {
	keys   []string
	values map[string]any
}

func NewRow() *Row {
	return &Row{values: make(map[string]any, 8)}
}

// RowOf builds a row from alternating key/value pairs, mostly for tests.
func RowOf(pairs ...any) *Row {
	r := NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

// Set stores a value, appending the key on first sight so iteration order
// stays insertion order.
func (r *Row) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r *Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Row) Value(key string) any { return r.values[key] }

func (r *Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns column names in insertion order. Callers must not mutate
// the returned slice.
func (r *Row) Keys() []string { return r.keys }

func (r *Row) Len() int { return len(r.keys) }

// AllNull reports whether every value is nil, the signature of an
// outer-join miss.
func (r *Row) AllNull() bool {
	for _, k := range r.keys {
		if r.values[k] != nil {
			return false
		}
	}
	return true
}

func (r *Row) Clone() *Row {
	out := &Row{
		keys:   append([]string(nil), r.keys...),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}
