package schema

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces values for columns tagged with generator=.
type IDGenerator interface {
	Generate() (any, error)
	Type() string
}

// UUIDGenerator generates UUID v4 strings.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("schema: uuid generation failed: %w", err)
	}
	return id.String(), nil
}

func (UUIDGenerator) Type() string { return "uuid" }

// ULIDGenerator generates monotonic ULID strings.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return nil, fmt.Errorf("schema: ulid generation failed: %w", err)
	}
	return id.String(), nil
}

func (g *ULIDGenerator) Type() string { return "ulid" }

var generators = map[string]IDGenerator{
	"uuid": UUIDGenerator{},
	"ulid": NewULIDGenerator(),
}

// ApplyGenerators fills generator-tagged attributes that still hold their
// zero value, typically right before building an INSERT.
func (m *Mapper) ApplyGenerators(obj any) error {
	rv, err := instancePtr(obj)
	if err != nil {
		return err
	}
	elem := rv.Elem()
	for _, cm := range m.Columns {
		if cm.Generator == "" || !elem.FieldByIndex(cm.Index).IsZero() {
			continue
		}
		gen, ok := generators[cm.Generator]
		if !ok {
			return &MappingError{Attr: cm.Attr, Err: fmt.Errorf("unknown generator %q", cm.Generator)}
		}
		value, err := gen.Generate()
		if err != nil {
			return err
		}
		if err := cm.directSet(rv.UnsafePointer(), value); err != nil {
			return &MappingError{Attr: cm.Attr, Err: err}
		}
	}
	return nil
}
