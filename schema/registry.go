package schema

import (
	"reflect"
	"sync"
)

// Registry resolves struct types to their mappers. It is an explicit
// object handed to whatever needs type resolution rather than ambient
// package state. Registration is expected at startup; afterwards the
// registry is effectively append-only and safe for concurrent reads.
type Registry struct {
	mu      sync.RWMutex
	mappers map[reflect.Type]*Mapper
}

func NewRegistry() *Registry {
	return &Registry{mappers: make(map[reflect.Type]*Mapper, 16)}
}

// Register builds (or rebuilds) the mapper for model's type with options.
func (r *Registry) Register(model any, opts ...MapperOption) (*Mapper, error) {
	t := typeOf(model)
	m, err := BuildMapper(t, opts...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.mappers[t] = m
	r.mu.Unlock()
	return m, nil
}

// MapperOf resolves the mapper for model's type, building one on demand
// from its field tags.
func (r *Registry) MapperOf(model any) (*Mapper, error) {
	t := typeOf(model)

	r.mu.RLock()
	m, ok := r.mappers[t]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	m, err := BuildMapper(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.mappers[t]; ok {
		return existing, nil
	}
	r.mappers[t] = m
	return m, nil
}

func typeOf(model any) reflect.Type {
	if t, ok := model.(reflect.Type); ok {
		if t.Kind() == reflect.Ptr {
			return t.Elem()
		}
		return t
	}
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
