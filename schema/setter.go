package schema

import (
	"reflect"
	"sync"
	"time"
	"unsafe"
)

// SetterFunc writes a driver value directly into a struct field through an
// unsafe offset, bypassing any accessor logic on the model.
type SetterFunc func(structPtr unsafe.Pointer, value any) error

var setterCreators = sync.Map{} // reflect.Type -> func(uintptr) SetterFunc

func registerSetter[T any](convert func(any) (T, error)) {
	var zero T
	zeroType := reflect.TypeOf(zero)

	setterCreators.Store(zeroType, func(offset uintptr) SetterFunc {
		return func(structPtr unsafe.Pointer, value any) error {
			fieldPtr := (*T)(unsafe.Add(structPtr, offset))
			if value == nil {
				*fieldPtr = zero
				return nil
			}
			if typed, ok := value.(T); ok {
				*fieldPtr = typed
				return nil
			}
			converted, err := convert(value)
			if err != nil {
				return err
			}
			*fieldPtr = converted
			return nil
		}
	})
}

func init() {
	registerSetter[string](toString)
	registerSetter[bool](toBool)
	registerSetter[int64](toInt64)
	registerSetter[int32](func(v any) (int32, error) { n, err := toInt64(v); return int32(n), err })
	registerSetter[int16](func(v any) (int16, error) { n, err := toInt64(v); return int16(n), err })
	registerSetter[int](func(v any) (int, error) { n, err := toInt64(v); return int(n), err })
	registerSetter[uint64](toUint64)
	registerSetter[uint32](func(v any) (uint32, error) { n, err := toUint64(v); return uint32(n), err })
	registerSetter[uint](func(v any) (uint, error) { n, err := toUint64(v); return uint(n), err })
	registerSetter[float64](toFloat64)
	registerSetter[float32](func(v any) (float32, error) { n, err := toFloat64(v); return float32(n), err })
	registerSetter[time.Time](toTime)
	registerSetter[[]byte](toBytes)
	registerSetter[*string](func(v any) (*string, error) { s, err := toString(v); return &s, err })
	registerSetter[*time.Time](func(v any) (*time.Time, error) { t, err := toTime(v); return &t, err })
	registerSetter[*int64](func(v any) (*int64, error) { n, err := toInt64(v); return &n, err })
}

// createDirectSetter compiles a setter for the field type at the given
// offset, falling back to reflection for unregistered types.
func createDirectSetter(fieldType reflect.Type, offset uintptr) SetterFunc {
	if creator, ok := setterCreators.Load(fieldType); ok {
		return creator.(func(uintptr) SetterFunc)(offset)
	}

	return func(structPtr unsafe.Pointer, value any) error {
		target := reflect.NewAt(fieldType, unsafe.Add(structPtr, offset)).Elem()
		if value == nil {
			target.Set(reflect.Zero(fieldType))
			return nil
		}
		converted, err := convertReflect(fieldType, value)
		if err != nil {
			return err
		}
		target.Set(converted)
		return nil
	}
}
