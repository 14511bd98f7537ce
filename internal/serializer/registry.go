// Package serializer implements the type-registry / field-table layer
// (§4.5) that maps strongly-typed configuration and settings objects
// to and from a variant.Variant.
//
// Two mechanisms work together: a process-wide Converter registry
// keyed by runtime type (the fallback path for user-extension types,
// per the original design's note that a re-architecture should prefer
// compile-time dispatch — see Field[S, T]), and Field tables, which
// are the primary, generics-based mechanism most callers use.
package serializer

import (
	"reflect"

	"github.com/omnicloud/torrentcore/internal/variant"
)

// Converter is a pair of pure functions translating between a Go value
// of type T and a variant.Variant.
type Converter[T any] struct {
	FromVariant func(*variant.Variant) (T, bool)
	ToVariant   func(T) variant.Variant
}

type registryEntry struct {
	fromVariant func(*variant.Variant) (any, bool)
	toVariant   func(any) variant.Variant
}

var registry = make(map[reflect.Type]registryEntry)

// Register installs conv as the converter for T in the process-wide
// registry, overwriting any previous registration. Built-in converters
// for bool, int64, uint64, float64, and string are registered by this
// package's init(); user types should call Register before first use.
func Register[T any](conv Converter[T]) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	registry[t] = registryEntry{
		fromVariant: func(v *variant.Variant) (any, bool) {
			val, ok := conv.FromVariant(v)
			return val, ok
		},
		toVariant: func(a any) variant.Variant {
			return conv.ToVariant(a.(T))
		},
	}
}

// Lookup returns the registered Converter for T, if any.
func Lookup[T any]() (Converter[T], bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	e, ok := registry[t]
	if !ok {
		return Converter[T]{}, false
	}
	return Converter[T]{
		FromVariant: func(v *variant.Variant) (T, bool) {
			a, ok := e.fromVariant(v)
			if !ok {
				var zero T
				return zero, false
			}
			return a.(T), true
		},
		ToVariant: func(t T) variant.Variant {
			return e.toVariant(t)
		},
	}, true
}

func init() {
	Register(Converter[bool]{
		FromVariant: func(v *variant.Variant) (bool, bool) { return v.ValueIfBool() },
		ToVariant:   func(b bool) variant.Variant { return variant.Bool(b) },
	})
	Register(Converter[int64]{
		FromVariant: func(v *variant.Variant) (int64, bool) { return v.ValueIfInt() },
		ToVariant:   func(i int64) variant.Variant { return variant.Int(i) },
	})
	Register(Converter[uint64]{
		FromVariant: func(v *variant.Variant) (uint64, bool) {
			i, ok := v.ValueIfInt()
			if !ok || i < 0 {
				return 0, false
			}
			return uint64(i), true
		},
		ToVariant: func(u uint64) variant.Variant { return variant.Int(int64(u)) },
	})
	Register(Converter[float64]{
		FromVariant: func(v *variant.Variant) (float64, bool) { return v.ValueIfDouble() },
		ToVariant:   func(f float64) variant.Variant { return variant.Double(f) },
	})
	Register(Converter[string]{
		FromVariant: func(v *variant.Variant) (string, bool) {
			b, ok := v.ValueIfString()
			return string(b), ok
		},
		ToVariant: func(s string) variant.Variant { return variant.String(s) },
	})
}

// OptionalConverter builds a Converter[*T] from a Converter[T]: a None
// variant decodes to a nil pointer, anything else decodes via inner.
func OptionalConverter[T any](inner Converter[T]) Converter[*T] {
	return Converter[*T]{
		FromVariant: func(v *variant.Variant) (*T, bool) {
			if v.IsNone() {
				return nil, true
			}
			val, ok := inner.FromVariant(v)
			if !ok {
				return nil, false
			}
			return &val, true
		},
		ToVariant: func(p *T) variant.Variant {
			if p == nil {
				return variant.None()
			}
			return inner.ToVariant(*p)
		},
	}
}

// SliceConverter builds a Converter[[]T] from a Converter[T], the
// "ordered sequence of T" built-in the spec requires.
func SliceConverter[T any](elem Converter[T]) Converter[[]T] {
	return Converter[[]T]{
		FromVariant: func(v *variant.Variant) ([]T, bool) {
			vec, ok := v.GetIfVector()
			if !ok {
				return nil, false
			}
			out := make([]T, 0, len(*vec))
			for i := range *vec {
				val, ok := elem.FromVariant(&(*vec)[i])
				if !ok {
					return nil, false
				}
				out = append(out, val)
			}
			return out, true
		},
		ToVariant: func(ts []T) variant.Variant {
			out := variant.Vector()
			for _, t := range ts {
				out.PushVariant(elem.ToVariant(t))
			}
			return out
		},
	}
}
