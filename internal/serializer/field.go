package serializer

import (
	"math"

	"github.com/omnicloud/torrentcore/internal/quark"
	"github.com/omnicloud/torrentcore/internal/variant"
)

// FieldDef is the untyped face of a Field[S, T], letting callers hold
// a table of heterogeneous fields over the same struct type S.
type FieldDef[S any] interface {
	Key() quark.Quark
	SaveInto(s *S, m *variant.Variant)
	LoadFrom(s *S, m *variant.Variant) bool
}

// Field binds one struct field of S (of type T) to a variant map key
// via a Converter[T]. Fields are the normal way to describe a
// serializable struct; the type-registry in registry.go exists only
// as a fallback for code that cannot name T at compile time.
type Field[S any, T any] struct {
	key       quark.Quark
	get       func(*S) T
	set       func(*S, T)
	converter Converter[T]
}

// NewField declares a field named key, read via get and written via
// set, converted to/from a variant using conv.
func NewField[S any, T any](key quark.Quark, get func(*S) T, set func(*S, T), conv Converter[T]) *Field[S, T] {
	return &Field[S, T]{key: key, get: get, set: set, converter: conv}
}

func (f *Field[S, T]) Key() quark.Quark { return f.key }

func (f *Field[S, T]) SaveInto(s *S, m *variant.Variant) {
	m.InsertOrAssign(f.key, f.converter.ToVariant(f.get(s)))
}

// LoadFrom reads f's key out of m into s, leaving s untouched and
// returning false when the key is absent or the stored value does not
// convert to T — Load is forgiving of unknown or mistyped keys rather
// than failing the whole struct.
func (f *Field[S, T]) LoadFrom(s *S, m *variant.Variant) bool {
	found, ok := m.Find(f.key)
	if !ok {
		return false
	}
	val, ok := f.converter.FromVariant(found)
	if !ok {
		return false
	}
	f.set(s, val)
	return true
}

// Get returns the field's current value on s.
func (f *Field[S, T]) Get(s *S) T { return f.get(s) }

// Save writes every field in fields into a freshly built map variant.
func Save[S any](s *S, fields []FieldDef[S]) variant.Variant {
	m := variant.Map()
	for _, f := range fields {
		f.SaveInto(s, &m)
	}
	return m
}

// Load reads every field present in v into s. Missing or mistyped keys
// are skipped, leaving the corresponding struct field at whatever
// value it already held.
func Load[S any](s *S, fields []FieldDef[S], v *variant.Variant) {
	for _, f := range fields {
		f.LoadFrom(s, v)
	}
}

// relativeEpsilon bounds the "changed" comparison for floating point
// fields per §4.5: a difference is significant only relative to the
// magnitude of the operands, not in absolute terms.
const relativeEpsilon = 1e-9

// SetIfChanged assigns value to the field on s and reports whether it
// differs from the field's current value. Float comparisons use a
// scale-relative epsilon so that, e.g., rebuilding a ratio from stored
// byte counts doesn't spuriously trip on rounding noise.
func SetIfChanged[S any, T any](s *S, f *Field[S, T], value T) bool {
	old := f.get(s)
	if floatsEqual(old, value) {
		return false
	}
	f.set(s, value)
	return true
}

func floatsEqual[T any](a, b T) bool {
	switch av := any(a).(type) {
	case float64:
		bv := any(b).(float64)
		if av == bv {
			return true
		}
		scale := math.Max(math.Abs(av), math.Abs(bv))
		if scale == 0 {
			return false
		}
		return math.Abs(av-bv)/scale < relativeEpsilon
	default:
		return any(a) == any(b)
	}
}

// GetValue finds the field named key in fields and returns its current
// value on s, succeeding only when the field exists and was declared
// with type T — the Go type system stands in for the spec's runtime
// "declared type is T" check.
func GetValue[T any, S any](fields []FieldDef[S], key quark.Quark, s *S) (T, bool) {
	for _, f := range fields {
		if f.Key() != key {
			continue
		}
		typed, ok := f.(*Field[S, T])
		if !ok {
			var zero T
			return zero, false
		}
		return typed.Get(s), true
	}
	var zero T
	return zero, false
}
