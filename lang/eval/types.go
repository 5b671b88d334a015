package eval

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ardnew/xel/lang/diag"
)

// TypeRef is the value of a type reference T(name). It names a Go type,
// the static members reachable through it, and the constructor functions
// used by "new".
type TypeRef struct {
	// Type is the referenced Go type.
	Type reflect.Type
	// Statics holds constants and functions reachable as T(name).member.
	Statics map[string]any
	// Name is the qualified name the type was registered under.
	Name string
	// New holds constructor functions. Each must be a func returning a
	// value, optionally followed by an error.
	New []any
}

func (r *TypeRef) String() string { return r.Name }

// Static returns the static member name of r.
func (r *TypeRef) Static(name string) (any, bool) {
	if r == nil || r.Statics == nil {
		return nil, false
	}

	v, ok := r.Statics[name]

	return v, ok
}

// Same reports whether v references the same type as r under the same
// name. References found by different locators can be the same.
func (r *TypeRef) Same(v any) bool {
	o, ok := v.(*TypeRef)

	return ok && (o == r || o != nil && o.Name == r.Name && o.Type == r.Type)
}

// TypeLocator finds types by name for T(...), new, and instanceof.
type TypeLocator interface {
	FindType(name string) (*TypeRef, error)
}

// DefaultImport is the package prefix searched for unqualified names in
// addition to the bare name.
const DefaultImport = "java.lang"

// StandardTypeLocator is a registry of named types. Unqualified names are
// also looked up under each registered import prefix, and a trailing "[]"
// denotes a slice of the named element type.
type StandardTypeLocator struct {
	types   map[string]*TypeRef
	imports []string
	mu      sync.RWMutex
}

// NewStandardTypeLocator returns a locator preloaded with the Go builtin
// types and time.Time and time.Duration, importing [DefaultImport].
func NewStandardTypeLocator() *StandardTypeLocator {
	l := &StandardTypeLocator{
		types:   make(map[string]*TypeRef),
		imports: []string{DefaultImport},
	}

	for _, t := range []reflect.Type{
		reflect.TypeFor[bool](),
		reflect.TypeFor[string](),
		reflect.TypeFor[int](),
		reflect.TypeFor[int8](),
		reflect.TypeFor[int16](),
		reflect.TypeFor[int32](),
		reflect.TypeFor[int64](),
		reflect.TypeFor[uint](),
		reflect.TypeFor[uint8](),
		reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](),
		reflect.TypeFor[uint64](),
		reflect.TypeFor[uintptr](),
		reflect.TypeFor[float32](),
		reflect.TypeFor[float64](),
		reflect.TypeFor[error](),
	} {
		l.Register(&TypeRef{Name: t.String(), Type: t})
	}

	l.Register(&TypeRef{Name: "any", Type: reflect.TypeFor[any]()})
	l.Register(&TypeRef{Name: "byte", Type: reflect.TypeFor[byte]()})
	l.Register(&TypeRef{Name: "rune", Type: reflect.TypeFor[rune]()})
	l.Register(&TypeRef{
		Name: "time.Time",
		Type: reflect.TypeFor[time.Time](),
		Statics: map[string]any{
			"Now":   time.Now,
			"Parse": time.Parse,
			"Unix":  time.Unix,
		},
	})
	l.Register(&TypeRef{
		Name: "time.Duration",
		Type: reflect.TypeFor[time.Duration](),
		Statics: map[string]any{
			"Nanosecond":  time.Nanosecond,
			"Microsecond": time.Microsecond,
			"Millisecond": time.Millisecond,
			"Second":      time.Second,
			"Minute":      time.Minute,
			"Hour":        time.Hour,
			"Parse":       time.ParseDuration,
		},
	})

	return l
}

// Register adds ref under its name and each alias, replacing any previous
// registration.
func (l *StandardTypeLocator) Register(ref *TypeRef, aliases ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.types[ref.Name] = ref

	for _, a := range aliases {
		l.types[a] = ref
	}
}

// Import adds a package prefix searched for unqualified names.
func (l *StandardTypeLocator) Import(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.imports {
		if p == prefix {
			return
		}
	}

	l.imports = append(l.imports, prefix)
}

// Names returns the registered type names.
func (l *StandardTypeLocator) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.types))
	for n := range l.types {
		names = append(names, n)
	}

	return names
}

// FindType implements [TypeLocator].
func (l *StandardTypeLocator) FindType(name string) (*TypeRef, error) {
	elem, dims := name, 0
	for strings.HasSuffix(elem, "[]") {
		elem = strings.TrimSuffix(elem, "[]")
		dims++
	}

	ref := l.lookup(elem)
	if ref == nil {
		return nil, diag.New(diag.TypeNotFound, -1, name)
	}

	if dims == 0 {
		return ref, nil
	}

	t := ref.Type
	for range dims {
		t = reflect.SliceOf(t)
	}

	return &TypeRef{Name: name, Type: t}, nil
}

func (l *StandardTypeLocator) lookup(name string) *TypeRef {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if ref, ok := l.types[name]; ok {
		return ref
	}

	for _, p := range l.imports {
		if ref, ok := l.types[p+"."+name]; ok {
			return ref
		}
	}

	return nil
}
