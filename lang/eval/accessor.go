package eval

import (
	"reflect"
	"sync"

	"github.com/ardnew/xel/lang/diag"
)

// PropertyAccessor reads and writes named properties of targets.
type PropertyAccessor interface {
	CanRead(ctx *Context, target any, name string) bool
	Read(ctx *Context, target any, name string) (any, error)
	CanWrite(ctx *Context, target any, name string) bool
	Write(ctx *Context, target any, name string, value any) error
}

// PropertyLinker is implemented by accessors that can resolve a property
// once per target type into a reusable [Member].
type PropertyLinker interface {
	Link(ctx *Context, target any, name string) (*Member, error)
}

// ResolveProperty reads property name of target using the first accessor
// of ctx that can read it. When that accessor is a [PropertyLinker] the
// linked member is returned along with the value.
func ResolveProperty(ctx *Context, target any, name string) (any, *Member, error) {
	if target == nil {
		return nil, nil, diag.New(diag.PropertyOrFieldNotReadableOnNull, -1, name)
	}

	for _, a := range ctx.accessors {
		if !a.CanRead(ctx, target, name) {
			continue
		}

		if l, ok := a.(PropertyLinker); ok {
			m, err := l.Link(ctx, target, name)
			if err != nil {
				return nil, nil, err
			}

			if m != nil {
				v, err := m.Call(ctx, target, nil)

				return v, m, err
			}
		}

		v, err := a.Read(ctx, target, name)

		return v, nil, err
	}

	return nil, nil, diag.New(diag.PropertyOrFieldNotReadable, -1, name, TypeName(target))
}

// WriteProperty sets property name of target using the first accessor of
// ctx that can write it.
func WriteProperty(ctx *Context, target any, name string, value any) error {
	if target == nil {
		return diag.New(diag.PropertyOrFieldNotWritableOnNull, -1, name)
	}

	for _, a := range ctx.accessors {
		if a.CanWrite(ctx, target, name) {
			return a.Write(ctx, target, name, value)
		}
	}

	return diag.New(diag.PropertyOrFieldNotWritable, -1, name, TypeName(target))
}

// MapAccessor reads and writes the entries of string-keyed maps.
type MapAccessor struct{}

func stringMap(target any) (reflect.Value, bool) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}

	return v, true
}

func mapKeyOf(v reflect.Value, name string) reflect.Value {
	return reflect.ValueOf(name).Convert(v.Type().Key())
}

// CanRead reports whether target is a string-keyed map containing name.
func (MapAccessor) CanRead(_ *Context, target any, name string) bool {
	v, ok := stringMap(target)

	return ok && v.MapIndex(mapKeyOf(v, name)).IsValid()
}

func (MapAccessor) Read(_ *Context, target any, name string) (any, error) {
	v, ok := stringMap(target)
	if !ok {
		return nil, diag.New(diag.PropertyOrFieldNotReadable, -1, name, TypeName(target))
	}

	e := v.MapIndex(mapKeyOf(v, name))
	if !e.IsValid() {
		return nil, diag.New(diag.PropertyOrFieldNotReadable, -1, name, TypeName(target))
	}

	return valueOf(e), nil
}

// CanWrite reports whether target is a non-nil string-keyed map.
func (MapAccessor) CanWrite(_ *Context, target any, _ string) bool {
	v, ok := stringMap(target)

	return ok && !v.IsNil()
}

func (MapAccessor) Write(ctx *Context, target any, name string, value any) error {
	v, ok := stringMap(target)
	if !ok || v.IsNil() {
		return diag.New(diag.PropertyOrFieldNotWritable, -1, name, TypeName(target))
	}

	e, err := bindArg(ctx, v.Type().Elem(), value)
	if err != nil {
		return err
	}

	v.SetMapIndex(mapKeyOf(v, name), e)

	return nil
}

// Link implements [PropertyLinker].
func (MapAccessor) Link(_ *Context, target any, name string) (*Member, error) {
	v, ok := stringMap(target)
	if !ok {
		return nil, nil
	}

	t := v.Type()
	key := mapKeyOf(v, name)

	return &Member{
		Name:     name,
		Owner:    t,
		Result:   nillableResult(t.Elem()),
		Exported: visible(t),
		Call: func(_ *Context, target any, _ []any) (any, error) {
			mv := reflect.ValueOf(target)
			if mv.Type() != t {
				return nil, guardError(t, target)
			}

			e := mv.MapIndex(key)
			if !e.IsValid() {
				return nil, diag.New(diag.PropertyOrFieldNotReadable, -1, name, t.String())
			}

			return valueOf(e), nil
		},
	}, nil
}

// ReflectiveAccessor reads properties through getter methods (Name,
// GetName, IsName) and exported struct fields, and writes them through
// setter methods (SetName) and settable fields. Names are matched as
// written and capitalized.
type ReflectiveAccessor struct{}

//nolint:gochecknoglobals
var propertyCache sync.Map // methodKey -> *Member

// CanRead implements [PropertyAccessor].
func (ReflectiveAccessor) CanRead(_ *Context, target any, name string) bool {
	return getter(reflect.TypeOf(target), name) != nil
}

func (ReflectiveAccessor) Read(ctx *Context, target any, name string) (any, error) {
	m := getter(reflect.TypeOf(target), name)
	if m == nil {
		return nil, diag.New(diag.PropertyOrFieldNotReadable, -1, name, TypeName(target))
	}

	return m.Call(ctx, target, nil)
}

// Link implements [PropertyLinker].
func (ReflectiveAccessor) Link(_ *Context, target any, name string) (*Member, error) {
	return getter(reflect.TypeOf(target), name), nil
}

// CanWrite implements [PropertyAccessor].
func (ReflectiveAccessor) CanWrite(_ *Context, target any, name string) bool {
	_, _, ok := setter(reflect.ValueOf(target), name)

	return ok
}

func (ReflectiveAccessor) Write(ctx *Context, target any, name string, value any) error {
	set, param, ok := setter(reflect.ValueOf(target), name)
	if !ok {
		return diag.New(diag.PropertyOrFieldNotWritable, -1, name, TypeName(target))
	}

	v, err := bindArg(ctx, param, value)
	if err != nil {
		return err
	}

	return set(v)
}

func getter(t reflect.Type, name string) *Member {
	if t == nil {
		return nil
	}

	key := methodKey{t, name}
	if v, ok := propertyCache.Load(key); ok {
		m, _ := v.(*Member)

		return m
	}

	m := findGetter(t, name)
	propertyCache.Store(key, m)

	return m
}

func findGetter(t reflect.Type, name string) *Member {
	c := Capitalize(name)

	for _, n := range []string{c, "Get" + c, "Is" + c} {
		m, ok := t.MethodByName(n)
		if !ok || !m.IsExported() || m.Type.NumIn() != 1 || m.Type.NumOut() == 0 ||
			m.Type.NumOut() > 2 {
			continue
		}

		if n == "Is"+c && m.Type.Out(0).Kind() != reflect.Bool {
			continue
		}

		member := methodMember(t, m)
		member.Name = name
		member.Params = nil

		return member
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	if st.Kind() != reflect.Struct {
		return nil
	}

	for _, n := range candidates(name) {
		f, ok := st.FieldByName(n)
		if !ok || !f.IsExported() {
			continue
		}

		return fieldMember(t, name, f)
	}

	return nil
}

func fieldMember(t reflect.Type, name string, f reflect.StructField) *Member {
	index := f.Index

	return &Member{
		Name:     name,
		Owner:    t,
		Result:   nillableResult(f.Type),
		Exported: visible(t),
		Call: func(_ *Context, target any, _ []any) (any, error) {
			v := reflect.ValueOf(target)
			if v.Type() != t {
				return nil, guardError(t, target)
			}

			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return nil, diag.New(diag.PropertyOrFieldNotReadableOnNull, -1, name)
				}

				v = v.Elem()
			}

			fv, err := v.FieldByIndexErr(index)
			if err != nil {
				return nil, diag.New(diag.PropertyOrFieldNotReadable, -1, name, t.String()).Wrap(err)
			}

			return valueOf(fv), nil
		},
	}
}

func setter(v reflect.Value, name string) (func(reflect.Value) error, reflect.Type, bool) {
	if !v.IsValid() {
		return nil, nil, false
	}

	c := Capitalize(name)

	if m := v.MethodByName("Set" + c); m.IsValid() && m.Type().NumIn() == 1 {
		return func(arg reflect.Value) error {
			out := m.Call([]reflect.Value{arg})
			if n := len(out); n > 0 && out[n-1].Type() == errorType {
				if err := asError(out[n-1]); err != nil {
					return diag.New(diag.ExceptionDuringMethodInvocation, -1, "Set"+c, v.Type().String()).Wrap(err)
				}
			}

			return nil
		}, m.Type().In(0), true
	}

	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, nil, false
	}

	s := v.Elem()

	for _, n := range candidates(name) {
		f, ok := s.Type().FieldByName(n)
		if !ok || !f.IsExported() {
			continue
		}

		fv, err := s.FieldByIndexErr(f.Index)
		if err != nil || !fv.CanSet() {
			continue
		}

		return func(arg reflect.Value) error {
			fv.Set(arg)

			return nil
		}, f.Type, true
	}

	return nil, nil, false
}

// TypeAccessor reads the static members of type references.
type TypeAccessor struct{}

func (TypeAccessor) CanRead(_ *Context, target any, name string) bool {
	ref, ok := target.(*TypeRef)
	if !ok {
		return false
	}

	_, ok = ref.Static(name)

	return ok
}

func (TypeAccessor) Read(_ *Context, target any, name string) (any, error) {
	ref, _ := target.(*TypeRef)

	v, ok := ref.Static(name)
	if !ok {
		return nil, diag.New(diag.PropertyOrFieldNotReadable, -1, name, TypeName(target))
	}

	return v, nil
}

func (TypeAccessor) CanWrite(*Context, any, string) bool { return false }

func (TypeAccessor) Write(_ *Context, target any, name string, _ any) error {
	return diag.New(diag.PropertyOrFieldNotWritable, -1, name, TypeName(target))
}

// Link implements [PropertyLinker]. The member is bound to references to
// the type it was linked on.
func (TypeAccessor) Link(_ *Context, target any, name string) (*Member, error) {
	ref, ok := target.(*TypeRef)
	if !ok {
		return nil, nil
	}

	v, ok := ref.Static(name)
	if !ok {
		return nil, nil
	}

	return &Member{
		Name:     name,
		Owner:    reflect.TypeOf(ref),
		Result:   nillableResult(reflect.TypeOf(v)),
		Exported: true,
		Call: func(_ *Context, target any, _ []any) (any, error) {
			if !ref.Same(target) {
				return nil, guardError(reflect.TypeOf(ref), target)
			}

			return v, nil
		},
	}, nil
}
