package eval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/xel/lang/diag"
)

// Member is a resolved property, method, function, or constructor linked
// to the concrete type it was resolved on. The interpreter reuses a member
// while the target type is unchanged, and compiled programs bind to it
// directly.
type Member struct {
	// Call invokes the member. For properties args is empty; for
	// functions and constructors target is ignored.
	Call func(ctx *Context, target any, args []any) (any, error)
	// Owner is the type the member was resolved on, or nil for members
	// that do not depend on a target.
	Owner reflect.Type
	// Result is the declared result type, or nil when it is not known
	// until the member is called.
	Result reflect.Type
	// Params are the declared parameter types.
	Params []reflect.Type
	// Name is the name the member was resolved by.
	Name string
	// Variadic reports whether the final parameter is variadic.
	Variadic bool
	// Exported reports whether the member and its owner are exported,
	// and so can be bound by compiled programs.
	Exported bool
}

// Static reports whether calls to m always produce values of one concrete
// type, so compiled callers need not check the result type.
func (m *Member) Static() bool {
	return m != nil && m.Result != nil && m.Result.Kind() != reflect.Interface
}

func (m *Member) String() string {
	if m == nil {
		return "<nil>"
	}

	var sb strings.Builder

	if m.Owner != nil {
		sb.WriteString(m.Owner.String())
		sb.WriteByte('.')
	}

	sb.WriteString(m.Name)

	if m.Params != nil {
		sb.WriteByte('(')

		for i, p := range m.Params {
			if i > 0 {
				sb.WriteString(", ")
			}

			if m.Variadic && i == len(m.Params)-1 {
				sb.WriteString("..." + p.Elem().String())
			} else {
				sb.WriteString(p.String())
			}
		}

		sb.WriteByte(')')
	}

	return sb.String()
}

// MethodResolver resolves a method by name for a target and the types of
// the call's arguments. A resolver that does not handle the target returns
// a nil member and nil error so the next resolver is tried.
type MethodResolver interface {
	ResolveMethod(ctx *Context, target any, name string, argTypes []reflect.Type) (*Member, error)
}

// ConstructorResolver resolves a constructor of ref for the types of the
// call's arguments, following the same protocol as [MethodResolver].
type ConstructorResolver interface {
	ResolveConstructor(ctx *Context, ref *TypeRef, argTypes []reflect.Type) (*Member, error)
}

// TypesOf returns the dynamic types of args. Null arguments have a nil
// type.
func TypesOf(args []any) []reflect.Type {
	types := make([]reflect.Type, len(args))
	for i, a := range args {
		types[i] = reflect.TypeOf(a)
	}

	return types
}

// SameTypes reports whether a and b list the same types.
func SameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func typeList(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			names[i] = "null"
		} else {
			names[i] = t.String()
		}
	}

	return "(" + strings.Join(names, ", ") + ")"
}

// ResolveMethod tries the method resolvers of ctx in order and returns the
// first member found.
func ResolveMethod(ctx *Context, target any, name string, argTypes []reflect.Type) (*Member, error) {
	if target == nil {
		return nil, diag.New(diag.MethodCallOnNull, -1, name+typeList(argTypes))
	}

	for _, r := range ctx.methods {
		m, err := r.ResolveMethod(ctx, target, name, argTypes)
		if err != nil {
			return nil, err
		}

		if m != nil {
			return m, nil
		}
	}

	return nil, diag.New(diag.MethodNotFound, -1, name+typeList(argTypes), TypeName(target))
}

// ResolveConstructor tries the constructor resolvers of ctx in order and
// returns the first member found.
func ResolveConstructor(ctx *Context, ref *TypeRef, argTypes []reflect.Type) (*Member, error) {
	for _, r := range ctx.ctors {
		m, err := r.ResolveConstructor(ctx, ref, argTypes)
		if err != nil {
			return nil, err
		}

		if m != nil {
			return m, nil
		}
	}

	return nil, diag.New(diag.ConstructorNotFound, -1, ref.Name, typeList(argTypes))
}

// Match scores.
const (
	noMatch     = 0
	convertible = 1
	assignable  = 2
	exact       = 3
)

// score rates how well arguments of the given types bind to a signature.
// The score of a call is the worst score of its arguments.
func score(conv TypeConverter, params []reflect.Type, variadic bool, argTypes []reflect.Type) int {
	fixed := len(params)
	if variadic {
		fixed--

		if len(argTypes) < fixed {
			return noMatch
		}
	} else if len(argTypes) != fixed {
		return noMatch
	}

	best := exact

	for i := range fixed {
		best = min(best, scoreArg(conv, params[i], argTypes[i]))
	}

	if !variadic || best == noMatch {
		return best
	}

	rest := argTypes[fixed:]
	last := params[fixed]

	// A single argument that is already a slice is passed through.
	if len(rest) == 1 && rest[0] != nil && rest[0].AssignableTo(last) {
		return min(best, scoreArg(conv, last, rest[0]))
	}

	for _, t := range rest {
		best = min(best, scoreArg(conv, last.Elem(), t))
	}

	return best
}

func scoreArg(conv TypeConverter, param, arg reflect.Type) int {
	switch {
	case arg == nil:
		if nillable(param) {
			return assignable
		}

		return noMatch
	case arg == param:
		return exact
	case arg.AssignableTo(param):
		return assignable
	case conv != nil && conv.CanConvert(arg, param):
		return convertible
	default:
		return noMatch
	}
}

// bind converts args to reflect values for a call with the given
// signature. It reports whether the final value is a slice to be passed
// through to a variadic parameter.
func bind(ctx *Context, params []reflect.Type, variadic bool, args []any) ([]reflect.Value, bool, error) {
	fixed := len(params)
	spread := false

	if variadic {
		fixed--

		last := params[fixed]
		if len(args) == fixed+1 && args[fixed] != nil &&
			reflect.TypeOf(args[fixed]).AssignableTo(last) {
			fixed++
			spread = true
		}
	}

	values := make([]reflect.Value, len(args))

	for i, a := range args {
		var param reflect.Type

		if i < fixed {
			param = params[i]
		} else {
			param = params[len(params)-1].Elem()
		}

		v, err := bindArg(ctx, param, a)
		if err != nil {
			return nil, false, err
		}

		values[i] = v
	}

	return values, spread, nil
}

func bindArg(ctx *Context, param reflect.Type, a any) (reflect.Value, error) {
	if a == nil {
		if !nillable(param) {
			return reflect.Value{}, conversionError(nil, param)
		}

		return reflect.Zero(param), nil
	}

	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(param) {
		return v, nil
	}

	c, err := ctx.Converter().Convert(a, param)
	if err != nil {
		return reflect.Value{}, err
	}

	if c == nil {
		return reflect.Zero(param), nil
	}

	return reflect.ValueOf(c), nil
}

var errorType = reflect.TypeFor[error]()

// call invokes fn with args and converts its results. A function may
// return nothing, a value, an error, or a value and an error. Panics are
// recovered and returned as errors.
func call(ctx *Context, fn reflect.Value, params []reflect.Type, variadic bool, args []any) (out any, err error) {
	values, spread, err := bind(ctx, params, variadic, args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
	}()

	var results []reflect.Value
	if spread {
		results = fn.CallSlice(values)
	} else {
		results = fn.Call(values)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if fn.Type().Out(0) == errorType {
			return nil, asError(results[0])
		}

		return valueOf(results[0]), nil
	default:
		return valueOf(results[0]), asError(results[len(results)-1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}

	return v.Interface().(error) //nolint:forcetypeassert
}

// valueOf unwraps v, mapping nil pointers, maps, slices, and interfaces to
// null.
func valueOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}

	return v.Interface()
}

func resultOf(ft reflect.Type) reflect.Type {
	switch ft.NumOut() {
	case 0:
		return nil
	case 1:
		if ft.Out(0) == errorType {
			return nil
		}
	}

	return ft.Out(0)
}

// nillableResult widens a result type that may produce null to any, since
// [valueOf] turns typed nils into untyped ones.
func nillableResult(t reflect.Type) reflect.Type {
	if t != nil && nillable(t) && t.Kind() != reflect.Interface {
		return reflect.TypeFor[any]()
	}

	return t
}

// FunctionMember returns a member that calls fn, which must be a func.
func FunctionMember(name string, fn any) (*Member, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, diag.New(diag.NotAFunction, -1, name)
	}

	ft := fv.Type()
	params := make([]reflect.Type, ft.NumIn())

	for i := range params {
		params[i] = ft.In(i)
	}

	return &Member{
		Name:     name,
		Params:   params,
		Result:   nillableResult(resultOf(ft)),
		Variadic: ft.IsVariadic(),
		Exported: true,
		Call: func(ctx *Context, _ any, args []any) (any, error) {
			v, err := call(ctx, fv, params, ft.IsVariadic(), args)
			if err != nil {
				return nil, wrapInvocation(diag.FunctionReferenceInvocation, err, name)
			}

			return v, nil
		},
	}, nil
}

// wrapInvocation wraps an error returned by invoked code. Conversion
// failures while binding arguments are returned unchanged.
func wrapInvocation(code diag.Code, err error, args ...any) error {
	if e, ok := err.(*diag.Error); ok && e.Code == diag.TypeConversionError {
		return err
	}

	return diag.New(code, -1, args...).Wrap(err)
}

func methodMember(t reflect.Type, m reflect.Method) *Member {
	ft := m.Type
	params := make([]reflect.Type, ft.NumIn()-1)

	for i := range params {
		params[i] = ft.In(i + 1)
	}

	index := m.Index
	name := m.Name

	return &Member{
		Name:     name,
		Owner:    t,
		Params:   params,
		Result:   nillableResult(resultOf(ft)),
		Variadic: ft.IsVariadic(),
		Exported: visible(t),
		Call: func(ctx *Context, target any, args []any) (any, error) {
			tv := reflect.ValueOf(target)
			if tv.Type() != t {
				return nil, guardError(t, target)
			}

			v, err := call(ctx, tv.Method(index), params, ft.IsVariadic(), args)
			if err != nil {
				return nil, wrapInvocation(diag.ExceptionDuringMethodInvocation, err, name, t.String())
			}

			return v, nil
		},
	}
}

func guardError(want reflect.Type, got any) *diag.Error {
	return diag.New(diag.FallbackGuard, -1,
		fmt.Sprintf("expected target of type %s, got %s", want, TypeName(got)))
}

// visible reports whether t, or the type t points to, is unnamed or has an
// exported name.
func visible(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}

	if t.Name() == "" {
		return true
	}

	r, _ := utf8.DecodeRuneInString(t.Name())

	return unicode.IsUpper(r)
}

// Capitalize returns name with its first rune upper-cased, the form Go
// requires for exported members.
func Capitalize(name string) string {
	r, n := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}

	return string(unicode.ToUpper(r)) + name[n:]
}

// ReflectiveMethodResolver resolves exported Go methods by name or by the
// capitalized name, and the static functions of type references. Among
// candidates the best argument match wins: exact types, then assignable,
// then convertible.
type ReflectiveMethodResolver struct{}

type methodKey struct {
	t    reflect.Type
	name string
}

//nolint:gochecknoglobals
var methodCache sync.Map // methodKey -> []*Member

// ResolveMethod implements [MethodResolver].
func (ReflectiveMethodResolver) ResolveMethod(
	ctx *Context, target any, name string, argTypes []reflect.Type,
) (*Member, error) {
	if ref, ok := target.(*TypeRef); ok {
		if fn, ok := ref.Static(name); ok {
			if reflect.TypeOf(fn).Kind() == reflect.Func {
				m, err := FunctionMember(ref.Name+"."+name, fn)
				if err != nil {
					return nil, err
				}

				if score(ctx.Converter(), m.Params, m.Variadic, argTypes) > noMatch {
					return staticMember(ref, m), nil
				}
			}
		}
	}

	var (
		best      *Member
		bestScore = noMatch
	)

	for _, m := range methodsOf(reflect.TypeOf(target), name) {
		if s := scoreMember(ctx, m, argTypes); s > bestScore {
			best, bestScore = m, s
		}
	}

	return best, nil
}

func scoreMember(ctx *Context, m *Member, argTypes []reflect.Type) int {
	return score(ctx.Converter(), m.Params, m.Variadic, argTypes)
}

// staticMember binds a function member to the type reference it was found
// on, so that compiled callers can check the target.
func staticMember(ref *TypeRef, fn *Member) *Member {
	m := *fn
	m.Owner = reflect.TypeOf(ref)
	m.Call = func(ctx *Context, target any, args []any) (any, error) {
		if !ref.Same(target) {
			return nil, guardError(m.Owner, target)
		}

		return fn.Call(ctx, nil, args)
	}

	return &m
}

func methodsOf(t reflect.Type, name string) []*Member {
	key := methodKey{t, name}
	if v, ok := methodCache.Load(key); ok {
		return v.([]*Member) //nolint:forcetypeassert
	}

	var out []*Member

	for _, n := range candidates(name) {
		if m, ok := t.MethodByName(n); ok && m.IsExported() {
			out = append(out, methodMember(t, m))
		}
	}

	methodCache.Store(key, out)

	return out
}

func candidates(name string) []string {
	if c := Capitalize(name); c != name {
		return []string{name, c}
	}

	return []string{name}
}

// StandardConstructorResolver resolves the constructor functions
// registered on a [TypeRef]. A type without constructors can be created
// with no arguments: structs as a pointer to a new zero value, other
// types as their zero value.
type StandardConstructorResolver struct{}

// ResolveConstructor implements [ConstructorResolver].
func (StandardConstructorResolver) ResolveConstructor(
	ctx *Context, ref *TypeRef, argTypes []reflect.Type,
) (*Member, error) {
	var (
		best      *Member
		bestScore = noMatch
	)

	for _, fn := range ref.New {
		m, err := FunctionMember(ref.Name, fn)
		if err != nil {
			return nil, err
		}

		if s := scoreMember(ctx, m, argTypes); s > bestScore {
			best, bestScore = m, s
		}
	}

	if best == nil && len(ref.New) == 0 && len(argTypes) == 0 && ref.Type != nil {
		best = zeroConstructor(ref)
	}

	if best == nil {
		return nil, nil
	}

	m := *best
	m.Call = func(ctx *Context, _ any, args []any) (any, error) {
		v, err := best.Call(ctx, nil, args)
		if err != nil {
			if e, ok := err.(*diag.Error); ok && e.Code == diag.TypeConversionError {
				return nil, err
			}

			return nil, diag.New(diag.ConstructorInvocationProblem, -1, ref.Name).Wrap(unwrapInvocation(err))
		}

		return v, nil
	}

	return &m, nil
}

// unwrapInvocation strips the function-invocation wrapper added by
// [FunctionMember] so constructors report the original cause.
func unwrapInvocation(err error) error {
	if e, ok := err.(*diag.Error); ok && e.Code == diag.FunctionReferenceInvocation && e.Unwrap() != nil {
		return e.Unwrap()
	}

	return err
}

func zeroConstructor(ref *TypeRef) *Member {
	t := ref.Type
	result := t

	if t.Kind() == reflect.Struct {
		result = reflect.PointerTo(t)
	}

	return &Member{
		Name:     ref.Name,
		Params:   []reflect.Type{},
		Result:   result,
		Exported: visible(t),
		Call: func(*Context, any, []any) (any, error) {
			switch t.Kind() {
			case reflect.Struct:
				return reflect.New(t).Interface(), nil
			case reflect.Map:
				return reflect.MakeMap(t).Interface(), nil
			case reflect.Slice:
				return reflect.MakeSlice(t, 0, 0).Interface(), nil
			case reflect.Interface:
				return nil, nil
			default:
				return reflect.Zero(t).Interface(), nil
			}
		},
	}
}

// Accepts reports whether arguments of argTypes can be bound to m.
func (m *Member) Accepts(ctx *Context, argTypes []reflect.Type) bool {
	return scoreMember(ctx, m, argTypes) > noMatch
}

// ExtensionMember returns a method named name on targets of type owner,
// implemented by fn. The target is passed to fn as its first argument.
func ExtensionMember(owner reflect.Type, name string, fn any) (*Member, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() || fv.Type().NumIn() == 0 {
		return nil, diag.New(diag.NotAFunction, -1, name)
	}

	ft := fv.Type()
	all := make([]reflect.Type, ft.NumIn())

	for i := range all {
		all[i] = ft.In(i)
	}

	return &Member{
		Name:     name,
		Owner:    owner,
		Params:   all[1:],
		Result:   nillableResult(resultOf(ft)),
		Variadic: ft.IsVariadic(),
		Exported: true,
		Call: func(ctx *Context, target any, args []any) (any, error) {
			if reflect.TypeOf(target) != owner {
				return nil, guardError(owner, target)
			}

			v, err := call(ctx, fv, all, ft.IsVariadic(), append([]any{target}, args...))
			if err != nil {
				return nil, wrapInvocation(diag.ExceptionDuringMethodInvocation, err, name, owner.String())
			}

			return v, nil
		},
	}, nil
}
