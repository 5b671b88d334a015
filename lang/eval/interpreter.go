package eval

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/diag"
)

// MapEntry is the value of #this while projecting or selecting over a map.
type MapEntry struct {
	Key   any
	Value any
}

// Interpret evaluates the tree rooted at n against ctx and returns its
// value. Observations of each evaluated node are recorded in obs, which
// may be nil.
func Interpret(ctx *Context, n *ast.Node, obs *Observations) (any, error) {
	in := interpreter{ctx: ctx, obs: obs}

	return in.eval(n)
}

// Assign evaluates n as an assignment target and sets it to value.
func Assign(ctx *Context, n *ast.Node, obs *Observations, value any) error {
	in := interpreter{ctx: ctx, obs: obs}

	_, err := in.assign(n, value)

	return err
}

// Arithmetic applies the binary arithmetic operator op to a and b.
func Arithmetic(op ast.Kind, a, b any) (any, error) {
	switch op {
	case ast.Plus:
		return Add(a, b)
	case ast.Minus:
		return Subtract(a, b)
	case ast.Multiply:
		return Multiply(a, b)
	case ast.Divide:
		return Divide(a, b)
	case ast.Modulus:
		return Modulus(a, b)
	case ast.Power:
		return Power(a, b)
	default:
		return nil, unsupported(op.Operator(), a, b)
	}
}

type interpreter struct {
	ctx   *Context
	obs   *Observations
	scope []any
}

// this returns the active context object: the current element inside a
// projection or selection, otherwise the root object.
func (in *interpreter) this() any {
	if len(in.scope) == 0 {
		return in.ctx.root
	}

	return in.scope[len(in.scope)-1]
}

func (in *interpreter) eval(n *ast.Node) (any, error) {
	return in.evalOn(n, in.this())
}

// evalOn evaluates n with target as the object navigation links apply to.
func (in *interpreter) evalOn(n *ast.Node, target any) (any, error) {
	v, err := in.dispatch(n, target)
	if err != nil {
		return nil, Locate(err, n)
	}

	in.obs.result(n.ID, v)

	return v, nil
}

// Locate positions an unpositioned diagnostic at the span of n. Errors
// that are not diagnostics are returned unchanged.
func Locate(err error, n *ast.Node) error {
	if e, ok := err.(*diag.Error); ok && e.Pos < 0 { //nolint:errorlint
		return e.WithSpan(n.Pos, n.End)
	}

	return err
}

func (in *interpreter) dispatch(n *ast.Node, target any) (any, error) {
	switch n.Kind {
	case ast.IntLiteral, ast.LongLiteral, ast.FloatLiteral, ast.RealLiteral,
		ast.StringLiteral, ast.BooleanLiteral, ast.NullLiteral:
		return n.Value, nil
	case ast.TypeReference:
		return in.ctx.locator.FindType(n.Name)
	case ast.VariableReference:
		return in.variable(n)
	case ast.BeanReference:
		return in.bean(n)
	case ast.PropertyOrFieldReference:
		return in.property(n, target)
	case ast.MethodReference:
		return in.method(n, target)
	case ast.Indexer:
		return in.index(n, target)
	case ast.Projection:
		return in.project(n, target)
	case ast.Selection:
		return in.selection(n, target)
	case ast.FunctionReference:
		return in.function(n)
	case ast.ConstructorReference:
		if n.IsArrayConstructor() {
			return in.array(n)
		}

		return in.construct(n)
	case ast.CompoundExpression:
		return in.compound(n)
	case ast.InlineList:
		return in.list(n)
	case ast.InlineMap:
		return in.inlineMap(n)
	case ast.And, ast.Or:
		return in.logical(n)
	case ast.Not:
		b, err := in.condition(n.Child(0))

		return !b, err
	case ast.Ternary:
		return in.ternary(n)
	case ast.Elvis:
		v, err := in.eval(n.Child(0))
		if err != nil || v != nil {
			return v, err
		}

		return in.eval(n.Child(1))
	case ast.Plus, ast.Minus:
		if n.IsUnary() {
			v, err := in.eval(n.Child(0))
			if err != nil {
				return nil, err
			}

			if n.Kind == ast.Minus {
				return Negate(v)
			}

			return Plus(v)
		}

		return in.binary(n, Arithmetic)
	case ast.Multiply, ast.Divide, ast.Modulus, ast.Power:
		return in.binary(n, Arithmetic)
	case ast.Lt, ast.Le, ast.Gt, ast.Ge, ast.Eq, ast.Ne:
		return in.binary(n, func(op ast.Kind, a, b any) (any, error) {
			return Compare(op, a, b)
		})
	case ast.InstanceOf:
		return in.instanceOf(n)
	case ast.Matches:
		return in.binary(n, func(_ ast.Kind, a, b any) (any, error) {
			return Matches(a, b)
		})
	case ast.Between:
		return in.between(n)
	case ast.Assignment:
		v, err := in.eval(n.Child(1))
		if err != nil {
			return nil, err
		}

		return in.assign(n.Child(0), v)
	}

	return nil, fmt.Errorf("%w: %s", errors.ErrUnsupported, n.Kind)
}

func (in *interpreter) binary(n *ast.Node, op func(ast.Kind, any, any) (any, error)) (any, error) {
	a, err := in.eval(n.Child(0))
	if err != nil {
		return nil, err
	}

	b, err := in.eval(n.Child(1))
	if err != nil {
		return nil, err
	}

	return op(n.Kind, a, b)
}

func (in *interpreter) condition(n *ast.Node) (bool, error) {
	v, err := in.eval(n)
	if err != nil {
		return false, err
	}

	b, err := Truth(v)
	if err != nil {
		return false, Locate(err, n)
	}

	return b, nil
}

// logical evaluates and/or. The right operand is evaluated only when the
// left does not decide the result.
func (in *interpreter) logical(n *ast.Node) (any, error) {
	l, err := in.condition(n.Child(0))
	if err != nil {
		return nil, err
	}

	if (n.Kind == ast.And) != l {
		return l, nil
	}

	return in.condition(n.Child(1))
}

func (in *interpreter) ternary(n *ast.Node) (any, error) {
	c, err := in.condition(n.Child(0))
	if err != nil {
		return nil, err
	}

	if c {
		return in.eval(n.Child(1))
	}

	return in.eval(n.Child(2))
}

func (in *interpreter) instanceOf(n *ast.Node) (any, error) {
	v, err := in.eval(n.Child(0))
	if err != nil {
		return nil, err
	}

	r, err := in.eval(n.Child(1))
	if err != nil {
		return nil, err
	}

	ref, ok := r.(*TypeRef)
	if !ok {
		return nil, diag.New(diag.InstanceofOperatorNeedsClassOperand, -1, TypeName(r))
	}

	return InstanceOf(v, ref.Type), nil
}

func (in *interpreter) between(n *ast.Node) (any, error) {
	v, err := in.eval(n.Child(0))
	if err != nil {
		return nil, err
	}

	r, err := in.eval(n.Child(1))
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(r)
	if !isListValue(rv) || rv.Len() != 2 {
		return nil, diag.New(diag.BetweenRightOperandMustBeTwoElementList, -1)
	}

	return Between(v, valueOf(rv.Index(0)), valueOf(rv.Index(1)))
}

func isListValue(rv reflect.Value) bool {
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

func (in *interpreter) variable(n *ast.Node) (any, error) {
	switch n.Name {
	case "this":
		return in.this(), nil
	case "root":
		return in.ctx.root, nil
	}

	v, ok := in.ctx.Variable(n.Name)
	if !ok {
		return nil, diag.New(diag.VariableNotFound, -1, n.Name)
	}

	return v, nil
}

func (in *interpreter) bean(n *ast.Node) (any, error) {
	if in.ctx.beans == nil {
		return nil, diag.New(diag.NoBeanResolver, -1, n.Name)
	}

	v, err := in.ctx.beans.Resolve(in.ctx, n.Name)
	if err != nil {
		return nil, diag.New(diag.ExceptionDuringBeanResolution, -1, n.Name).Wrap(err)
	}

	return v, nil
}

// compound evaluates a navigation chain. A null-safe link reached with a
// null target ends the chain with null without evaluating the rest.
func (in *interpreter) compound(n *ast.Node) (any, error) {
	v, err := in.eval(n.Child(0))
	if err != nil {
		return nil, err
	}

	for _, link := range n.Children[1:] {
		if v == nil && link.NullSafe {
			in.obs.shortCircuit(link.ID)

			return nil, nil
		}

		if v, err = in.evalOn(link, v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func (in *interpreter) property(n *ast.Node, target any) (any, error) {
	if target == nil {
		return nil, diag.New(diag.PropertyOrFieldNotReadableOnNull, -1, n.Name)
	}

	t := reflect.TypeOf(target)

	if o := in.obs.Get(n.ID); o.Member != nil && o.Target == t {
		v, err := o.Member.Call(in.ctx, target, nil)
		if !diag.IsFallback(err) {
			return v, err
		}
	}

	v, m, err := ResolveProperty(in.ctx, target, n.Name)
	if err != nil {
		return nil, readError(err, n.Name, target)
	}

	in.obs.link(n.ID, t, m, nil)

	return v, nil
}

func readError(err error, name string, target any) error {
	var e *diag.Error
	if errors.As(err, &e) {
		return err
	}

	return diag.New(diag.PropertyOrFieldNotReadable, -1, name, TypeName(target)).Wrap(err)
}

func (in *interpreter) arguments(nodes []*ast.Node) ([]any, error) {
	args := make([]any, len(nodes))

	for i, a := range nodes {
		v, err := in.eval(a)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	return args, nil
}

func (in *interpreter) method(n *ast.Node, target any) (any, error) {
	args, err := in.arguments(n.Children)
	if err != nil {
		return nil, err
	}

	types := TypesOf(args)
	t := reflect.TypeOf(target)

	if o := in.obs.Get(n.ID); o.Member != nil && t != nil && o.Target == t && SameTypes(o.ArgTypes, types) {
		v, err := o.Member.Call(in.ctx, target, args)
		if !diag.IsFallback(err) {
			return v, err
		}
	}

	m, err := ResolveMethod(in.ctx, target, n.Name, types)
	if err != nil {
		return nil, err
	}

	in.obs.link(n.ID, t, m, types)

	return m.Call(in.ctx, target, args)
}

func (in *interpreter) function(n *ast.Node) (any, error) {
	fn, ok := in.ctx.Function(n.Name)
	if !ok {
		if v, ok := in.ctx.Variable(n.Name); ok && v != nil {
			return nil, diag.New(diag.NotAFunction, -1, n.Name)
		}

		return nil, diag.New(diag.FunctionNotDefined, -1, n.Name)
	}

	args, err := in.arguments(n.Children)
	if err != nil {
		return nil, err
	}

	m, err := LinkFunction(in.ctx, n.Name, fn, TypesOf(args))
	if err != nil {
		return nil, err
	}

	in.obs.link(n.ID, reflect.TypeOf(fn), m, TypesOf(args))

	return m.Call(in.ctx, nil, args)
}

// LinkFunction returns the member calling fn, checking that the argument
// types can be bound to its parameters.
func LinkFunction(ctx *Context, name string, fn any, argTypes []reflect.Type) (*Member, error) {
	m, err := FunctionMember(name, fn)
	if err != nil {
		return nil, err
	}

	if score(ctx.converter, m.Params, m.Variadic, argTypes) == noMatch {
		if n := len(m.Params); len(argTypes) < n-btoi(m.Variadic) || !m.Variadic && len(argTypes) != n {
			return nil, diag.New(diag.IncorrectNumberOfArguments, -1, name, len(argTypes), n)
		}

		return nil, diag.New(diag.FunctionReferenceInvocation, -1, name).Wrap(
			fmt.Errorf("cannot bind arguments %s to %s", typeList(argTypes), m))
	}

	return m, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}

	return 0
}

func (in *interpreter) construct(n *ast.Node) (any, error) {
	ref, err := in.ctx.locator.FindType(n.Name)
	if err != nil {
		return nil, err
	}

	args, err := in.arguments(n.Children)
	if err != nil {
		return nil, err
	}

	types := TypesOf(args)

	m, err := ResolveConstructor(in.ctx, ref, types)
	if err != nil {
		return nil, err
	}

	in.obs.link(n.ID, ref.Type, m, types)

	return m.Call(in.ctx, nil, args)
}

// array evaluates "new T[size]" and "new T[]{elements}".
func (in *interpreter) array(n *ast.Node) (any, error) {
	ref, err := in.ctx.locator.FindType(n.Name)
	if err != nil {
		return nil, err
	}

	st := reflect.SliceOf(ref.Type)

	if init := n.Child(0); init.Kind == ast.InlineList {
		out := reflect.MakeSlice(st, len(init.Children), len(init.Children))

		for i, c := range init.Children {
			v, err := in.eval(c)
			if err != nil {
				return nil, err
			}

			e, err := bindArg(in.ctx, ref.Type, v)
			if err != nil {
				return nil, Locate(err, c)
			}

			out.Index(i).Set(e)
		}

		return out.Interface(), nil
	}

	size, err := in.eval(n.Child(0))
	if err != nil {
		return nil, err
	}

	if c := categoryOf(size); c != CategoryInt && c != CategoryLong || asLong(size) < 0 {
		return nil, diag.New(diag.InvalidArraySize, -1, size)
	}

	k := int(asLong(size))

	return reflect.MakeSlice(st, k, k).Interface(), nil
}

func (in *interpreter) list(n *ast.Node) (any, error) {
	return in.arguments(n.Children)
}

func (in *interpreter) inlineMap(n *ast.Node) (any, error) {
	kv, err := in.arguments(n.Children)
	if err != nil {
		return nil, err
	}

	return MakeMap(kv)
}

// MakeMap returns the map of the alternating keys and values in kv. The
// map is a map[string]any when every key is a string, otherwise a
// map[any]any.
func MakeMap(kv []any) (any, error) {
	strs := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		s, ok := kv[i].(string)
		if !ok {
			return anyMap(kv)
		}

		strs[s] = kv[i+1]
	}

	return strs, nil
}

func anyMap(kv []any) (any, error) {
	out := make(map[any]any, len(kv)/2)

	for i := 0; i < len(kv); i += 2 {
		if kv[i] != nil && !reflect.TypeOf(kv[i]).Comparable() {
			return nil, diag.New(diag.TypeConversionError, -1, TypeName(kv[i]), "map key")
		}

		out[kv[i]] = kv[i+1]
	}

	return out, nil
}

func (in *interpreter) index(n *ast.Node, target any) (any, error) {
	idx, err := in.eval(n.Child(0))
	if err != nil {
		return nil, err
	}

	in.obs.link(n.ID, reflect.TypeOf(target), nil, []reflect.Type{reflect.TypeOf(idx)})

	return Index(in.ctx, target, idx)
}

// Index returns target[idx]. Slices, arrays, and strings take integer
// indexes; strings index by rune. Maps return null for missing keys. Other
// objects are indexed by property name.
func Index(ctx *Context, target, idx any) (any, error) {
	if target == nil {
		return nil, diag.New(diag.CannotIndexIntoNullValue, -1)
	}

	rv := reflect.ValueOf(target)

	switch rv.Kind() {
	case reflect.Map:
		key, err := bindArg(ctx, rv.Type().Key(), idx)
		if err != nil {
			return nil, err
		}

		return valueOf(rv.MapIndex(key)), nil

	case reflect.Slice, reflect.Array, reflect.String:
		i, err := ConvertTo[int](ctx, idx)
		if err != nil {
			return nil, err
		}

		if rv.Kind() == reflect.String {
			runes := []rune(rv.String())
			if i < 0 || i >= len(runes) {
				return nil, diag.New(diag.IndexOutOfBounds, -1, len(runes), i)
			}

			return string(runes[i]), nil
		}

		if i < 0 || i >= rv.Len() {
			return nil, diag.New(diag.IndexOutOfBounds, -1, rv.Len(), i)
		}

		return valueOf(rv.Index(i)), nil
	}

	if name, ok := idx.(string); ok {
		v, _, err := ResolveProperty(ctx, target, name)

		return v, err
	}

	return nil, diag.New(diag.IndexingNotSupportedForType, -1, TypeName(target))
}

// SetIndex sets target[idx] to value.
func SetIndex(ctx *Context, target, idx, value any) error {
	if target == nil {
		return diag.New(diag.CannotIndexIntoNullValue, -1)
	}

	rv := reflect.ValueOf(target)

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return diag.New(diag.CannotIndexIntoNullValue, -1)
		}

		key, err := bindArg(ctx, rv.Type().Key(), idx)
		if err != nil {
			return err
		}

		v, err := bindArg(ctx, rv.Type().Elem(), value)
		if err != nil {
			return err
		}

		rv.SetMapIndex(key, v)

		return nil

	case reflect.Slice:
		i, err := ConvertTo[int](ctx, idx)
		if err != nil {
			return err
		}

		if i < 0 || i >= rv.Len() {
			return diag.New(diag.IndexOutOfBounds, -1, rv.Len(), i)
		}

		v, err := bindArg(ctx, rv.Type().Elem(), value)
		if err != nil {
			return err
		}

		rv.Index(i).Set(v)

		return nil

	case reflect.Array, reflect.String:
		return diag.New(diag.NotAssignable, -1, TypeName(target)+"[]")
	}

	if name, ok := idx.(string); ok {
		return WriteProperty(ctx, target, name, value)
	}

	return diag.New(diag.IndexingNotSupportedForType, -1, TypeName(target))
}

// elements returns the items of a slice or array, or the entries of a map
// ordered by key.
func elements(target any) ([]any, bool) {
	rv := reflect.ValueOf(target)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = valueOf(rv.Index(i))
		}

		return out, true

	case reflect.Map:
		keys := sortedKeys(rv)

		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = MapEntry{Key: k.Interface(), Value: valueOf(rv.MapIndex(k))}
		}

		return out, true
	}

	return nil, false
}

func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()

	slices.SortFunc(keys, func(a, b reflect.Value) int {
		if n, err := Order(a.Interface(), b.Interface()); err == nil {
			return n
		}

		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})

	return keys
}

// within evaluates n with v as #this.
func (in *interpreter) within(n *ast.Node, v any) (any, error) {
	in.scope = append(in.scope, v)
	defer func() { in.scope = in.scope[:len(in.scope)-1] }()

	return in.eval(n)
}

func (in *interpreter) project(n *ast.Node, target any) (any, error) {
	items, ok := elements(target)
	if !ok {
		return nil, diag.New(diag.ProjectionNotSupportedOnType, -1, TypeName(target))
	}

	out := make([]any, len(items))

	for i, item := range items {
		v, err := in.within(n.Child(0), item)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func (in *interpreter) selection(n *ast.Node, target any) (any, error) {
	items, ok := elements(target)
	if !ok {
		return nil, diag.New(diag.SelectionNotSupportedOnType, -1, TypeName(target))
	}

	var picked []int

	for i, item := range items {
		v, err := in.within(n.Child(0), item)
		if err != nil {
			return nil, err
		}

		b, ok := v.(bool)
		if !ok {
			return nil, Locate(diag.New(diag.ResultOfSelectionCriteriaIsNotBoolean, -1), n.Child(0))
		}

		if b {
			picked = append(picked, i)
		}
	}

	sel := n.Selector()
	if sel != ast.SelectAll && len(picked) > 0 {
		if sel == ast.SelectFirst {
			picked = picked[:1]
		} else {
			picked = picked[len(picked)-1:]
		}
	}

	rv := reflect.ValueOf(target)

	if rv.Kind() == reflect.Map {
		if sel != ast.SelectAll && len(picked) == 0 {
			return nil, nil
		}

		out := reflect.MakeMapWithSize(rv.Type(), len(picked))
		for _, i := range picked {
			e, _ := items[i].(MapEntry)
			out.SetMapIndex(reflect.ValueOf(e.Key), rv.MapIndex(reflect.ValueOf(e.Key)))
		}

		return out.Interface(), nil
	}

	if sel != ast.SelectAll {
		if len(picked) == 0 {
			return nil, nil
		}

		return items[picked[0]], nil
	}

	out := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), 0, len(picked))
	for _, i := range picked {
		out = reflect.Append(out, rv.Index(i))
	}

	return out.Interface(), nil
}

// assign sets the location denoted by n to value and returns value.
func (in *interpreter) assign(n *ast.Node, value any) (any, error) {
	err := in.store(n, value)
	if err != nil {
		return nil, Locate(err, n)
	}

	return value, nil
}

func (in *interpreter) store(n *ast.Node, value any) error {
	switch n.Kind {
	case ast.VariableReference:
		if n.Name == "this" || n.Name == "root" {
			break
		}

		in.ctx.SetVariable(n.Name, value)

		return nil

	case ast.PropertyOrFieldReference:
		return WriteProperty(in.ctx, in.this(), n.Name, value)

	case ast.Indexer:
		return in.storeIndex(n, in.this(), value)

	case ast.CompoundExpression:
		target, err := in.eval(n.Child(0))
		if err != nil {
			return err
		}

		links := n.Children[1:]

		for _, link := range links[:len(links)-1] {
			if target == nil && link.NullSafe {
				return nil
			}

			if target, err = in.evalOn(link, target); err != nil {
				return err
			}
		}

		last := links[len(links)-1]
		if target == nil && last.NullSafe {
			return nil
		}

		switch last.Kind {
		case ast.PropertyOrFieldReference:
			return Locate(WriteProperty(in.ctx, target, last.Name, value), last)
		case ast.Indexer:
			return Locate(in.storeIndex(last, target, value), last)
		}
	}

	return diag.New(diag.NotAssignable, -1, n.String())
}

func (in *interpreter) storeIndex(n *ast.Node, target, value any) error {
	idx, err := in.eval(n.Child(0))
	if err != nil {
		return err
	}

	return SetIndex(in.ctx, target, idx, value)
}
