package compiler

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/eval"
)

// ErrNotCompilable is wrapped by errors returned from [Check].
var ErrNotCompilable = errors.New("not compilable")

// Compilable reports whether the tree rooted at root can be compiled
// given the observations recorded in obs.
func Compilable(root *ast.Node, obs *eval.Observations) bool {
	return Check(root, obs) == nil
}

// Check returns nil if the tree rooted at root can be compiled given the
// observations in obs, or an error wrapping [ErrNotCompilable] that names
// the first node that cannot.
func Check(root *ast.Node, obs *eval.Observations) error {
	if root == nil {
		return fmt.Errorf("%w: empty expression", ErrNotCompilable)
	}

	return analyzer{obs: obs}.check(root)
}

type analyzer struct {
	obs *eval.Observations
}

func reject(n *ast.Node, reason string, args ...any) error {
	return fmt.Errorf("%w: %s at %d: %s", ErrNotCompilable, n.Kind, n.Pos, fmt.Sprintf(reason, args...))
}

var (
	boolType   = reflect.TypeFor[bool]()
	stringType = reflect.TypeFor[string]()
	intType    = reflect.TypeFor[int]()
	realType   = reflect.TypeFor[float64]()
)

func numeric(t reflect.Type) bool { return eval.CategoryOf(t) != eval.NotNumeric }

func (a analyzer) check(n *ast.Node) error {
	o := a.obs.Get(n.ID)

	switch {
	case o.State != eval.Observed:
		return reject(n, "%s", o.State)
	case o.Varied:
		return reject(n, "result type varies")
	}

	switch n.Kind {
	case ast.IntLiteral, ast.LongLiteral, ast.FloatLiteral, ast.RealLiteral,
		ast.StringLiteral, ast.BooleanLiteral, ast.NullLiteral,
		ast.TypeReference, ast.VariableReference:
		return nil

	case ast.Projection, ast.Selection, ast.Assignment, ast.BeanReference,
		ast.Matches, ast.Between:
		return reject(n, "never compiled")

	case ast.InlineList, ast.InlineMap:
		if !constant(n) {
			return reject(n, "elements are not constant")
		}

		return a.children(n)

	case ast.ConstructorReference:
		if n.IsArrayConstructor() {
			return reject(n, "never compiled")
		}

		return a.member(n, o)

	case ast.FunctionReference:
		return a.member(n, o)

	case ast.PropertyOrFieldReference, ast.MethodReference:
		return a.member(n, o)

	case ast.Indexer:
		return a.indexer(n, o)

	case ast.CompoundExpression:
		return a.compound(n)
	}

	if err := a.children(n); err != nil {
		return err
	}

	return a.operator(n)
}

func (a analyzer) children(n *ast.Node) error {
	for _, c := range n.Children {
		if err := a.check(c); err != nil {
			return err
		}
	}

	return nil
}

// typeOf returns the observed result type of n.
func (a analyzer) typeOf(n *ast.Node) reflect.Type { return a.obs.Get(n.ID).Type }

func (a analyzer) operator(n *ast.Node) error {
	switch n.Kind {
	case ast.Not:
		if a.typeOf(n.Child(0)) != boolType {
			return reject(n, "operand is not boolean")
		}

	case ast.And, ast.Or:
		if a.typeOf(n.Child(0)) != boolType || a.typeOf(n.Child(1)) != boolType {
			return reject(n, "operands are not boolean")
		}

	case ast.Ternary:
		if a.typeOf(n.Child(0)) != boolType {
			return reject(n, "condition is not boolean")
		}

	case ast.Plus, ast.Minus, ast.Multiply, ast.Divide, ast.Modulus, ast.Power:
		return a.arithmetic(n)

	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		return a.relational(n)

	case ast.Eq, ast.Ne:
		l, r := a.typeOf(n.Child(0)), a.typeOf(n.Child(1))
		if numeric(l) && numeric(r) && eval.CategoryOf(l) != eval.CategoryOf(r) {
			return reject(n, "compares %s with %s", l, r)
		}

	case ast.InstanceOf:
		if n.Child(1).Kind != ast.TypeReference {
			return reject(n, "right operand is not a type reference")
		}
	}

	return nil
}

// arithmetic accepts numeric operands of any categories, and strings on
// both sides of "+".
func (a analyzer) arithmetic(n *ast.Node) error {
	l := a.typeOf(n.Child(0))

	if n.IsUnary() {
		if !numeric(l) {
			return reject(n, "operand type %s is not numeric", l)
		}

		return nil
	}

	r := a.typeOf(n.Child(1))

	switch {
	case numeric(l) && numeric(r):
		return nil
	case n.Kind == ast.Plus && l == stringType && r == stringType:
		return nil
	default:
		return reject(n, "operand types %s and %s", l, r)
	}
}

// relational accepts operands of one numeric category, or two values of
// the same non-numeric type.
func (a analyzer) relational(n *ast.Node) error {
	l, r := a.typeOf(n.Child(0)), a.typeOf(n.Child(1))

	switch {
	case numeric(l) && numeric(r):
		if eval.CategoryOf(l) != eval.CategoryOf(r) {
			return reject(n, "compares %s with %s", l, r)
		}
	case numeric(l) || numeric(r):
		return reject(n, "compares %s with %s", l, r)
	case l == nil || l != r:
		return reject(n, "compares %s with %s", l, r)
	}

	return nil
}

// member checks a node linked to a property, method, function, or
// constructor, and its arguments.
func (a analyzer) member(n *ast.Node, o eval.Observation) error {
	switch {
	case !o.Linked():
		return reject(n, "not linked")
	case !o.Member.Exported:
		return reject(n, "%s is not exported", o.Member)
	}

	return a.children(n)
}

func (a analyzer) indexer(n *ast.Node, o eval.Observation) error {
	if o.Target == nil {
		return reject(n, "no target observed")
	}

	switch o.Target.Kind() {
	case reflect.Slice, reflect.Array, reflect.String, reflect.Map:
		return a.children(n)
	default:
		return reject(n, "indexes %s by property name", o.Target)
	}
}

// compound checks the head and links of a navigation chain. A null-safe
// link is accepted only after it has short-circuited on a null target at
// least once. One that has never been reached with a non-null target ends
// the check: the rest of the chain is generated as a trap.
func (a analyzer) compound(n *ast.Node) error {
	if err := a.check(n.Child(0)); err != nil {
		return err
	}

	for _, link := range n.Children[1:] {
		o := a.obs.Get(link.ID)

		if link.NullSafe && !o.ShortCircuit {
			return reject(link, "null-safe link has not short-circuited")
		}

		if trapped(link, o) {
			return nil
		}

		if err := a.check(link); err != nil {
			return err
		}
	}

	return nil
}

// trapped reports whether link is null-safe and was never reached with a
// non-null target.
func trapped(link *ast.Node, o eval.Observation) bool {
	return link.NullSafe && o.ShortCircuit && o.Target == nil
}

// constant reports whether n is a literal or an inline list or map of
// constants. Map keys must be scalar literals.
func constant(n *ast.Node) bool {
	switch n.Kind {
	case ast.IntLiteral, ast.LongLiteral, ast.FloatLiteral, ast.RealLiteral,
		ast.StringLiteral, ast.BooleanLiteral, ast.NullLiteral:
		return true
	case ast.InlineList:
		for _, c := range n.Children {
			if !constant(c) {
				return false
			}
		}

		return true
	case ast.InlineMap:
		for i, c := range n.Children {
			if i%2 == 0 && (c.Kind == ast.InlineList || c.Kind == ast.InlineMap) || !constant(c) {
				return false
			}
		}

		return true
	default:
		return false
	}
}
