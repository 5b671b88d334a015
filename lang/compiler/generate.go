package compiler

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/eval"
)

// ContextName is the environment name of the evaluation context passed
// to every call site.
const ContextName = "ctx"

// Site is a function the generated source calls by name. Sites receive
// their arguments as evaluated by the program, with the evaluation
// context first when they need it.
type Site struct {
	Fn   func(params ...any) (any, error)
	Node *ast.Node
	Name string
}

// Unit is the output of [Generate]: an expr-lang source and the static
// environment it refers to.
type Unit struct {
	// Constants are literal values referenced by name.
	Constants map[string]any
	// Source is the expr-lang program text.
	Source string
	// Sites are the call sites referenced by name.
	Sites []Site
	// Guards describe the type assumptions checked at run time.
	Guards []string
}

// Env returns the environment used to type-check the unit's source.
func (u *Unit) Env() map[string]any {
	env := make(map[string]any, len(u.Constants)+1)
	maps.Copy(env, u.Constants)

	env[ContextName] = (*eval.Context)(nil)

	return env
}

// Generate returns the compilation unit for the tree rooted at root. It
// fails with an error wrapping [ErrNotCompilable] if [Check] does.
func Generate(root *ast.Node, obs *eval.Observations) (*Unit, error) {
	if err := Check(root, obs); err != nil {
		return nil, err
	}

	g := generator{
		obs:  obs,
		unit: &Unit{Constants: make(map[string]any)},
	}

	g.unit.Source = g.gen(root, "")

	return g.unit, nil
}

type generator struct {
	obs  *eval.Observations
	unit *Unit
}

func (g *generator) constant(v any) string {
	name := "k" + strconv.Itoa(len(g.unit.Constants))
	g.unit.Constants[name] = v

	return name
}

// site registers fn for node n and returns a call of it with args.
func (g *generator) site(n *ast.Node, fn siteFunc, args ...string) string {
	name := "s" + strconv.Itoa(n.ID)
	g.unit.Sites = append(g.unit.Sites, Site{Name: name, Node: n, Fn: fn})

	return name + "(" + strings.Join(args, ", ") + ")"
}

func (g *generator) guard(n *ast.Node, format string, args ...any) {
	g.unit.Guards = append(g.unit.Guards,
		fmt.Sprintf("%s@%d: ", n.Kind, n.Pos)+fmt.Sprintf(format, args...))
}

func (g *generator) typeOf(n *ast.Node) reflect.Type { return g.obs.Get(n.ID).Type }

// gen returns the source of n. For navigation links, target is the
// source of the object the link applies to, or empty for the root.
func (g *generator) gen(n *ast.Node, target string) string {
	switch n.Kind {
	case ast.IntLiteral:
		return strconv.Itoa(n.Value.(int)) //nolint:forcetypeassert
	case ast.BooleanLiteral:
		return strconv.FormatBool(n.Value.(bool)) //nolint:forcetypeassert
	case ast.NullLiteral:
		return "nil"
	case ast.LongLiteral, ast.FloatLiteral, ast.RealLiteral, ast.StringLiteral:
		return g.constant(n.Value)
	case ast.TypeReference:
		return g.site(n, typeSite(n), ContextName)
	case ast.VariableReference:
		return g.variable(n)
	case ast.PropertyOrFieldReference:
		return g.property(n, target)
	case ast.MethodReference:
		return g.method(n, target)
	case ast.Indexer:
		return g.index(n, target)
	case ast.FunctionReference:
		return g.function(n)
	case ast.ConstructorReference:
		return g.construct(n)
	case ast.CompoundExpression:
		return g.chain(g.gen(n.Child(0), ""), n.Children[1:])
	case ast.InlineList:
		return "[" + strings.Join(g.all(n.Children), ", ") + "]"
	case ast.InlineMap:
		return g.site(n, mapSite(n), g.all(n.Children)...)
	case ast.Not:
		return "(!" + g.gen(n.Child(0), "") + ")"
	case ast.And:
		return "(" + g.gen(n.Child(0), "") + " && " + g.gen(n.Child(1), "") + ")"
	case ast.Or:
		return "(" + g.gen(n.Child(0), "") + " || " + g.gen(n.Child(1), "") + ")"
	case ast.Ternary:
		return "(" + g.gen(n.Child(0), "") + " ? " + g.gen(n.Child(1), "") + " : " + g.gen(n.Child(2), "") + ")"
	case ast.Elvis:
		return "(" + g.gen(n.Child(0), "") + " ?? " + g.gen(n.Child(1), "") + ")"
	case ast.InstanceOf:
		return g.site(n, instanceOfSite(n), g.gen(n.Child(0), ""), g.gen(n.Child(1), ""))
	case ast.Plus, ast.Minus:
		if n.IsUnary() {
			return g.unary(n)
		}

		return g.binary(n)
	default:
		return g.binary(n)
	}
}

func (g *generator) all(nodes []*ast.Node) []string {
	out := make([]string, len(nodes))
	for i, c := range nodes {
		out[i] = g.gen(c, "")
	}

	return out
}

// native reports whether values of type t behave the same under expr-lang
// operator op as under the interpreter.
func native(op ast.Kind, t reflect.Type) bool {
	switch t {
	case intType:
		return op != ast.Divide && op != ast.Modulus && op != ast.Power
	case realType:
		return op != ast.Modulus && op != ast.Power
	case stringType:
		return op == ast.Plus || op.IsRelational()
	case boolType:
		return op == ast.Eq || op == ast.Ne
	default:
		return false
	}
}

func (g *generator) binary(n *ast.Node) string {
	l, r := g.gen(n.Child(0), ""), g.gen(n.Child(1), "")

	if t := g.typeOf(n.Child(0)); t == g.typeOf(n.Child(1)) && native(n.Kind, t) {
		return "(" + l + " " + n.Kind.Operator() + " " + r + ")"
	}

	op := n.Kind
	if op.IsRelational() {
		return g.site(n, helper(n, func(a, b any) (any, error) { return eval.Compare(op, a, b) }), l, r)
	}

	return g.site(n, helper(n, func(a, b any) (any, error) { return eval.Arithmetic(op, a, b) }), l, r)
}

func (g *generator) unary(n *ast.Node) string {
	x := g.gen(n.Child(0), "")

	if t := g.typeOf(n.Child(0)); t == intType || t == realType {
		if n.Kind == ast.Minus {
			return "(-" + x + ")"
		}

		return "(" + x + ")"
	}

	op := eval.Plus
	if n.Kind == ast.Minus {
		op = eval.Negate
	}

	return g.site(n, func(p ...any) (any, error) {
		v, err := op(p[0])

		return v, locate(err, n)
	}, x)
}

// chain returns the source of a navigation chain applied to head. A
// null-safe link binds its target so the rest of the chain can be
// skipped when it is null.
func (g *generator) chain(head string, links []*ast.Node) string {
	if len(links) == 0 {
		return head
	}

	link := links[0]
	if !link.NullSafe {
		return g.chain(g.gen(link, head), links[1:])
	}

	v := "t" + strconv.Itoa(link.ID)

	var rest string
	if trapped(link, g.obs.Get(link.ID)) {
		g.guard(link, "target is null")
		rest = g.site(link, trapSite(link))
	} else {
		rest = g.chain(g.gen(link, v), links[1:])
	}

	return "(let " + v + " = " + head + "; " + v + " == nil ? nil : " + rest + ")"
}

// receiver returns the source of a link's target.
func receiver(target string) string {
	if target == "" {
		return ContextName + ".Root()"
	}

	return target
}

func (g *generator) variable(n *ast.Node) string {
	o := g.obs.Get(n.ID)
	g.guard(n, "#%s is %s", n.Name, nullableName(o))

	return g.site(n, variableSite(n, o), ContextName)
}

func (g *generator) property(n *ast.Node, target string) string {
	o := g.obs.Get(n.ID)
	g.guard(n, "target is %s", o.Target)

	return g.site(n, propertySite(n, o), ContextName, receiver(target))
}

func (g *generator) method(n *ast.Node, target string) string {
	o := g.obs.Get(n.ID)
	g.guard(n, "target is %s, arguments are %s", o.Target, typeNames(o.ArgTypes))

	args := append([]string{ContextName, receiver(target)}, g.all(n.Children)...)

	return g.site(n, methodSite(n, o), args...)
}

func (g *generator) index(n *ast.Node, target string) string {
	o := g.obs.Get(n.ID)
	g.guard(n, "target is %s, index is %s", o.Target, typeNames(o.ArgTypes))

	return g.site(n, indexSite(n, o), ContextName, receiver(target), g.gen(n.Child(0), ""))
}

func (g *generator) function(n *ast.Node) string {
	o := g.obs.Get(n.ID)
	g.guard(n, "#%s is %s, arguments are %s", n.Name, o.Target, typeNames(o.ArgTypes))

	return g.site(n, functionSite(n, o), append([]string{ContextName}, g.all(n.Children)...)...)
}

func (g *generator) construct(n *ast.Node) string {
	o := g.obs.Get(n.ID)
	g.guard(n, "%s is %s, arguments are %s", n.Name, o.Target, typeNames(o.ArgTypes))

	return g.site(n, constructorSite(n, o), append([]string{ContextName}, g.all(n.Children)...)...)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "null"
	}

	return t.String()
}

// nullableName names the result type observed in o, marking it when null
// results were also seen.
func nullableName(o eval.Observation) string {
	if o.Null && o.Type != nil {
		return typeName(o.Type) + " or null"
	}

	return typeName(o.Type)
}

func typeNames(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = typeName(t)
	}

	return "(" + strings.Join(names, ", ") + ")"
}

// locate positions err at n like the interpreter does.
func locate(err error, n *ast.Node) error {
	if err == nil {
		return nil
	}

	return eval.Locate(err, n)
}

func fallback(n *ast.Node, format string, args ...any) error {
	return diag.New(diag.FallbackGuard, -1, fmt.Sprintf(format, args...)).WithSpan(n.Pos, n.End)
}

// checkResult verifies a value produced by a member whose declared result
// type does not determine the observed one. A null result passes when
// null results were observed.
func checkResult(n *ast.Node, m *eval.Member, o eval.Observation, v any) error {
	if m != nil && m.Static() {
		return nil
	}

	if got := reflect.TypeOf(v); got != o.Type && (got != nil || !o.Null) {
		return fallback(n, "result of %s is %s, compiled for %s", n.Name, typeName(got), nullableName(o))
	}

	return nil
}

func checkArgs(n *ast.Node, want []reflect.Type, args []any) error {
	if got := eval.TypesOf(args); !slices.Equal(got, want) {
		return fallback(n, "arguments of %s are %s, compiled for %s", n.Name, typeNames(got), typeNames(want))
	}

	return nil
}
