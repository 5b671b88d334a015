package compiler

import (
	"reflect"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/eval"
)

type siteFunc = func(params ...any) (any, error)

func contextOf(n *ast.Node, p []any) (*eval.Context, error) {
	if len(p) > 0 {
		if ctx, ok := p[0].(*eval.Context); ok && ctx != nil {
			return ctx, nil
		}
	}

	return nil, fallback(n, "missing evaluation context")
}

func helper(n *ast.Node, op func(a, b any) (any, error)) siteFunc {
	return func(p ...any) (any, error) {
		v, err := op(p[0], p[1])

		return v, locate(err, n)
	}
}

func typeSite(n *ast.Node) siteFunc {
	return func(p ...any) (any, error) {
		ctx, err := contextOf(n, p)
		if err != nil {
			return nil, err
		}

		ref, err := ctx.Locator().FindType(n.Name)

		return ref, locate(err, n)
	}
}

func variableSite(n *ast.Node, o eval.Observation) siteFunc {
	return func(p ...any) (any, error) {
		ctx, err := contextOf(n, p)
		if err != nil {
			return nil, err
		}

		var v any

		switch n.Name {
		case "this", "root":
			v = ctx.Root()
		default:
			var ok bool
			if v, ok = ctx.Variable(n.Name); !ok {
				return nil, locate(diag.New(diag.VariableNotFound, -1, n.Name), n)
			}
		}

		if got := reflect.TypeOf(v); got != o.Type && (got != nil || !o.Null) {
			return nil, fallback(n, "#%s is %s, compiled for %s", n.Name, typeName(got), nullableName(o))
		}

		return v, nil
	}
}

// checkTarget verifies the object a link is applied to.
func checkTarget(n *ast.Node, want reflect.Type, target any) error {
	if got := reflect.TypeOf(target); got != want {
		return fallback(n, "target of %s is %s, compiled for %s", n.Name, typeName(got), typeName(want))
	}

	return nil
}

func propertySite(n *ast.Node, o eval.Observation) siteFunc {
	return func(p ...any) (any, error) {
		ctx, err := contextOf(n, p)
		if err != nil {
			return nil, err
		}

		if err := checkTarget(n, o.Target, p[1]); err != nil {
			return nil, err
		}

		v, err := o.Member.Call(ctx, p[1], nil)
		if err != nil {
			return nil, locate(err, n)
		}

		return v, checkResult(n, o.Member, o, v)
	}
}

func methodSite(n *ast.Node, o eval.Observation) siteFunc {
	return func(p ...any) (any, error) {
		ctx, err := contextOf(n, p)
		if err != nil {
			return nil, err
		}

		target, args := p[1], p[2:]

		if err := checkTarget(n, o.Target, target); err != nil {
			return nil, err
		}

		if err := checkArgs(n, o.ArgTypes, args); err != nil {
			return nil, err
		}

		v, err := o.Member.Call(ctx, target, args)
		if err != nil {
			return nil, locate(err, n)
		}

		return v, checkResult(n, o.Member, o, v)
	}
}

func indexSite(n *ast.Node, o eval.Observation) siteFunc {
	return func(p ...any) (any, error) {
		ctx, err := contextOf(n, p)
		if err != nil {
			return nil, err
		}

		target, idx := p[1], p[2:]

		if err := checkTarget(n, o.Target, target); err != nil {
			return nil, err
		}

		if err := checkArgs(n, o.ArgTypes, idx); err != nil {
			return nil, err
		}

		v, err := eval.Index(ctx, target, idx[0])
		if err != nil {
			return nil, locate(err, n)
		}

		return v, checkResult(n, nil, o, v)
	}
}

// functionSite looks the function up on every call, since the context
// may bind the name to a different function of the same type.
func functionSite(n *ast.Node, o eval.Observation) siteFunc {
	return func(p ...any) (any, error) {
		ctx, err := contextOf(n, p)
		if err != nil {
			return nil, err
		}

		args := p[1:]

		fn, ok := ctx.Function(n.Name)
		if !ok || reflect.TypeOf(fn) != o.Target {
			return nil, fallback(n, "#%s is %s, compiled for %s", n.Name, reflect.TypeOf(fn), o.Target)
		}

		if err := checkArgs(n, o.ArgTypes, args); err != nil {
			return nil, err
		}

		m, err := eval.LinkFunction(ctx, n.Name, fn, o.ArgTypes)
		if err != nil {
			return nil, locate(err, n)
		}

		v, err := m.Call(ctx, nil, args)
		if err != nil {
			return nil, locate(err, n)
		}

		return v, checkResult(n, m, o, v)
	}
}

// constructorSite locates the type on every call, since the context may
// use a different type locator.
func constructorSite(n *ast.Node, o eval.Observation) siteFunc {
	return func(p ...any) (any, error) {
		ctx, err := contextOf(n, p)
		if err != nil {
			return nil, err
		}

		args := p[1:]

		ref, err := ctx.Locator().FindType(n.Name)
		if err != nil {
			return nil, locate(err, n)
		}

		if ref.Type != o.Target {
			return nil, fallback(n, "%s is %s, compiled for %s", n.Name, ref.Type, o.Target)
		}

		if err := checkArgs(n, o.ArgTypes, args); err != nil {
			return nil, err
		}

		m, err := eval.ResolveConstructor(ctx, ref, o.ArgTypes)
		if err != nil {
			return nil, locate(err, n)
		}

		v, err := m.Call(ctx, nil, args)
		if err != nil {
			return nil, locate(err, n)
		}

		return v, checkResult(n, m, o, v)
	}
}

func mapSite(n *ast.Node) siteFunc {
	return func(p ...any) (any, error) {
		m, err := eval.MakeMap(p)

		return m, locate(err, n)
	}
}

func instanceOfSite(n *ast.Node) siteFunc {
	return func(p ...any) (any, error) {
		ref, ok := p[1].(*eval.TypeRef)
		if !ok {
			return nil, locate(diag.New(diag.InstanceofOperatorNeedsClassOperand, -1, eval.TypeName(p[1])), n)
		}

		return eval.InstanceOf(p[0], ref.Type), nil
	}
}

// trapSite ends a null-safe chain that compiled code cannot follow
// because it was never reached with a non-null target.
func trapSite(n *ast.Node) siteFunc {
	return func(...any) (any, error) {
		return nil, fallback(n, "%s reached with a non-null target", n.Kind)
	}
}
