package compiler

import (
	"errors"
	"maps"

	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/eval"
)

// Artifact is a loaded program ready to run.
type Artifact struct {
	program    *vm.Program
	unit       *Unit
	generation uint64
}

// Source returns the expr-lang source of a.
func (a *Artifact) Source() string { return a.unit.Source }

// Unit returns the unit a was loaded from.
func (a *Artifact) Unit() *Unit { return a.unit }

// Generation returns the id of the loader generation that loaded a.
func (a *Artifact) Generation() uint64 { return a.generation }

// Run evaluates a against ctx.
//
// Errors raised by call sites are returned as they were raised. An error
// of kind [diag.KindFallback] means a type assumption of the compiled
// code did not hold and the expression must be interpreted instead. Any
// other failure inside the program is reported as a fallback as well.
func (a *Artifact) Run(ctx *eval.Context) (any, error) {
	env := make(map[string]any, len(a.unit.Constants)+1)
	maps.Copy(env, a.unit.Constants)
	env[ContextName] = ctx

	out, err := vm.Run(a.program, env)
	if err != nil {
		var e *diag.Error
		if errors.As(err, &e) {
			return nil, e
		}

		return nil, diag.ErrFallback.Wrap(err)
	}

	return out, nil
}
