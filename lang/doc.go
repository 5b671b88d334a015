// Package lang parses and evaluates xel expressions.
//
// An expression navigates an object graph, calls methods and functions,
// and combines the results with arithmetic, relational, and logical
// operators:
//
//	e, err := lang.Parse("owner?.name ?: 'nobody'")
//	v, err := e.Value(stdlib.NewContext(eval.WithRoot(account)))
//
// # Evaluation
//
// [Expression.Value] interprets the syntax tree against an
// [eval.Context], which supplies the root object, variables (#name),
// functions (#name()), and the resolvers for properties, methods,
// constructors, and types. Every interpretation records the dynamic types
// each node produced.
//
// # Compilation
//
// In [ModeImmediate] and [ModeMixed] an expression whose observed types
// are stable is translated to an expr-lang program and run by its virtual
// machine instead of the interpreter. The program checks the types it was
// generated for; when a check fails the program is discarded, the
// observations are cleared, and the evaluation is repeated by the
// interpreter. Callers see the same value or error either way.
//
// Expressions that mix numeric categories in a comparison, or that use
// projection, selection, assignment, bean references, "matches", or
// "between", are always interpreted.
package lang
