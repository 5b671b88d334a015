package lang

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/klauspost/readahead"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/compiler"
	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/lang/parser"
	"github.com/ardnew/xel/lang/stdlib"
)

var (
	// ErrInvalidMode is wrapped by errors returned from [ParseMode].
	ErrInvalidMode = errors.New("invalid compiler mode")

	// ErrReadInput is wrapped by errors returned from [ParseReader] when
	// the reader fails.
	ErrReadInput = errors.New("cannot read expression")
)

// Expression is a parsed expression. It interprets its syntax tree until
// its mode decides to compile, then runs the compiled program until a
// guard in the program fails, at which point it interprets again.
//
// An Expression is safe for concurrent use when each goroutine evaluates
// against its own [eval.Context].
type Expression struct {
	root        *ast.Node
	obs         *eval.Observations
	artifact    atomic.Pointer[compiler.Artifact]
	source      string
	cfg         config
	interpreted atomic.Int64
	failed      atomic.Int64
}

// Parse returns the expression parsed from source. Errors are
// [*diag.Error] values of kind [diag.KindParse].
func Parse(source string, opts ...Option) (*Expression, error) {
	cfg := makeConfig(opts...)

	parse := func() (*ast.Node, error) {
		return parser.Parse(source, cfg.parserOptions()...)
	}

	var (
		root *ast.Node
		err  error
	)

	if cfg.cache != nil {
		root, err = cfg.cache.GetOrCreate(cfg.cacheKey(source), parse)
		root = ast.Clone(root)
	} else {
		root, err = parse()
	}

	if err != nil {
		cfg.logger.Trace("parse failed",
			slog.String("source", source),
			slog.Any("error", err),
		)

		return nil, err
	}

	cfg.logger.Trace("parse",
		slog.String("source", source),
		slog.String("mode", cfg.mode.String()),
	)

	return &Expression{
		root:   root,
		obs:    eval.NewObservations(size(root)),
		source: source,
		cfg:    cfg,
	}, nil
}

func size(root *ast.Node) int {
	n := 0
	for range ast.All(root) {
		n++
	}

	return n
}

// MustParse is like [Parse] but panics on error.
func MustParse(source string, opts ...Option) *Expression {
	e, err := Parse(source, opts...)
	if err != nil {
		panic(err)
	}

	return e
}

// ParseReader parses the expression read from r.
func ParseReader(r io.Reader, opts ...Option) (*Expression, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return Parse(string(data), opts...)
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string { return e.source }

// AST returns the syntax tree. It must not be modified.
func (e *Expression) AST() *ast.Node { return e.root }

// String renders the syntax tree back to source.
func (e *Expression) String() string { return e.root.String() }

// Mode returns the compiler mode.
func (e *Expression) Mode() Mode { return e.cfg.mode }

// Value evaluates the expression against ctx. A nil ctx evaluates against
// a fresh context with the standard library and no root object.
func (e *Expression) Value(ctx *eval.Context) (any, error) {
	if ctx == nil {
		ctx = stdlib.NewContext()
	}

	if a := e.artifact.Load(); a != nil {
		v, err := a.Run(ctx)
		if !diag.IsFallback(err) {
			return v, err
		}

		e.fallback(a, err)
	}

	v, err := eval.Interpret(ctx, e.root, e.obs)
	if err != nil {
		return nil, err
	}

	e.interpretedOnce()

	return v, nil
}

// ValueOf evaluates the expression and converts the result to t with the
// converter of ctx.
func (e *Expression) ValueOf(ctx *eval.Context, t reflect.Type) (any, error) {
	if ctx == nil {
		ctx = stdlib.NewContext()
	}

	v, err := e.Value(ctx)
	if err != nil || t == nil || reflect.TypeOf(v) == t {
		return v, err
	}

	out, err := ctx.Converter().Convert(v, t)
	if err != nil {
		return nil, eval.Locate(err, e.root)
	}

	return out, nil
}

// ValueAs evaluates e and converts the result to T.
func ValueAs[T any](e *Expression, ctx *eval.Context) (T, error) {
	var zero T

	v, err := e.ValueOf(ctx, reflect.TypeFor[T]())
	if err != nil || v == nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, diag.New(diag.TypeConversionError, e.root.Pos,
			eval.TypeName(v), reflect.TypeFor[T]().String()).WithSpan(e.root.Pos, e.root.End)
	}

	return t, nil
}

// ValueType returns the type of the value the expression evaluates to,
// or nil if it evaluates to null.
func (e *Expression) ValueType(ctx *eval.Context) (reflect.Type, error) {
	v, err := e.Value(ctx)
	if err != nil {
		return nil, err
	}

	return reflect.TypeOf(v), nil
}

// SetValue assigns value to the location the expression refers to.
func (e *Expression) SetValue(ctx *eval.Context, value any) error {
	if ctx == nil {
		ctx = stdlib.NewContext()
	}

	return eval.Assign(ctx, e.root, e.obs, value)
}

// Compilable reports whether the expression can be compiled given the
// types observed so far.
func (e *Expression) Compilable() bool {
	return compiler.Compilable(e.root, e.obs)
}

// Compiled reports whether evaluations currently run a compiled program.
func (e *Expression) Compiled() bool { return e.artifact.Load() != nil }

// Compile compiles the expression now, regardless of mode, and reports
// whether it succeeded. The expression must have been evaluated first so
// that the types it operates on are known.
func (e *Expression) Compile() bool {
	u, err := compiler.Generate(e.root, e.obs)
	if err != nil {
		e.cfg.logger.Trace("not compilable",
			slog.String("source", e.source),
			slog.Any("reason", err),
		)

		return false
	}

	a, err := e.cfg.loader.Load(u)
	if err != nil {
		e.cfg.logger.Debug("load failed",
			slog.String("source", e.source),
			slog.String("program", u.Source),
			slog.Any("error", err),
		)

		return false
	}

	e.artifact.Store(a)

	e.cfg.logger.Trace("compiled",
		slog.String("source", e.source),
		slog.String("program", a.Source()),
		slog.Uint64("generation", a.Generation()),
	)

	return true
}

// RevertToInterpreted discards the compiled program and the types
// observed so far, and restarts the mode's bookkeeping.
func (e *Expression) RevertToInterpreted() {
	e.artifact.Store(nil)
	e.obs.Reset()
	e.interpreted.Store(0)
	e.failed.Store(0)
}

// fallback discards the artifact a, whose guard failed with err, and the
// observations it was built from.
func (e *Expression) fallback(a *compiler.Artifact, err error) {
	if !e.artifact.CompareAndSwap(a, nil) {
		return
	}

	e.obs.Reset()
	e.interpreted.Store(0)

	e.cfg.logger.Trace("fallback",
		slog.String("source", e.source),
		slog.String("program", a.Source()),
		slog.Any("reason", err),
	)
}

// interpretedOnce counts a successful interpretation and compiles when
// the mode says so.
func (e *Expression) interpretedOnce() {
	n := e.interpreted.Add(1)

	switch e.cfg.mode {
	case ModeImmediate:
	case ModeMixed:
		if n < e.cfg.threshold {
			return
		}
	default:
		return
	}

	if e.failed.Load() >= e.cfg.maxAttempts {
		return
	}

	if !e.Compile() {
		e.failed.Add(1)
	}
}
