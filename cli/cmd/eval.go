package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/log"
)

// SessionFlags configure the evaluation context and compiler shared by the
// eval and repl commands.
type SessionFlags struct {
	Var       map[string]string `help:"Bind variable NAME to the value of expression EXPR" mapsep:"none"              placeholder:"NAME=EXPR" short:"v"`
	Mode      string            `default:"off"                                              enum:"off,immediate,mixed" help:"Compiler mode (${enum})" short:"m"`
	Threshold int               `default:"100"                                              help:"Interpreted evaluations before compiling in mixed mode"`
}

// options returns the compiler mode and the remaining expression options.
func (f *SessionFlags) options(ctx context.Context) (lang.Mode, []lang.Option, error) {
	mode, err := lang.ParseMode(f.Mode)
	if err != nil {
		return mode, nil, ErrInvalidMode.With(slog.String("mode", f.Mode)).Wrap(err)
	}

	return mode, []lang.Option{
		lang.WithThreshold(f.Threshold),
		lang.WithLogger(log.FromContext(ctx).Component("lang")),
	}, nil
}

// Eval evaluates an expression against the root object documents.
type Eval struct {
	SessionFlags `embed:""`

	Repeat int    `default:"1"    help:"Number of times to evaluate" short:"n"`
	Format string `default:"text" enum:"text,json,yaml"              help:"Output format (${enum})" short:"f"`

	Expr string `arg:"" help:"Expression to evaluate" name:"expr"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	mode, opts, err := e.options(ctx)
	if err != nil {
		return err
	}

	opts = append(opts, lang.WithMode(mode))

	ectx, err := newContext(ctx, e.Var, opts...)
	if err != nil {
		return err
	}

	expr, err := lang.Parse(e.Expr, opts...)
	if err != nil {
		return err
	}

	var value any

	for range max(e.Repeat, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}

		value, err = expr.Value(ectx)
		if err != nil {
			return err
		}
	}

	log.DebugContext(ctx, "evaluated expression",
		slog.String("expr", expr.Source()),
		slog.String("mode", expr.Mode().String()),
		slog.Bool("compiled", expr.Compiled()),
		slog.Int("repeat", e.Repeat),
	)

	return writeValue(ctx, stdout(ctx), e.Format, value)
}

// writeValue prints value to w in the given format.
func writeValue(ctx context.Context, w io.Writer, format string, value any) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.Marshal(value)
		if err != nil {
			return ErrJSONMarshal.
				With(slog.String("type", eval.TypeName(value))).
				Wrap(err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err

	case "yaml":
		data, err := yaml.MarshalContext(ctx, value)
		if err != nil {
			return ErrYAMLMarshal.
				With(slog.String("type", eval.TypeName(value))).
				Wrap(err)
		}

		_, err = fmt.Fprint(w, string(data))

		return err

	default:
		_, err := fmt.Fprintln(w, eval.Stringify(value))

		return err
	}
}
