package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/log"
)

// AST parses an expression and prints its syntax tree.
type AST struct {
	Format string `default:"text" enum:"source,text,json,yaml" help:"Output format (${enum})" short:"f"`
	Indent int    `default:"2"                                 help:"Indent width for formatted output" short:"i"`

	Expr string `arg:"" default:"-" help:"Expression source or '-' for stdin" name:"expr"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var expr *lang.Expression

	if a.Expr == stdinSource {
		expr, err = lang.ParseReader(os.Stdin)
	} else {
		expr, err = lang.Parse(a.Expr)
	}

	if err != nil {
		return err
	}

	log.TraceContext(ctx, "formatting syntax tree",
		slog.String("format", a.Format),
		slog.String("expr", expr.Source()),
	)

	w := stdout(ctx)

	switch a.Format {
	case "source":
		_, err = fmt.Fprintln(w, expr.String())

	case "json":
		err = ast.FormatJSON(ctx, w, expr.AST(), a.Indent)
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

	case "yaml":
		err = ast.FormatYAML(ctx, w, expr.AST(), a.Indent)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

	default:
		err = ast.Format(ctx, w, expr.AST(), a.Indent)
	}

	return err
}
