package cmd

import (
	"context"
	"os"

	"github.com/ardnew/xel/cli/cmd/repl"
	"github.com/ardnew/xel/log"
)

// Repl starts an interactive session evaluating one expression per line.
type Repl struct {
	SessionFlags `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	mode, opts, err := r.options(ctx)
	if err != nil {
		return err
	}

	ectx, err := newContext(ctx, r.Var, opts...)
	if err != nil {
		return err
	}

	cacheDir := os.TempDir()
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
			cacheDir = dir
		}
	}

	return repl.Run(ctx, repl.Config{
		Context:  ectx,
		Decode:   decodeDocument,
		Logger:   log.FromContext(ctx).Component("repl"),
		CacheDir: cacheDir,
		Options:  opts,
		Mode:     mode,
	})
}
