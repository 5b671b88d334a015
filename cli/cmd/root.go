package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/lang/stdlib"
	"github.com/ardnew/xel/log"
)

// loadRoot decodes every root object document in ctx and merges them, in
// order, into a single map. Nested maps are merged recursively; any other
// value from a later document replaces the earlier one. Returns nil if ctx
// holds no documents.
func loadRoot(ctx context.Context) (map[string]any, error) {
	src := sourceFilesFrom(ctx)
	if src == nil || src.IsZero() {
		return nil, nil
	}

	root := make(map[string]any)

	for r := range src.Documents() {
		doc, err := decodeDocument(ctx, r)
		if c, ok := r.(io.Closer); ok && r != src.Stdin() {
			c.Close()
		}

		if err != nil {
			return nil, err
		}

		merge(root, doc)
	}

	log.TraceContext(ctx, "loaded root object", slog.Int("keys", len(root)))

	return root, nil
}

// decodeDocument reads a single YAML or JSON document from r.
func decodeDocument(ctx context.Context, r io.Reader) (map[string]any, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	var doc map[string]any

	err := yaml.NewDecoder(ra).DecodeContext(ctx, &doc)
	if err != nil && !errors.Is(err, io.EOF) {
		attr := slog.String("file", "-")
		if f, ok := r.(*os.File); ok {
			attr = slog.String("file", f.Name())
		}

		return nil, ErrDecodeRoot.With(attr).Wrap(err)
	}

	for k, v := range doc {
		doc[k] = normalize(v)
	}

	return doc, nil
}

// merge copies src into dst, descending into maps present in both.
func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if prev, exists := dst[k].(map[string]any); ok && exists {
			merge(prev, sub)

			continue
		}

		dst[k] = v
	}
}

// normalize converts decoded integers to int where they fit, so they mix
// with integer literals without promotion.
func normalize(v any) any {
	switch n := v.(type) {
	case uint64:
		if n <= math.MaxInt {
			return int(n)
		}
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
	case []any:
		for i, e := range n {
			n[i] = normalize(e)
		}
	case map[string]any:
		for k, e := range n {
			n[k] = normalize(e)
		}
	}

	return v
}

// newContext returns an evaluation context with the builtins installed, the
// root object of ctx, and vars bound as variables.
//
// Each variable value is parsed and evaluated as an expression, in name
// order, so later variables may refer to earlier ones. A value that does not
// parse is bound as a plain string.
func newContext(
	ctx context.Context,
	vars map[string]string,
	opts ...lang.Option,
) (*eval.Context, error) {
	root, err := loadRoot(ctx)
	if err != nil {
		return nil, err
	}

	ectx := stdlib.NewContext(eval.WithLogger(log.FromContext(ctx).Component("eval")))
	if root != nil {
		ectx.SetRoot(root)
	}

	for _, name := range slices.Sorted(maps.Keys(vars)) {
		src := vars[name]

		expr, err := lang.Parse(src, opts...)
		if err != nil {
			log.TraceContext(ctx, "binding variable as string",
				slog.String("name", name),
				slog.Any("error", err),
			)
			ectx.SetVariable(name, src)

			continue
		}

		value, err := expr.Value(ectx)
		if err != nil {
			return nil, ErrBindVariable.With(slog.String("name", name)).Wrap(err)
		}

		ectx.SetVariable(name, value)
	}

	return ectx, nil
}
