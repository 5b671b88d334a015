package lang_test

import (
	"testing"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/lang/stdlib"
)

// BenchmarkExpression_Value compares interpreted and compiled evaluation of
// the same expressions against the same context.
func BenchmarkExpression_Value(b *testing.B) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "arithmetic", src: "(#x + 3) * #y - #x / 2"},
		{name: "comparison", src: "#x > 1 and #y < 100 or #x == #y"},
		{name: "string_concatenation", src: "'Hello, ' + #name + '!'"},
		{name: "property_chain", src: "owner.name + ' ' + name"},
		{name: "method_call", src: "name.length() + balance"},
		{name: "function", src: "#double(#x) + #double(#y)"},
	}

	modes := []lang.Mode{lang.ModeOff, lang.ModeImmediate}

	for _, tt := range tests {
		for _, mode := range modes {
			b.Run(tt.name+"/"+mode.String(), func(b *testing.B) {
				ctx := stdlib.NewContext(
					eval.WithRoot(&Account{Name: "ada", Balance: 36, Owner: &Account{Name: "bo"}}),
					eval.WithVariables(map[string]any{"x": 7, "y": 42, "name": "World"}),
					eval.WithFunction("double", func(i int) int { return i * 2 }),
				)

				e := lang.MustParse(tt.src, lang.WithMode(mode))

				// The first evaluation observes the tree and, in immediate
				// mode, compiles it.
				if _, err := e.Value(ctx); err != nil {
					b.Fatalf("eval error: %v", err)
				}

				b.ReportAllocs()

				for b.Loop() {
					if _, err := e.Value(ctx); err != nil {
						b.Fatalf("eval error: %v", err)
					}
				}
			})
		}
	}
}
