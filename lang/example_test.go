package lang_test

import (
	"fmt"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/lang/stdlib"
)

func ExampleParse() {
	e, err := lang.Parse("(2 + 3) * 5")
	if err != nil {
		panic(err)
	}

	v, err := e.Value(nil)
	fmt.Println(v, err)
	// Output: 25 <nil>
}

func ExampleExpression_Compile() {
	ctx := stdlib.NewContext(eval.WithVariable("n", 20))
	e := lang.MustParse("#n * 2 + 2", lang.WithMode(lang.ModeImmediate))

	first, _ := e.Value(ctx)
	second, _ := e.Value(ctx)

	fmt.Println(first, second, e.Compiled())
	// Output: 42 42 true
}

func ExampleValueAs() {
	e := lang.MustParse("T(Math).sqrt(16)")

	n, err := lang.ValueAs[int](e, nil)
	fmt.Println(n, err)
	// Output: 4 <nil>
}
