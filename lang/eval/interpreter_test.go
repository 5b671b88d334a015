package eval_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/lang/parser"
)

type Person struct {
	Friend   *Person
	Name     string
	nickname string
	Tags     []string
	Age      int
}

var errBoom = errors.New("boom")

func (p *Person) Greet(greeting string) string { return greeting + ", " + p.Name }
func (p *Person) GetNickname() string          { return p.nickname }
func (p *Person) SetNickname(n string)         { p.nickname = n }
func (p *Person) IsAdult() bool                { return p.Age >= 18 }
func (p *Person) Fail() (string, error)        { return "", errBoom }
func (p *Person) Panic() string                { panic("oops") }

func (p *Person) Sum(xs ...int) int {
	total := 0
	for _, x := range xs {
		total += x
	}

	return total
}

func newPerson() *Person {
	return &Person{Name: "Ada", Age: 36, Tags: []string{"math", "code"}, nickname: "ada"}
}

func newContext(root any, opts ...eval.Option) *eval.Context {
	base := []eval.Option{
		eval.WithRoot(root),
		eval.WithVariables(map[string]any{
			"x":    5,
			"m":    map[string]any{"a": 1, "b": 2},
			"list": []int{1, 2, 3, 4},
		}),
		eval.WithFunction("double", func(i int) int { return i * 2 }),
		eval.WithFunction("sum", func(xs ...int) int {
			total := 0
			for _, x := range xs {
				total += x
			}

			return total
		}),
	}

	return eval.NewContext(append(base, opts...)...)
}

func interpret(t *testing.T, ctx *eval.Context, src string) (any, error) {
	t.Helper()

	n, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	return eval.Interpret(ctx, n, nil)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		want any
		src  string
	}{
		{4, "2+2"},
		{17, "2+3*5"},
		{25, "(2+3)*5"},
		{-4, "-2^2"},
		{512, "2^3^2"},
		{"hello ' world", "'hello '' world'"},
		{`say "hi"`, `"say ""hi"""`},
		{true, "1 < 3.0d"},
		{4.0, "1+3.0d"},
		{int64(1), "0x1L"},
		{float32(1.5), "1.5f"},
		{3, "10 div 3"},
		{3, "7 mod 4"},
		{true, "3 lt 4 and 4 ge 4"},
		{"Ada", "name"},
		{"Ada", "Name"},
		{37, "age + 1"},
		{"ada", "nickname"},
		{true, "adult"},
		{"Hi, Ada", "greet('Hi')"},
		{6, "sum(1, 2, 3)"},
		{nil, "friend?.name"},
		{nil, "friend?.name.foo"},
		{"code", "tags[1]"},
		{"d", "'abcd'[3]"},
		{10, "#x * 2"},
		{1, "#m['a']"},
		{2, "#m.b"},
		{nil, "#m['zz']"},
		{[]int{3, 4}, "#list.?[#this > 2]"},
		{3, "#list.^[#this > 2]"},
		{4, "#list.$[#this > 2]"},
		{nil, "#list.^[#this > 9]"},
		{[]any{10, 20, 30, 40}, "#list.![#this * 10]"},
		{[]any{"a", "b"}, "#m.![key]"},
		{map[string]any{"b": 2}, "#m.?[value > 1]"},
		{[]any{1, 2, 3}, "{1,2,3}"},
		{[]any{}, "{}"},
		{map[string]any{"a": 1, "b c": 2}, "{a:1, 'b c':2}"},
		{map[any]any{1: "x"}, "{1:'x'}"},
		{map[string]any{}, "{:}"},
		{true, "#this == #root"},
		{true, "true and false or true"},
		{true, "!false"},
		{"d", "null ?: 'd'"},
		{"v", "'v' ?: 'd'"},
		{"old", "age > 30 ? 'old' : 'young'"},
		{true, "'abc' matches 'a.c'"},
		{true, "5 between {1, 10}"},
		{false, "11 between {1, 10}"},
		{true, "age instanceof T(int)"},
		{false, "name instanceof T(int)"},
		{false, "null instanceof T(string)"},
		{[]int{0, 0, 0}, "new int[3]"},
		{[]int{1, 2}, "new int[]{1, 2.0}"},
		{time.Second, "T(time.Duration).Second"},
		{90 * time.Minute, "T(time.Duration).Parse('1h30m')"},
		{6, "#double(3)"},
		{6, "#sum(1, 2, 3)"},
		{0, "#sum()"},
		{"Bob", "@svc.name"},
		{"Ada!", "name + '!'"},
		{"nullx", "null + 'x'"},
	}

	ctx := newContext(newPerson(), eval.WithBeanResolver(eval.MapBeanResolver{
		"svc": &Person{Name: "Bob"},
	}))

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := interpret(t, ctx, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestInterpret_Errors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
		pos  int
	}{
		{"missing", diag.PropertyOrFieldNotReadable, 0},
		{"friend.name", diag.PropertyOrFieldNotReadableOnNull, 7},
		{"1/0", diag.DivideByZero, 0},
		{"2 + 7 % 0", diag.DivideByZero, 4},
		{"fail()", diag.ExceptionDuringMethodInvocation, 0},
		{"panic()", diag.ExceptionDuringMethodInvocation, 0},
		{"nothing()", diag.MethodNotFound, 0},
		{"greet(1, 2)", diag.MethodNotFound, 0},
		{"friend.greet('x')", diag.MethodCallOnNull, 7},
		{"#undefined()", diag.FunctionNotDefined, 0},
		{"#x()", diag.NotAFunction, 0},
		{"#double()", diag.IncorrectNumberOfArguments, 0},
		{"@svc", diag.NoBeanResolver, 0},
		{"T(Nope)", diag.TypeNotFound, 0},
		{"new Nope()", diag.TypeNotFound, 0},
		{"tags[5]", diag.IndexOutOfBounds, 4},
		{"age[0]", diag.IndexingNotSupportedForType, 3},
		{"#m['zz'][0]", diag.CannotIndexIntoNullValue, 8},
		{"#absent", diag.VariableNotFound, 0},
		{"1 + #absent * 2", diag.VariableNotFound, 4},
		{"#absent ?: 'd'", diag.VariableNotFound, 0},
		{"#list.?[#this]", diag.ResultOfSelectionCriteriaIsNotBoolean, 8},
		{"#x.![#this]", diag.ProjectionNotSupportedOnType, 3},
		{"1 between {1}", diag.BetweenRightOperandMustBeTwoElementList, 0},
		{"1 instanceof 2", diag.InstanceofOperatorNeedsClassOperand, 0},
		{"'a' matches '('", diag.InvalidPattern, 0},
		{"#this = 1", diag.NotAssignable, 0},
		{"'a' - 1", diag.OperatorNotSupportedBetweenTypes, 0},
		{"-'a'", diag.OperatorNotSupportedForType, 0},
		{"!5", diag.ConditionNotBoolean, 1},
		{"5 and true", diag.ConditionNotBoolean, 0},
		{"new int[-1]", diag.InvalidArraySize, 0},
		{"new int[]{'a'}", diag.TypeConversionError, 10},
	}

	ctx := newContext(newPerson())

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := interpret(t, ctx, tt.src)

			var e *diag.Error
			if !errors.As(err, &e) {
				t.Fatalf("expected diagnostic, got %v", err)
			}

			if e.Code != tt.code {
				t.Errorf("expected %s, got %s (%v)", tt.code, e.Code, err)
			}

			if e.Pos != tt.pos {
				t.Errorf("expected position %d, got %d (%v)", tt.pos, e.Pos, err)
			}

			if !diag.IsEvaluation(err) {
				t.Errorf("expected evaluation kind, got %s", e.Kind)
			}
		})
	}
}

func TestInterpret_Variables(t *testing.T) {
	ctx := newContext(newPerson(), eval.WithVariables(map[string]any{"none": nil}))

	got, err := interpret(t, ctx, "#none ?: 'd'")
	if err != nil || got != "d" {
		t.Errorf("expected variable bound to nil to read as nil, got %#v (%v)", got, err)
	}

	if _, err := interpret(t, ctx, "#gone"); err == nil {
		t.Error("expected error for unbound variable")
	} else if code, _ := diag.CodeOf(err); code != diag.VariableNotFound {
		t.Errorf("expected %s, got %v", diag.VariableNotFound, err)
	}

	ctx.SetVariable("gone", 1)

	if got, err := interpret(t, ctx, "#gone"); err != nil || got != 1 {
		t.Errorf("expected bound variable, got %#v (%v)", got, err)
	}

	if got, err := interpret(t, ctx, "#double"); err != nil || got == nil {
		t.Errorf("expected function to resolve as a variable, got %#v (%v)", got, err)
	}
}

func TestInterpret_WrapsCause(t *testing.T) {
	_, err := interpret(t, newContext(newPerson()), "fail()")
	if !errors.Is(err, errBoom) {
		t.Errorf("expected cause to be retrievable, got %v", err)
	}
}

func TestInterpret_ShortCircuit(t *testing.T) {
	calls := 0
	side := func() bool {
		calls++

		return true
	}

	tests := []struct {
		src   string
		calls int
	}{
		{"true or #side()", 0},
		{"false and #side()", 0},
		{"false or #side()", 1},
		{"true and #side()", 1},
		{"false ? #side() : false", 0},
		{"'x' ?: #side()", 0},
	}

	ctx := newContext(nil, eval.WithFunction("side", side))

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			calls = 0

			if _, err := interpret(t, ctx, tt.src); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if calls != tt.calls {
				t.Errorf("expected %d calls, got %d", tt.calls, calls)
			}
		})
	}
}

func TestInterpret_Assign(t *testing.T) {
	p := newPerson()
	m := map[string]any{"a": 1}
	ctx := newContext(p, eval.WithVariable("m", m))

	tests := []struct {
		src   string
		check func() bool
	}{
		{"name = 'Bob'", func() bool { return p.Name == "Bob" }},
		{"age = '41'", func() bool { return p.Age == 41 }},
		{"nickname = 'b'", func() bool { return p.GetNickname() == "b" }},
		{"tags[0] = 'x'", func() bool { return p.Tags[0] == "x" }},
		{"#m['c'] = 3", func() bool { return m["c"] == 3 }},
		{"#m.d = 4", func() bool { return m["d"] == 4 }},
		{"#y = #x + 1", func() bool { v, _ := ctx.Variable("y"); return v == 6 }},
		{"friend?.name = 'z'", func() bool { return p.Friend == nil }},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if _, err := interpret(t, ctx, tt.src); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !tt.check() {
				t.Error("assignment not applied")
			}
		})
	}
}

func TestAssign(t *testing.T) {
	p := newPerson()
	ctx := newContext(p)

	n, err := parser.Parse("name")
	if err != nil {
		t.Fatal(err)
	}

	if err := eval.Assign(ctx, n, nil, "Grace"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Name != "Grace" {
		t.Errorf("expected Grace, got %s", p.Name)
	}

	n, _ = parser.Parse("1 + 2")
	if err := eval.Assign(ctx, n, nil, 1); !errors.Is(err, diag.New(diag.NotAssignable, 0)) {
		t.Errorf("expected not assignable, got %v", err)
	}
}

func TestInterpret_Observations(t *testing.T) {
	n, err := parser.Parse("friend?.name + greet('Hi')")
	if err != nil {
		t.Fatal(err)
	}

	obs := eval.NewObservations(ast.Number(n))
	ctx := newContext(newPerson())

	if _, err := eval.Interpret(ctx, n, obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := map[string]*ast.Node{}
	for c := range ast.All(n) {
		if c.Name != "" {
			byName[c.Name] = c
		}
	}

	if o := obs.Get(byName["name"].ID); !o.ShortCircuit || o.State != eval.Observed {
		t.Errorf("expected short-circuit observation, got %+v", o)
	}

	greet := obs.Get(byName["greet"].ID)
	if greet.Member == nil || greet.Target != reflect.TypeFor[*Person]() {
		t.Fatalf("expected linked method, got %+v", greet)
	}

	if !eval.SameTypes(greet.ArgTypes, []reflect.Type{reflect.TypeFor[string]()}) {
		t.Errorf("unexpected argument types %v", greet.ArgTypes)
	}

	if !greet.Member.Static() || !greet.Member.Exported {
		t.Errorf("expected exported static member, got %+v", greet.Member)
	}

	if o := obs.Get(n.ID); o.Type != reflect.TypeFor[string]() {
		t.Errorf("expected string result, got %v", o.Type)
	}

	obs.Reset()

	if o := obs.Get(byName["greet"].ID); o.State != eval.Invalidated || o.Member != nil {
		t.Errorf("expected invalidated observation, got %+v", o)
	}
}

func TestInterpret_ObservationsVaried(t *testing.T) {
	n, _ := parser.Parse("#v")
	obs := eval.NewObservations(ast.Number(n))

	for _, v := range []any{1, "a"} {
		if _, err := eval.Interpret(newContext(nil, eval.WithVariable("v", v)), n, obs); err != nil {
			t.Fatal(err)
		}
	}

	if o := obs.Get(n.ID); !o.Varied || o.Count != 2 {
		t.Errorf("expected varied observation after two evaluations, got %+v", o)
	}
}

func TestInterpret_ObservationsNull(t *testing.T) {
	n, _ := parser.Parse("#v")
	obs := eval.NewObservations(ast.Number(n))

	for _, v := range []any{nil, 1, nil} {
		if _, err := eval.Interpret(newContext(nil, eval.WithVariable("v", v)), n, obs); err != nil {
			t.Fatal(err)
		}
	}

	o := obs.Get(n.ID)
	if o.Varied || !o.Null || o.Type != reflect.TypeFor[int]() || o.Count != 3 {
		t.Errorf("expected nullable int observation, got %+v", o)
	}
}

type upperAccessor struct{}

func (upperAccessor) CanRead(_ *eval.Context, _ any, name string) bool { return name == "shout" }

func (upperAccessor) Read(*eval.Context, any, string) (any, error) { return "HEY", nil }

func (upperAccessor) CanWrite(*eval.Context, any, string) bool { return false }

func (upperAccessor) Write(*eval.Context, any, string, any) error { return nil }

func TestInterpret_CustomAccessorFirst(t *testing.T) {
	ctx := newContext(newPerson(), eval.WithPropertyAccessor(upperAccessor{}))

	got, err := interpret(t, ctx, "shout + name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "HEYAda" {
		t.Errorf("expected HEYAda, got %v", got)
	}
}
