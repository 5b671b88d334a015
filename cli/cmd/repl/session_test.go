package repl

import (
	"reflect"
	"testing"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/eval"
)

type probe struct {
	Name string
}

func (probe) GetSize() int        { return 1 }
func (probe) IsReady() bool       { return true }
func (probe) Greet(string) string { return "" }
func (probe) Issue() string       { return "" }

func TestSession_Evaluate(t *testing.T) {
	s := testSession(t, map[string]any{"n": 4})

	tests := []struct {
		src  string
		want string
	}{
		{"#x = 2", "2"},
		{"#x * n", "8"},
		{"'a' + 'b'", "ab"},
	}

	for _, tt := range tests {
		got, e, err := s.evaluate(tt.src)
		if err != nil {
			t.Fatalf("evaluate(%q): %v", tt.src, err)
		}

		if e == nil || e.Source() != tt.src {
			t.Errorf("evaluate(%q) returned expression %v", tt.src, e)
		}

		if s := eval.Stringify(got); s != tt.want {
			t.Errorf("evaluate(%q) = %s, want %s", tt.src, s, tt.want)
		}
	}

	if _, _, err := s.evaluate("1 +"); err == nil {
		t.Error("evaluate(\"1 +\") succeeded, want parse error")
	}

	if got := s.variables(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("variables() = %v, want [x]", got)
	}
}

func TestSession_ExpressionCache(t *testing.T) {
	s := testSession(t, nil)

	a, err := s.expression("1 + 1")
	if err != nil {
		t.Fatal(err)
	}

	b, err := s.expression("1 + 1")
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Error("expression() parsed the same source twice")
	}

	if _, err := s.expression("2 * 3"); err != nil {
		t.Fatal(err)
	}

	var sources []string
	for _, e := range s.expressions() {
		sources = append(sources, e.Source())
	}

	if want := []string{"1 + 1", "2 * 3"}; !reflect.DeepEqual(sources, want) {
		t.Errorf("expressions() = %v, want %v", sources, want)
	}

	s.setMode(lang.ModeImmediate)

	if got := s.currentMode(); got != lang.ModeImmediate {
		t.Errorf("currentMode() = %v, want %v", got, lang.ModeImmediate)
	}

	if n := len(s.expressions()); n != 0 {
		t.Errorf("setMode kept %d expressions", n)
	}

	c, err := s.expression("1 + 1")
	if err != nil {
		t.Fatal(err)
	}

	if c == a {
		t.Error("expression() reused an expression parsed under the old mode")
	}

	if c.Mode() != lang.ModeImmediate {
		t.Errorf("Mode() = %v, want %v", c.Mode(), lang.ModeImmediate)
	}
}

func TestSession_Resolve(t *testing.T) {
	s := testSession(t, map[string]any{
		"server": map[string]any{"host": "localhost"},
	})
	s.ectx.SetVariable("cfg", map[string]any{"name": "xel"})

	tests := []struct {
		chain string
		want  any
		ok    bool
	}{
		{"server.host", "localhost", true},
		{"server?.host", "localhost", true},
		{"#cfg.name", "xel", true},
		{"missing", nil, false},
		{"#env('HOME')", nil, false},
		{"server.host + 'x'", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.chain, func(t *testing.T) {
			got, ok := s.resolve(tt.chain)
			if ok != tt.ok || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("resolve(%q) = (%v, %v), want (%v, %v)", tt.chain, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSession_Types(t *testing.T) {
	s := testSession(t, nil)

	types := s.types()
	if len(types) == 0 {
		t.Fatal("types() is empty")
	}

	for i := 1; i < len(types); i++ {
		if types[i-1] > types[i] {
			t.Fatalf("types() not sorted: %q before %q", types[i-1], types[i])
		}
	}
}

func TestProperties(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want []string
	}{
		{"nil", nil, nil},
		{"map", map[string]any{"b": 1, "a": 2}, []string{"a", "b"}},
		{"int_keys", map[int]any{1: 1}, nil},
		{"struct", probe{Name: "x"}, []string{"issue", "name", "ready", "size"}},
		{"pointer", &probe{}, []string{"issue", "name", "ready", "size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := properties(tt.v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("properties(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestGetterName(t *testing.T) {
	tests := map[string]string{
		"GetSize": "size",
		"IsReady": "ready",
		"Issue":   "issue",
		"Is":      "is",
		"Get":     "get",
		"Greet":   "greet",
	}

	for in, want := range tests {
		if got := getterName(in); got != want {
			t.Errorf("getterName(%q) = %q, want %q", in, got, want)
		}
	}
}
