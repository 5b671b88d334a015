package repl

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

type greeter struct{}

func (*greeter) Greet(name string, times int) string { return strings.Repeat(name, times) }

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no_call", "greeting", 8, "", 0, false},
		{"function", "#env(", 5, "#env", 0, true},
		{"function_first_arg", "#env('HO", 8, "#env", 0, true},
		{"function_third_arg", "#cat('a', 'b',", 14, "#cat", 2, true},
		{"after_operator", "1 + #len(", 9, "#len", 0, true},
		{"nested_closed", "#cat(#env('X'), ", 16, "#cat", 1, true},
		{"nested_open", "#cat(#env(", 10, "#env", 0, true},
		{"method", "svc.greet(", 10, "svc.greet", 0, true},
		{"safe_method", "svc?.greet('a',", 15, "svc?.greet", 1, true},
		{"cursor_inside_nested", "#cat(#env('X'), 'b')", 10, "#env", 0, true},
		{"grouping", "(1 + 2", 6, "", 0, false},
		{"after_call", "#cat(1) + 2", 11, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.inCall != tt.wantInCall {
				t.Fatalf("detectFunctionCall(%q).inCall = %v, want %v", tt.input, got.inCall, tt.wantInCall)
			}

			if got.name != tt.wantName {
				t.Errorf("detectFunctionCall(%q).name = %q, want %q", tt.input, got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall(%q).argIndex = %d, want %d", tt.input, got.argIndex, tt.wantIndex)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	s := testSession(t, map[string]any{"svc": &greeter{}})

	tests := []struct {
		name       string
		callee     string
		wantSig    string
		wantParams []string
	}{
		{"function", "#env", "#env(String)", []string{"String"}},
		{"variadic", "#cat", "#cat(...String)", []string{"...String"}},
		{"mixed_variadic", "#sprintf", "#sprintf(String, ...Object)", []string{"String", "...Object"}},
		{"method", "svc.greet", "greet(String, int)", []string{"String", "int"}},
		{"safe_method", "svc?.greet", "greet(String, int)", []string{"String", "int"}},
		{"unknown_function", "#missing", "", nil},
		{"unknown_method", "svc.missing", "", nil},
		{"unknown_receiver", "nothing.greet", "", nil},
		{"bare_name", "greet", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, params := getSignature(s, tt.callee)

			if sig != tt.wantSig {
				t.Errorf("getSignature(%q) = %q, want %q", tt.callee, sig, tt.wantSig)
			}

			if !reflect.DeepEqual(params, tt.wantParams) {
				t.Errorf("getSignature(%q) params = %v, want %v", tt.callee, params, tt.wantParams)
			}
		})
	}
}

func TestFuncSignature_NotFunction(t *testing.T) {
	if _, _, ok := funcSignature("x", reflect.TypeFor[int](), 0); ok {
		t.Error("funcSignature accepted a non-function type")
	}

	if _, _, ok := funcSignature("x", nil, 0); ok {
		t.Error("funcSignature accepted a nil type")
	}
}

func TestFormatTypeName(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[string](), "String"},
		{reflect.TypeFor[int](), "int"},
		{reflect.TypeFor[int64](), "long"},
		{reflect.TypeFor[time.Duration](), "long"},
		{reflect.TypeFor[float32](), "float"},
		{reflect.TypeFor[float64](), "double"},
		{reflect.TypeFor[bool](), "boolean"},
		{reflect.TypeFor[[]string](), "List"},
		{reflect.TypeFor[map[string]any](), "Map"},
		{reflect.TypeFor[any](), "Object"},
		{reflect.TypeFor[error](), "error"},
		{reflect.TypeFor[func(string) bool](), "function"},
		{reflect.TypeFor[*int](), "int"},
		{reflect.TypeFor[greeter](), "greeter"},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := formatTypeName(tt.typ); got != tt.want {
				t.Errorf("formatTypeName(%v) = %q, want %q", tt.typ, got, tt.want)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name       string
		signature  string
		params     []string
		currentArg int
	}{
		{"no_params", "#now()", nil, 0},
		{"first_param", "#sprintf(String, ...Object)", []string{"String", "...Object"}, 0},
		{"variadic_param", "#sprintf(String, ...Object)", []string{"String", "...Object"}, 3},
		{"method", "greet(String, int)", []string{"String", "int"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.signature, tt.params, tt.currentArg)

			name := tt.signature[:strings.Index(tt.signature, "(")]
			if !strings.Contains(got, name) {
				t.Errorf("renderSignatureHint(%q) = %q, missing %q", tt.signature, got, name)
			}
		})
	}

	if got := renderSignatureHint("", nil, 0); got != "" {
		t.Errorf("renderSignatureHint(\"\") = %q, want empty", got)
	}
}
