package stdlib_test

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/lang/parser"
	"github.com/ardnew/xel/lang/stdlib"
)

type bag []int

func (b bag) Size() int { return 42 }

func run(t *testing.T, src string, opts ...eval.Option) (any, error) {
	t.Helper()

	n, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	return eval.Interpret(stdlib.NewContext(opts...), n, nil)
}

func TestTypes(t *testing.T) {
	tests := []struct {
		want any
		src  string
	}{
		{42, "T(java.lang.Integer).valueOf(42)"},
		{17, "T(Integer).parseInt('17')"},
		{math.MaxInt32, "T(Integer).MAX_VALUE"},
		{int64(math.MinInt64), "T(Long).MIN_VALUE"},
		{int64(5), "T(Long).valueOf('5')"},
		{int64(9), "T(Long).parseLong(' 9 ')"},
		{"ff", "T(Integer).toHexString(255)"},
		{"ffffffff", "T(Integer).toHexString(-1)"},
		{-1, "T(Integer).compare(1, 2)"},
		{7, "new Integer(7)"},
		{7, "new Integer('7')"},
		{2.5, "T(Double).valueOf('2.5')"},
		{float32(1.5), "T(Float).parseFloat('1.5')"},
		{true, "T(Double).isNaN(T(Double).NaN)"},
		{true, "T(Boolean).parseBoolean('TRUE')"},
		{false, "T(Boolean).valueOf('yes')"},
		{"", "new String()"},
		{"x", "new String('x')"},
		{"12", "T(String).valueOf(12)"},
		{"a-b-3", "T(String).join('-', 'a', 'b', 3)"},
		{"1-x", "T(String).format('%d-%s', 1, 'x')"},
		{5, "T(Math).abs(-5)"},
		{2.5, "T(Math).abs(-2.5)"},
		{4.5, "T(Math).max(3, 4.5)"},
		{3, "T(Math).max(3, 2)"},
		{int64(2), "T(Math).min(2, 7L)"},
		{4.0, "T(Math).sqrt(16)"},
		{8.0, "T(Math).pow(2, 3)"},
		{int64(3), "T(Math).round(2.5)"},
		{-1.0, "T(Math).signum(-3.2)"},
		{math.Pi, "T(Math).PI"},
		{true, "T(Math).random() < 1.0"},
		{true, "T(System).currentTimeMillis() > 0L"},
		{"GO", "T(strings).ToUpper('go')"},
		{[]string{"a", "b"}, "T(strings).Fields(' a  b ')"},
		{filepath.Join("a", "b"), "T(filepath).Join('a', 'b')"},
		{".go", "T(filepath).Ext('x.go')"},
		{true, "5 instanceof T(Integer)"},
		{true, "'s' instanceof T(String)"},
		{true, "3L instanceof T(java.lang.Long)"},
		{false, "3 instanceof T(Long)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v (%T), want %#v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestTypes_Errors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{"T(Integer).parseInt('x')", diag.FunctionReferenceInvocation},
		{"new Integer('x')", diag.ConstructorInvocationProblem},
		{"T(Nope)", diag.TypeNotFound},
		{"T(Math).abs('x')", diag.FunctionReferenceInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := run(t, tt.src)
			if code, ok := diag.CodeOf(err); !ok || code != tt.code {
				t.Errorf("got error %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestMethods(t *testing.T) {
	vars := eval.WithVariables(map[string]any{
		"nums":  []int{3, 1, 2},
		"arr":   [2]string{"x", "y"},
		"ages":  map[string]int{"bo": 7, "al": 9},
		"ids":   map[int]string{1: "one", 2: "two"},
		"bag":   bag{1, 2},
		"empty": []string{},
	})

	tests := []struct {
		want any
		src  string
	}{
		{5, "'hello'.length()"},
		{5, "'héllo'.length()"},
		{"HELLO", "'hello'.toUpperCase()"},
		{"hello", "'HeLLo'.toLowerCase()"},
		{"x", "'  x '.trim()"},
		{"e", "'hello'.charAt(1)"},
		{"é", "'héllo'.charAt(1)"},
		{"el", "'hello'.substring(1, 3)"},
		{"llo", "'hello'.substring(2)"},
		{true, "'abc'.contains('b')"},
		{true, "'abc'.startsWith('ab')"},
		{false, "'abc'.endsWith('b')"},
		{2, "'hello'.indexOf('l')"},
		{2, "'héllo'.indexOf('l')"},
		{-1, "'hello'.indexOf('z')"},
		{[]string{"a", "b"}, "'a,b,,'.split(',')"},
		{[]string{"a", "b", "c"}, "'a1b22c'.split('[0-9]+')"},
		{"axc", "'abc'.replace('b', 'x')"},
		{true, "''.isEmpty()"},
		{"abcd", "'ab'.concat('cd')"},
		{true, "'abc'.equals('abc')"},
		{"abab", "'ab'.repeat(2)"},
		{3, "#nums.size()"},
		{1, "#nums.get(1)"},
		{true, "#nums.contains(2)"},
		{false, "#nums.contains(9)"},
		{2, "#nums.indexOf(2)"},
		{true, "#empty.isEmpty()"},
		{2, "#arr.size()"},
		{"y", "#arr.get(1)"},
		{3, "{1, 2, 3}.size()"},
		{2, "#ages.size()"},
		{9, "#ages.get('al')"},
		{nil, "#ages.get('zz')"},
		{true, "#ages.containsKey('bo')"},
		{false, "#ages.containsKey(1)"},
		{true, "#ages.containsValue(7)"},
		{[]any{"al", "bo"}, "#ages.keySet()"},
		{[]any{9, 7}, "#ages.values()"},
		{"two", "#ids.get(2)"},
		{"one", "#ids.get(1L)"},
		{[]any{1, 2}, "#ids.keySet()"},
		{42, "#bag.size()"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := run(t, tt.src, vars)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v (%T), want %#v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestMethods_Errors(t *testing.T) {
	vars := eval.WithVariable("nums", []int{1})

	tests := []struct {
		src  string
		code diag.Code
	}{
		{"'abc'.substring(2, 9)", diag.ExceptionDuringMethodInvocation},
		{"'abc'.charAt(-1)", diag.ExceptionDuringMethodInvocation},
		{"#nums.get(3)", diag.ExceptionDuringMethodInvocation},
		{"'abc'.split('[')", diag.ExceptionDuringMethodInvocation},
		{"'abc'.nope()", diag.MethodNotFound},
		{"'abc'.length(1)", diag.MethodNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := run(t, tt.src, vars)
			if code, ok := diag.CodeOf(err); !ok || code != tt.code {
				t.Errorf("got error %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestMethods_Guard(t *testing.T) {
	var r stdlib.Methods

	ctx := stdlib.NewContext()

	m, err := r.ResolveMethod(ctx, "abc", "length", nil)
	if err != nil || m == nil {
		t.Fatalf("resolve: %v, %v", m, err)
	}

	if !m.Static() {
		t.Errorf("expected static result type, got %v", m.Result)
	}

	if _, err := m.Call(ctx, []int{1}, nil); !diag.IsFallback(err) {
		t.Errorf("expected fallback guard error, got %v", err)
	}

	if m, _ := r.ResolveMethod(ctx, 5, "length", nil); m != nil {
		t.Errorf("expected no member for int target, got %v", m)
	}
}

func TestFunctions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")

	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("XEL_TEST_VALUE", "42")

	vars := eval.WithVariables(map[string]any{"dir": dir, "file": file})

	tests := []struct {
		want any
		src  string
	}{
		{"42", "#env('XEL_TEST_VALUE')"},
		{"", "#env('XEL_TEST_UNSET_VALUE')"},
		{true, "#exists(#dir)"},
		{true, "#isDir(#dir)"},
		{false, "#isDir(#file)"},
		{true, "#isRegular(#file)"},
		{false, "#isSymlink(#file)"},
		{false, "#exists(#dir + '/missing')"},
		{filepath.Join("a", "b", "c"), "#cat('a', 'b', 'c')"},
		{"f.txt", "#rel(#dir, #file)"},
		{true, "#abs('.') == #cwd()"},
		{5, "#len('héllo')"},
		{3, "#len({1, 2, 3})"},
		{[]string{"a", "b"}, "#keys({b: 1, a: 2})"},
		{"a=1", "#sprintf('%s=%d', 'a', 1)"},
		{90 * time.Second, "#duration('1m30s')"},
		{true, "#now() instanceof T(time.Time)"},
		{true, "#platform().OS != ''"},
		{true, "#target().Arch != ''"},
		{true, "#hostname() instanceof T(String)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := run(t, tt.src, vars)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v (%T), want %#v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestFunctions_PathPrefix(t *testing.T) {
	dir := t.TempDir()
	sep := string(os.PathListSeparator)
	list := strings.Join([]string{"/usr/bin", "/bin"}, sep)

	got, err := run(t, "#pathPrefix(#list, '/opt/bin')", eval.WithVariable("list", list))
	if err != nil {
		t.Fatal(err)
	}

	s, _ := got.(string)
	if !strings.HasPrefix(s, "/opt/bin") || !strings.Contains(s, "/usr/bin") {
		t.Errorf("unexpected list %q", s)
	}

	got, err = run(t, "#pathPrefixIf(#list, #isDir, #dir)",
		eval.WithVariables(map[string]any{"list": list, "dir": dir}))
	if err != nil {
		t.Fatal(err)
	}

	if s, _ := got.(string); !strings.Contains(s, dir) {
		t.Errorf("expected %q in %q", dir, s)
	}
}

func TestFunctions_Copy(t *testing.T) {
	fns := stdlib.Functions()
	delete(fns, "env")

	if _, ok := stdlib.Functions()["env"]; !ok {
		t.Error("deleting from a copy changed the builtin functions")
	}
}
