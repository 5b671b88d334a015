package ast_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/parser"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()

	n, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	return n
}

func TestKind_Predicates(t *testing.T) {
	tests := []struct {
		kind       ast.Kind
		literal    bool
		relational bool
		arithmetic bool
		link       bool
	}{
		{ast.IntLiteral, true, false, false, false},
		{ast.NullLiteral, true, false, false, false},
		{ast.TypeReference, false, false, false, false},
		{ast.Lt, false, true, false, false},
		{ast.Ne, false, true, false, false},
		{ast.Plus, false, false, true, false},
		{ast.Power, false, false, true, false},
		{ast.Indexer, false, false, false, true},
		{ast.Selection, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if tt.kind.IsLiteral() != tt.literal ||
				tt.kind.IsRelational() != tt.relational ||
				tt.kind.IsArithmetic() != tt.arithmetic ||
				tt.kind.IsLink() != tt.link {
				t.Errorf("unexpected predicates for %v", tt.kind)
			}
		})
	}
}

func TestWalk_SkipsChildren(t *testing.T) {
	root := mustParse(t, "(1 + 2) * foo(3, 4)")

	var visited []ast.Kind

	ast.Walk(root, func(n *ast.Node) bool {
		visited = append(visited, n.Kind)

		return n.Kind != ast.MethodReference
	})

	want := []ast.Kind{ast.Multiply, ast.Plus, ast.IntLiteral, ast.IntLiteral, ast.MethodReference}
	if len(visited) != len(want) {
		t.Fatalf("expected %v, got %v", want, visited)
	}

	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("node %d: expected %v, got %v", i, want[i], visited[i])
		}
	}
}

func TestAll_StopsEarly(t *testing.T) {
	root := mustParse(t, "{1, 2, 3, 4}")

	count := 0
	for range ast.All(root) {
		count++
		if count == 2 {
			break
		}
	}

	if count != 2 {
		t.Errorf("expected iteration to stop at 2, got %d", count)
	}
}

func TestNumber_CountsNodes(t *testing.T) {
	root := mustParse(t, "a.b.c + #x")

	if n := ast.Number(root); n != 6 {
		t.Errorf("expected 6 nodes, got %d", n)
	}
}

func TestClone(t *testing.T) {
	root := mustParse(t, "a?.b(1, 'x') + #y")
	c := ast.Clone(root)

	var orig, copied []*ast.Node
	for n := range ast.All(root) {
		orig = append(orig, n)
	}

	for n := range ast.All(c) {
		copied = append(copied, n)
	}

	if len(orig) != len(copied) {
		t.Fatalf("expected %d nodes, got %d", len(orig), len(copied))
	}

	for i := range orig {
		o, n := orig[i], copied[i]
		if o == n {
			t.Errorf("node %d shared with the original", i)
		}

		if o.Kind != n.Kind || o.ID != n.ID || o.Name != n.Name || o.Value != n.Value ||
			o.Pos != n.Pos || o.End != n.End || o.NullSafe != n.NullSafe {
			t.Errorf("node %d: got %+v, want %+v", i, n, o)
		}
	}

	c.Children[0] = nil

	if root.Child(0) == nil {
		t.Error("modifying the copy changed the original")
	}

	if ast.Clone(nil) != nil {
		t.Error("expected nil copy of nil tree")
	}
}

func TestNode_Helpers(t *testing.T) {
	ctor := mustParse(t, "new int[2]")
	if !ctor.IsArrayConstructor() {
		t.Error("expected array constructor")
	}

	if ctor.Child(5) != nil || (*ast.Node)(nil).Child(0) != nil {
		t.Error("out-of-range child must be nil")
	}

	if mustParse(t, "-x").IsUnary() != true || mustParse(t, "1-x").IsUnary() {
		t.Error("unexpected unary classification")
	}
}

func TestFormat_Outline(t *testing.T) {
	root := mustParse(t, "a?.b + 'c'")

	var buf bytes.Buffer
	if err := ast.Format(context.Background(), &buf, root, 2); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"Plus [0,10)",
		"  CompoundExpression [0,4)",
		"    PropertyOrFieldReference a [0,1)",
		"    PropertyOrFieldReference b (null-safe) [3,4)",
		"  StringLiteral 'c' [7,10)",
		"",
	}, "\n")

	if buf.String() != want {
		t.Errorf("expected\n%s\ngot\n%s", want, buf.String())
	}
}

func TestFormatJSON_RoundTripsView(t *testing.T) {
	root := mustParse(t, "list.$[#this > 1]")

	var buf bytes.Buffer
	if err := ast.FormatJSON(context.Background(), &buf, root, 0); err != nil {
		t.Fatal(err)
	}

	var v map[string]any
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if v["kind"] != "CompoundExpression" {
		t.Errorf("unexpected kind %v", v["kind"])
	}

	children, _ := v["children"].([]any)
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %v", v["children"])
	}

	sel, _ := children[1].(map[string]any)
	if sel["value"] != "$[" {
		t.Errorf("expected selector value, got %v", sel["value"])
	}
}

func TestFormatYAML_Decodes(t *testing.T) {
	root := mustParse(t, "1 + 2L")

	var buf bytes.Buffer
	if err := ast.FormatYAML(context.Background(), &buf, root, 2); err != nil {
		t.Fatal(err)
	}

	var v struct {
		Kind     string `yaml:"kind"`
		Children []struct {
			Kind string `yaml:"kind"`
		} `yaml:"children"`
	}

	if err := yaml.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("invalid YAML %q: %v", buf.String(), err)
	}

	if v.Kind != "Plus" || len(v.Children) != 2 || v.Children[1].Kind != "LongLiteral" {
		t.Errorf("unexpected decoded tree %+v", v)
	}
}
