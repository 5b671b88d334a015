package repl

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/stdlib"
	"github.com/ardnew/xel/log"
)

func testSession(t *testing.T, root any) *session {
	t.Helper()

	ectx := stdlib.NewContext()
	ectx.SetRoot(root)

	return newSession(ectx, log.Default(), lang.ModeOff)
}

func testModel(t *testing.T, root any) model {
	t.Helper()

	history := NewHistory(filepath.Join(t.TempDir(), baseHistory))

	return newModel(context.Background(), testSession(t, root), nil, history, log.Default())
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "#double(fo", 10, "fo", 8, 10},
		{"after_comma", "#add(a, fo", 10, "fo", 8, 10},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_elvis", "x ?: fo", 7, "fo", 5, 7},
		{"after_reference", "#va", 3, "va", 1, 3},
		{"after_safe_nav", "a?.fo", 5, "fo", 3, 5},
		{"inside_selection", "list.?[fo", 9, "fo", 7, 9},
		{"inside_map", "{a:fo", 5, "fo", 3, 5},
		{"after_quote", "'fo", 3, "fo", 1, 3},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"empty_after_dot", "config.", 7, "", 7, 7},
		{"cursor_past_end", "foo", 10, "foo", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTypeBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"empty", "T(", 2, "", 2, 2, true},
		{"partial", "T(Int", 5, "Int", 2, 5, true},
		{"qualified", "T(java.lang.St", 14, "java.lang.St", 2, 14, true},
		{"with_space", "T( str", 6, "str", 3, 6, true},
		{"after_operator", "1 + T(Ma", 8, "Ma", 6, 8, true},
		{"mid_name", "T(Math).PI", 4, "Math", 2, 6, true},
		{"not_type", "#f(Int", 6, "", 6, 6, false},
		{"plain", "Int", 3, "", 3, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end, ok := typeBounds(tt.input, tt.cursor)
			if ok != tt.wantOK {
				t.Fatalf("typeBounds(%q, %d) ok = %v, want %v", tt.input, tt.cursor, ok, tt.wantOK)
			}

			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("typeBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_equals", "x = a.b.", 8, "a.b"},
		{"safe_navigation", "a?.b?.", 6, "a?.b"},
		{"variable", "#cfg.", 5, "#cfg"},
		{"variable_chain", "x + #cfg?.server.", 17, "#cfg?.server"},
		{"after_reference_operator", "1+#cfg.", 7, "#cfg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestCompletionScope(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wordStart  int
		wantScope  scope
		wantParent string
	}{
		{"start", "se", 0, scopeRoot, ""},
		{"after_operator", "1 + se", 4, scopeRoot, ""},
		{"reference", "#en", 1, scopeReference, ""},
		{"member", "server.ho", 7, scopeMember, "server"},
		{"safe_member", "server?.ho", 8, scopeMember, "server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, parent := completionScope(tt.input, tt.wordStart)
			if sc != tt.wantScope || parent != tt.wantParent {
				t.Errorf("completionScope(%q, %d) = (%d, %q), want (%d, %q)",
					tt.input, tt.wordStart, sc, parent, tt.wantScope, tt.wantParent)
			}
		})
	}
}

func TestComputeMatches(t *testing.T) {
	root := map[string]any{
		"server":  map[string]any{"host": "localhost", "port": 8080},
		"service": "api",
	}

	tests := []struct {
		name      string
		mode      inputMode
		input     string
		wantScope scope
		want      []string // must appear among matches
		wantNone  bool
	}{
		{name: "empty", input: "", wantNone: true},
		{name: "root", input: "ser", wantScope: scopeRoot, want: []string{"server", "service"}},
		{name: "member", input: "server.", wantScope: scopeMember, want: []string{"host", "port"}},
		{name: "member_partial", input: "server.ho", wantScope: scopeMember, want: []string{"host"}},
		{name: "reference", input: "#", wantScope: scopeReference, want: []string{"env", "cat"}},
		{name: "type", input: "T(str", wantScope: scopeType, want: []string{"strings"}},
		{name: "unknown_member", input: "nothing.", wantNone: true},
		{name: "after_operator", input: "1 + ", wantNone: true},
		{name: "command", mode: modeCtrl, input: "he", want: []string{"help"}},
		{name: "command_empty", mode: modeCtrl, input: "", wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, root)
			m.mode = tt.mode
			m.input.SetValue(tt.input)
			m.input.SetCursor(len(tt.input))

			matches, _, sc, _, _ := m.computeMatches()

			if tt.wantNone {
				if len(matches) != 0 {
					t.Errorf("computeMatches(%q) = %d matches, want none", tt.input, len(matches))
				}

				return
			}

			if tt.mode == modeEval && sc != tt.wantScope {
				t.Errorf("computeMatches(%q) scope = %d, want %d", tt.input, sc, tt.wantScope)
			}

			var got []string
			for _, match := range matches {
				got = append(got, match.Str)
			}

			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("computeMatches(%q) = %v, missing %q", tt.input, got, w)
				}
			}
		})
	}
}

func TestReplaceCurrentWord(t *testing.T) {
	m := testModel(t, map[string]any{"server": 1})
	m.input.SetValue("1 + ser * 2")
	m.input.SetCursor(7)

	refreshMatches(&m, false)
	replaceCurrentWord(&m, "server")

	if got, want := m.input.Value(), "1 + server * 2"; got != want {
		t.Errorf("input = %q, want %q", got, want)
	}

	if got, want := m.input.Position(), 10; got != want {
		t.Errorf("cursor = %d, want %d", got, want)
	}
}

func TestRenderCandidateBar(t *testing.T) {
	m := testModel(t, map[string]any{"alpha": 1, "alpine": 2, "beta": 3})
	m.input.SetValue("al")
	m.input.SetCursor(2)

	matches, _, _, _, _ := m.computeMatches()
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	if got := renderCandidateBar(matches, -1, false, 0, nil); got != "" {
		t.Errorf("renderCandidateBar with zero width = %q, want empty", got)
	}

	if got := renderCandidateBar(nil, -1, false, 80, nil); got != "" {
		t.Errorf("renderCandidateBar with no matches = %q, want empty", got)
	}

	if got := renderCandidateBar(matches, 0, true, 80, nil); got == "" {
		t.Error("renderCandidateBar returned empty output")
	}
}
