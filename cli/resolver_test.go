package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func flagNamed(name string) *kong.Flag {
	return &kong.Flag{Value: &kong.Value{Name: name}}
}

func TestResolveYAML(t *testing.T) {
	const doc = `
log-level: debug
log_format: text
log-pretty: false
threshold: 5
eval:
  mode: mixed
  threshold: 10
`

	r, err := resolveYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolveYAML: %v", err)
	}

	evalPath := &kong.Path{Command: &kong.Command{Name: "eval"}}
	replPath := &kong.Path{Command: &kong.Command{Name: "repl"}}

	tests := []struct {
		name   string
		parent *kong.Path
		flag   string
		want   any
	}{
		{"hyphenated", nil, "log-level", "debug"},
		{"underscored", nil, "log-format", "text"},
		{"boolean", nil, "log-pretty", false},
		{"number as string", nil, "threshold", "5"},
		{"command section", evalPath, "mode", "mixed"},
		{"command section wins", evalPath, "threshold", "10"},
		{"falls back to top level", replPath, "threshold", "5"},
		{"missing", nil, "log-caller", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(nil, tt.parent, flagNamed(tt.flag))
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestResolveYAML_Empty(t *testing.T) {
	r, err := resolveYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("resolveYAML: %v", err)
	}

	got, err := r.Resolve(nil, nil, flagNamed("log-level"))
	if err != nil || got != nil {
		t.Errorf("Resolve = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestResolveYAML_Invalid(t *testing.T) {
	r, err := resolveYAML(strings.NewReader("log-level: [unterminated"))
	if err != nil {
		t.Fatalf("resolveYAML: %v", err)
	}

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate: %v", err)
	}

	got, _ := r.Resolve(nil, nil, flagNamed("log-level"))
	if got != nil {
		t.Errorf("Resolve = %v, want nil", got)
	}
}
