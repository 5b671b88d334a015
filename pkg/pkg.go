// Package pkg describes the xel program: its name, version, and the
// per-user directories it reads and writes.
package pkg

import (
	_ "embed"
	"strings"
)

const (
	// Name is the command name, used in help output and as the fallback
	// directory name.
	Name = "xel"
	// Description summarizes the command in help output.
	Description = "Evaluate, inspect, and compile xel expressions"
)

//go:embed VERSION
var version string

// Version returns the release version embedded from the VERSION file.
func Version() string { return strings.TrimSpace(version) }
