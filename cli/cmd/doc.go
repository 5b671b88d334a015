// Package cmd implements the xel subcommands.
//
// Eval and repl share [SessionFlags], which bind variables and select the
// compiler mode. Every command reads the root object from the documents
// given to [WithSourceFiles] and logs through the logger carried by its
// context.
package cmd

// Names of the kong variables through which the CLI passes its directories
// to commands.
const (
	// CacheIdentifier holds the cache directory, where the REPL keeps its
	// history.
	CacheIdentifier = "cache"
	// ConfigIdentifier holds the path of the YAML configuration file
	// written by init.
	ConfigIdentifier = "config"
)
