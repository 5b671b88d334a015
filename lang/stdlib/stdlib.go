// Package stdlib provides the builtin types, functions, and methods that
// expressions can use without any host configuration.
//
// Types are registered under the "java.lang" import so that familiar
// names such as T(Integer), T(java.lang.Math), and new String('x') work,
// alongside Go-flavored references such as T(strings) and T(filepath).
// Strings, slices, and maps gain methods like length(), size(), and
// containsKey(). Functions cover the process environment, the
// filesystem, and PATH-like list manipulation:
//
//	#env('HOME')
//	#pathPrefixIf(#env('PATH'), #isDir, '/opt/bin', '/usr/local/bin')
//	#cat(#cwd(), 'bin')
package stdlib

import (
	"maps"
	"sync"

	"github.com/ardnew/xel/lang/eval"
)

//nolint:gochecknoglobals
var functions = sync.OnceValue(func() map[string]any {
	return map[string]any{
		"env":          getEnv,
		"hostname":     getHostname,
		"user":         getUser,
		"shell":        getShell,
		"cwd":          getCwd,
		"target":       getTarget,
		"platform":     getPlatform,
		"exists":       fileExists,
		"isDir":        fileIsDir,
		"isRegular":    fileIsRegular,
		"isSymlink":    fileIsSymlink,
		"abs":          pathAbs,
		"cat":          pathCat,
		"rel":          pathRel,
		"pathPrefix":   pathPrefix,
		"pathPrefixIf": pathPrefixIf,
		"len":          length,
		"keys":         keys,
		"sprintf":      sprintf,
		"now":          now,
		"duration":     duration,
	}
})

// Functions returns a copy of the builtin functions by name.
func Functions() map[string]any { return maps.Clone(functions()) }

// NewTypeLocator returns a standard type locator with the builtin types
// registered.
func NewTypeLocator() *eval.StandardTypeLocator {
	l := eval.NewStandardTypeLocator()
	Register(l)

	return l
}

// Options returns the context options installing the builtin types,
// functions, and methods.
func Options() []eval.Option {
	opts := []eval.Option{
		eval.WithTypeLocator(NewTypeLocator()),
		eval.WithMethodResolver(Methods{}),
	}

	for name, fn := range functions() {
		opts = append(opts, eval.WithFunction(name, fn))
	}

	return opts
}

// NewContext returns an evaluation context with the builtins installed,
// followed by opts.
func NewContext(opts ...eval.Option) *eval.Context {
	return eval.NewContext(append(Options(), opts...)...)
}
