package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Environment variables overriding the directories returned by
// [ConfigDir] and [CacheDir].
const (
	EnvConfigDir = "XEL_CONFIG_DIR"
	EnvCacheDir  = "XEL_CACHE_DIR"
)

// rename rules applied in order to the executable name by [Prefix].
//
//nolint:gochecknoglobals
var rename = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`^__debug_bin\d*$`), Name}, // dlv build output
	{regexp.MustCompile(`^\.+`), ""},
}

// Prefix returns the name of the running executable without its extension
// or leading dots. A binary built by the dlv debugger is named [Name].
// Prefix names the per-user configuration and cache directories.
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return executableName(exe)
})

func executableName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, r := range rename {
		base = r.pattern.ReplaceAllString(base, r.repl)
	}

	if base == "" {
		return Name
	}

	return base
}

// ConfigDir returns the directory holding the configuration file: the
// value of XEL_CONFIG_DIR if set, or else [Prefix] under the user
// configuration directory.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(EnvConfigDir, os.UserConfigDir, ".config")
})

// CacheDir returns the directory holding transient files such as REPL
// history and profiles: the value of XEL_CACHE_DIR if set, or else
// [Prefix] under the user cache directory.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(EnvCacheDir, os.UserCacheDir, ".cache")
})

// userDir resolves a per-user directory. Without env set, it tries base,
// then hidden under the home directory, then the working directory.
func userDir(env string, base func() (string, error), hidden string) string {
	if dir := strings.TrimSpace(os.Getenv(env)); dir != "" {
		return filepath.Clean(dir)
	}

	root, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			root = filepath.Join(home, hidden)
		} else if root, err = os.Getwd(); err != nil {
			root = "."
		}
	}

	return filepath.Join(root, Prefix())
}
