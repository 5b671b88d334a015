package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/xel/pkg"
)

// baseConfig is the name of the configuration file in [pkg.ConfigDir].
const baseConfig = "config.yaml"

const dirMode os.FileMode = 0o700

// configPath joins elem to the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}
