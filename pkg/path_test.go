package pkg

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestExecutableName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/usr/local/bin/xel", "xel"},
		{`C:\bin\xel.exe`, "xel"},
		{"/tmp/__debug_bin3521", Name},
		{"/tmp/__debug_bin", Name},
		{"/home/u/.calc.sh", "calc"},
		{"/home/u/..", Name},
		{"calc.test", "calc"},
	}

	for _, tt := range tests {
		if filepath.Separator != '\\' && tt.path[0] == 'C' {
			continue
		}

		if got := executableName(tt.path); got != tt.want {
			t.Errorf("executableName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestUserDir(t *testing.T) {
	dir := t.TempDir()

	t.Run("env override", func(t *testing.T) {
		t.Setenv(EnvCacheDir, dir+string(filepath.Separator)+".")

		got := userDir(EnvCacheDir, func() (string, error) {
			t.Error("base consulted despite override")

			return "", nil
		}, ".cache")
		if got != dir {
			t.Errorf("got %q, want %q", got, dir)
		}
	})

	t.Run("base", func(t *testing.T) {
		t.Setenv(EnvCacheDir, "")

		got := userDir(EnvCacheDir, func() (string, error) { return dir, nil }, ".cache")
		if want := filepath.Join(dir, Prefix()); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		t.Setenv("HOME", dir)

		got := userDir(EnvConfigDir, func() (string, error) {
			return "", errors.New("unset")
		}, ".config")
		if want := filepath.Join(dir, ".config", Prefix()); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
