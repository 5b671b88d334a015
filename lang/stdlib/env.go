package stdlib

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/ardnew/mung"
)

// Target identifies an operating system and instruction set architecture.
type Target struct {
	OS   string
	Arch string
}

func (t Target) String() string { return t.OS + "/" + t.Arch }

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() Target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions, honoring the
// GOHOSTOS/GOOS and GOHOSTARCH/GOARCH overrides.
func getPlatform() Target {
	return Target{
		OS:   firstEnv(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: firstEnv(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

func firstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
	}

	return fallback
}

func getEnv(key string) string { return os.Getenv(key) }

func getHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}

	return h
}

func getUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}

// getShell returns $SHELL, or the login shell of the current user from
// /etc/passwd.
func getShell() string {
	if sh, ok := os.LookupEnv("SHELL"); ok {
		return sh
	}

	name := getUser()
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		if e := strings.Split(s.Text(), ":"); len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string { return filepath.Join(elem...) }

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// pathPrefix prepends items to the PATH-like list, removing duplicates.
func pathPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// pathPrefixIf is like pathPrefix but keeps only the items accepted by
// predicate.
func pathPrefixIf(list string, predicate func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// length returns the number of elements of a string (in runes), slice,
// array, or map.
func length(v any) (int, error) {
	if s, ok := v.(string); ok {
		return len([]rune(s)), nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), nil
	default:
		return 0, fmt.Errorf("cannot take length of %T", v)
	}
}

// keys returns the keys of a string-keyed map in sorted order.
func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

func sprintf(format string, args ...any) string { return fmt.Sprintf(format, args...) }

func now() time.Time { return time.Now() }

func duration(s string) (time.Duration, error) { return time.ParseDuration(s) }
