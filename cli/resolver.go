package cli

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/xel/log"
)

// resolveYAML is a [kong.ConfigurationLoader] that reads a YAML configuration
// file.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolveYAML, "/path/to/config.yaml")
//
// Top-level keys name global flags. A key naming a command holds a nested
// map of that command's flags, which take precedence over top-level keys of
// the same name. Flag names may be written with hyphens or underscores:
//
//	log-level: debug
//	log_format: json
//	eval:
//	  mode: mixed
//	  threshold: 10
//
// Command-line flags override config file values. A file that cannot be
// decoded is ignored.
func resolveYAML(r io.Reader) (kong.Resolver, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	var doc map[string]any

	err := yaml.NewDecoder(ra).Decode(&doc)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Warn("ignoring invalid configuration", slog.Any("error", err))

		return config{}, nil
	}

	return config(doc), nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	parent *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if parent != nil && parent.Command != nil {
		if section, ok := r[parent.Command.Name].(map[string]any); ok {
			if value, ok := config(section).lookup(flag.Name); ok {
				return value, nil
			}
		}
	}

	if value, ok := r.lookup(flag.Name); ok {
		return value, nil
	}

	return nil, nil
}

// lookup finds name in r, trying the underscore spelling of hyphenated names.
func (r config) lookup(name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if value, ok := r[key]; ok {
			return scalar(value), true
		}
	}

	return nil, false
}

// scalar renders numbers as strings, which kong parses with the flag's own
// mapper.
func scalar(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case []any:
		s := make([]any, len(n))
		for i, e := range n {
			s[i] = scalar(e)
		}

		return s
	default:
		return v
	}
}
