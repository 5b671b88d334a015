package log

//go:generate go tool stringer --linecomment --type Level,Format --output level_string.go

import (
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// Level is the severity of a log record. It extends [slog.Level] with
// [LevelTrace], the level at which the expression engine reports parse,
// compile, and fallback decisions.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel is the level of a logger configured without [WithLevel].
const DefaultLevel = LevelInfo

//nolint:gochecknoglobals
var levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// Levels returns the level names in increasing severity.
func Levels() iter.Seq[string] { return names(levels) }

// ParseLevel returns the level named s, ignoring case and surrounding
// space. Besides the names yielded by [Levels] it accepts the offset form
// understood by [slog.Level.UnmarshalText], such as "debug+2". Anything
// else yields [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)

	for _, l := range levels {
		if strings.EqualFold(s, l.String()) {
			return l
		}
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// levelName renders level in upper case using this package's names, so
// that [LevelTrace] prints as TRACE instead of DEBUG-4.
func levelName(level slog.Level) string {
	return strings.ToUpper(Level(level).String())
}

// Format selects how records are encoded.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the format of a logger configured without [WithFormat].
const DefaultFormat = FormatJSON

//nolint:gochecknoglobals
var formats = []Format{FormatJSON, FormatText}

// Formats returns the format names.
func Formats() iter.Seq[string] { return names(formats) }

// ParseFormat returns the format named s, ignoring case and surrounding
// space, or [DefaultFormat] if there is none.
func ParseFormat(s string) Format {
	i := slices.IndexFunc(formats, func(f Format) bool {
		return strings.EqualFold(strings.TrimSpace(s), f.String())
	})
	if i < 0 {
		return DefaultFormat
	}

	return formats[i]
}

func names[T interface{ String() string }](values []T) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range values {
			if !yield(v.String()) {
				return
			}
		}
	}
}
