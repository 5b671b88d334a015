package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Environment variables applied by [FromEnv].
const (
	EnvLevel  = "XEL_LOG_LEVEL"
	EnvFormat = "XEL_LOG_FORMAT"
	EnvTime   = "XEL_LOG_TIME"
)

// FormatTime renders a record timestamp. An empty result omits the
// timestamp.
type FormatTime func(time.Time) string

const (
	// DefaultTimeLayout is the timestamp layout of a logger configured
	// without [WithTimeLayout].
	DefaultTimeLayout = time.RFC3339
	// DefaultCaller is whether records carry their source location.
	DefaultCaller = false
	// DefaultPretty is whether records are colorized.
	DefaultPretty = true
)

// config is the immutable description a [Logger] builds its handler from.
type config struct {
	output     io.Writer
	formatTime FormatTime
	attrs      []slog.Attr
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// Option modifies a logger configuration.
type Option func(config) config

func apply(c config, opts ...Option) config {
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

func makeConfig(w io.Writer, opts ...Option) config {
	return apply(config{}, append([]Option{WithDefaults(w)}, opts...)...)
}

// handler returns a new handler for c with its attributes attached.
func (c config) handler() slog.Handler {
	if c.output == nil {
		return slog.DiscardHandler
	}

	var h slog.Handler

	opts := &slog.HandlerOptions{
		AddSource:   c.caller,
		Level:       slog.Level(c.level),
		ReplaceAttr: c.replaceAttr,
	}

	switch {
	case c.pretty:
		h = newPrettyHandler(c)
	case c.format == FormatJSON:
		h = slog.NewJSONHandler(c.output, opts)
	case c.format == FormatText:
		h = slog.NewTextHandler(c.output, opts)
	default:
		return slog.DiscardHandler
	}

	if len(c.attrs) > 0 {
		h = h.WithAttrs(c.attrs)
	}

	return h
}

// replaceAttr formats the builtin time and level attributes.
func (c config) replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			s := c.formatTime(t)
			if s == "" {
				return slog.Attr{}
			}

			a.Value = slog.StringValue(s)
		}

	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(l))
		}
	}

	return a
}

// WithDefaults resets every setting to its default and writes to w.
// A nil w discards output.
func WithDefaults(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		return config{
			output:     w,
			formatTime: makeFormatTimeFunc(DefaultTimeLayout),
			level:      DefaultLevel,
			format:     DefaultFormat,
			caller:     DefaultCaller,
			pretty:     DefaultPretty,
		}
	}
}

// WithOutput sets the writer records are written to. A nil w discards
// output.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		c.output = w

		return c
	}
}

// WithLevel sets the minimum level of records written.
func WithLevel(level Level) Option {
	return func(c config) config {
		c.level = level

		return c
	}
}

// WithFormat sets the record encoding.
func WithFormat(format Format) Option {
	return func(c config) config {
		c.format = format

		return c
	}
}

// WithTimeLayout sets the timestamp layout. The layout is either the
// name of a layout from the [time] package, such as "RFC3339Nano" or
// "Kitchen", or a layout passed verbatim to [time.Time.Format]. A blank
// layout, or "none", omits timestamps.
func WithTimeLayout(layout string) Option {
	return func(c config) config {
		c.formatTime = makeFormatTimeFunc(layout)

		return c
	}
}

// WithCaller sets whether records carry their source location.
func WithCaller(enable bool) Option {
	return func(c config) config {
		c.caller = enable

		return c
	}
}

// WithPretty sets whether records are colorized. Pretty text omits
// quotes around values; pretty JSON puts each field on its own line.
func WithPretty(enable bool) Option {
	return func(c config) config {
		c.pretty = enable

		return c
	}
}

// FromEnv applies whichever of the XEL_LOG_LEVEL, XEL_LOG_FORMAT, and
// XEL_LOG_TIME variables are set in the environment.
func FromEnv() Option {
	return func(c config) config {
		if s, ok := os.LookupEnv(EnvLevel); ok {
			c.level = ParseLevel(s)
		}

		if s, ok := os.LookupEnv(EnvFormat); ok {
			c.format = ParseFormat(s)
		}

		if s, ok := os.LookupEnv(EnvTime); ok {
			c.formatTime = makeFormatTimeFunc(s)
		}

		return c
	}
}

// timeLayout maps normalized layout names to layouts.
//
//nolint:gochecknoglobals
var timeLayout = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"datetime":    time.DateTime,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rubydate":    time.RubyDate,
	"rfc822":      time.RFC822,
	"rfc822z":     time.RFC822Z,
	"rfc850":      time.RFC850,
	"kitchen":     time.Kitchen,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"ms":          time.StampMilli,
	"stampmicro":  time.StampMicro,
	"us":          time.StampMicro,
	"stampnano":   time.StampNano,
	"ns":          time.StampNano,
	"none":        "",
}

// makeFormatTimeFunc resolves layout by name, ignoring case and any
// character other than letters and digits, or else uses it verbatim.
func makeFormatTimeFunc(layout string) FormatTime {
	key := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}

		return -1
	}, strings.ToLower(layout))

	if key == "" {
		return func(time.Time) string { return "" }
	}

	if std, ok := timeLayout[key]; ok {
		layout = std
	}

	if layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
