package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/xel/log"
)

// logLevel reconfigures the default logger as soon as kong decodes it, so
// that parse errors are already reported at the requested level.
type logLevel string

func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

// logFormat reconfigures the default logger as soon as kong decodes it.
type logFormat string

func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevel}"      enum:"${logLevels}"  env:"XEL_LOG_LEVEL"  help:"Minimum log level (${enum})"`
	Format     logFormat `default:"${logFormat}"     enum:"${logFormats}" env:"XEL_LOG_FORMAT" help:"Log record format (${enum})"`
	TimeLayout string    `default:"${logTimeLayout}" env:"XEL_LOG_TIME"   help:"Timestamp layout name or Go time layout, or none"`
	Caller     bool      `default:"${logCaller}"     help:"Include the source location of each record" negatable:""`
	Pretty     bool      `default:"${logPretty}"     help:"Colorize log records"                      negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":      log.DefaultLevel.String(),
		"logLevels":     strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":     log.DefaultFormat.String(),
		"logFormats":    strings.Join(slices.Collect(log.Formats()), ","),
		"logTimeLayout": "RFC3339",
		"logCaller":     strconv.FormatBool(log.DefaultCaller),
		"logPretty":     strconv.FormatBool(log.DefaultPretty),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// options returns the logger options selected by f.
func (f *logConfig) options() []log.Option {
	return []log.Option{
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	}
}

// start applies the parsed flags to the default logger.
func (f *logConfig) start(ctx context.Context) {
	log.Config(f.options()...)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// logFlag applies the value of one logger flag found by [logConfig.scan].
type logFlag struct {
	apply   func(value string) error
	boolean bool
}

func (f *logConfig) flags() map[string]logFlag {
	setBool := func(dst *bool, opt func(bool) log.Option) func(string) error {
		return func(s string) error {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}

			*dst = v
			log.Config(opt(v))

			return nil
		}
	}

	return map[string]logFlag{
		"--log-level":  {apply: func(s string) error { return f.Level.UnmarshalText([]byte(s)) }},
		"--log-format": {apply: func(s string) error { return f.Format.UnmarshalText([]byte(s)) }},
		"--log-time-layout": {apply: func(s string) error {
			f.TimeLayout = s
			log.Config(log.WithTimeLayout(s))

			return nil
		}},
		"--log-caller": {apply: setBool(&f.Caller, log.WithCaller), boolean: true},
		"--log-pretty": {apply: setBool(&f.Pretty, log.WithPretty), boolean: true},
	}
}

// scan applies logger flags found anywhere in args before kong parses
// them, so that the default logger is configured before any command or
// parse error logs. Boolean flags accept a --no- prefix and an explicit
// =value. Scanning stops at "--".
func (f *logConfig) scan(args []string) {
	flags := f.flags()

	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			return
		}

		name, value, assigned := strings.Cut(args[i], "=")

		negated := false
		if rest, ok := strings.CutPrefix(name, "--no-"); ok {
			name, negated = "--"+rest, true
		}

		flag, ok := flags[name]
		if !ok || (negated && !flag.boolean) {
			continue
		}

		switch {
		case assigned:
		case flag.boolean:
			value = "true"
		case i+1 < len(args) && !strings.HasPrefix(args[i+1], "-"):
			i++
			value = args[i]
		default:
			continue
		}

		if negated {
			v, err := strconv.ParseBool(value)
			if err != nil {
				continue
			}

			value = strconv.FormatBool(!v)
		}

		_ = flag.apply(value)
	}
}
