// Package log wraps [log/slog] with the levels, formats, and options used
// throughout xel.
//
// A [Logger] is an immutable value. [Make] builds one from functional
// options, and [Logger.Wrap], [Logger.With], and [Logger.Component]
// derive new loggers without touching the original:
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug))
//	cache := logger.Component("cache")
//	cache.Debug("evicted", slog.Int("size", n))
//
// # Default Logger
//
// The package-level functions write through a default logger that is safe
// to replace at any time with [Config]. It starts out writing to standard
// error, configured by these environment variables when set:
//
//	XEL_LOG_LEVEL   trace, debug, info, warn, or error
//	XEL_LOG_FORMAT  json or text
//	XEL_LOG_TIME    timestamp layout, or "none"
//
// A logger travels through a call chain with [NewContext] and
// [FromContext].
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug]. The expression engine reports its
// parse, compile, and fallback decisions there, so that
//
//	XEL_LOG_LEVEL=trace xel eval -m mixed -n 5 "1 + 2"
//
// shows when an expression stops being interpreted.
//
// # Output
//
// Records are encoded as JSON or as key=value text. With [WithPretty] the
// same fields are colorized for a terminal, and group names are folded
// into dotted keys. Timestamps follow [WithTimeLayout], which accepts the
// names of the layouts in package [time].
package log
