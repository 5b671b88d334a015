package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"time"
)

// ComponentKey is the attribute key added by [Logger.Component].
const ComponentKey = "component"

// Logger writes structured records at the levels of this package.
// A Logger is an immutable value and safe for concurrent use; the zero
// Logger discards everything.
type Logger struct {
	*slog.Logger
	config
}

// Make returns a logger writing to w, configured by [WithDefaults] and
// then opts.
func Make(w io.Writer, opts ...Option) Logger {
	return build(makeConfig(w, opts...))
}

// Discard returns a logger that writes nothing.
func Discard() Logger {
	return Logger{
		Logger: slog.New(slog.DiscardHandler),
		config: makeConfig(io.Discard),
	}
}

func build(c config) Logger {
	return Logger{Logger: slog.New(c.handler()), config: c}
}

// Wrap returns a logger configured like l and then by opts. Attributes
// added with [Logger.With] are kept.
func (l Logger) Wrap(opts ...Option) Logger {
	base := l.config
	if base.formatTime == nil {
		base = makeConfig(nil)
	}

	return build(apply(base, opts...))
}

// With returns a logger that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil || len(attrs) == 0 {
		return l
	}

	l.attrs = append(slices.Clip(l.attrs), attrs...)
	l.Logger = slog.New(l.Handler().WithAttrs(attrs))

	return l
}

// Component returns a logger that tags every record with the name of the
// subsystem writing it.
func (l Logger) Component(name string) Logger {
	return l.With(slog.String(ComponentKey, name))
}

// Level returns the minimum level of records written.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	return l.level
}

// Format returns the record encoding.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	return l.format
}

// TraceContext logs at [LevelTrace].
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelTrace, msg, attrs)
}

// Trace logs at [LevelTrace].
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelTrace, msg, attrs)
}

// DebugContext logs at [LevelDebug].
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelDebug, msg, attrs)
}

// Debug logs at [LevelDebug].
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelDebug, msg, attrs)
}

// InfoContext logs at [LevelInfo].
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelInfo, msg, attrs)
}

// Info logs at [LevelInfo].
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelInfo, msg, attrs)
}

// WarnContext logs at [LevelWarn].
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelWarn, msg, attrs)
}

// Warn logs at [LevelWarn].
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelWarn, msg, attrs)
}

// ErrorContext logs at [LevelError].
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelError, msg, attrs)
}

// Error logs at [LevelError].
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelError, msg, attrs)
}

// callerSkip skips runtime.Callers, [Logger.log], and the exported
// method that called it.
const callerSkip = 3

// log writes a record whose source is the caller of the exported logging
// function. It must be called directly by that function.
func (l Logger) log(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil || !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pcs [1]uintptr
	if l.caller {
		runtime.Callers(callerSkip, pcs[:])
	}

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])
	r.AddAttrs(attrs...)

	_ = l.Handler().Handle(ctx, r)
}
