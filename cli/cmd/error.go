package cmd

import (
	"errors"
	"log/slog"
	"slices"
)

// Error is a command failure. Its attributes are logged alongside the
// message when the error reaches the top level.
type Error struct {
	msg   string
	cause error
	attrs []slog.Attr
}

// NewError returns a sentinel Error. Use [Error.Wrap] and [Error.With] to
// derive errors that still match it with [errors.Is].
func NewError(msg string) *Error { return &Error{msg: msg} }

func (e *Error) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any Error with the same message.
func (e *Error) Is(target error) bool {
	var t *Error

	return errors.As(target, &t) && t.msg == e.msg
}

// LogValue groups the message, the cause, and the attributes.
func (e *Error) LogValue() slog.Value {
	attrs := slices.Grow([]slog.Attr(nil), len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e caused by err.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.cause = err

	return &c
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = append(slices.Clip(e.attrs), attrs...)

	return &c
}

// Command failures.
var (
	ErrJSONMarshal  = NewError("marshal JSON")
	ErrYAMLMarshal  = NewError("marshal YAML")
	ErrWriteConfig  = NewError("write configuration file")
	ErrFileExists   = NewError("file exists (use --force to overwrite)")
	ErrDecodeRoot   = NewError("decode root document")
	ErrBindVariable = NewError("bind variable")
	ErrInvalidMode  = NewError("invalid compiler mode")
)
