// Package diag defines the structured errors raised while parsing and
// evaluating expressions.
//
// Every error carries a [Kind], a message [Code] with a stable identifier,
// the character span of the offending input, and optionally the expression
// source, a wrapped cause, and attributes for structured logging.
package diag

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Kind is the category of a diagnostic.
type Kind uint8

const (
	KindParse      Kind = iota + 1 // parse
	KindEvaluation                 // evaluation
	KindFallback                   // fallback
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindEvaluation:
		return "evaluation"
	case KindFallback:
		return "fallback"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ErrFallback signals that a compiled expression could not handle its input
// and the interpreter must take over. It never escapes the expression façade.
//
//nolint:gochecknoglobals
var ErrFallback = New(FallbackGuard, -1, "unspecified")

// Error is a diagnostic raised by the tokenizer, parser, or interpreter.
// It implements both error and [slog.LogValuer].
type Error struct {
	err    error
	Source string
	Args   []any
	attrs  []slog.Attr
	Pos    int
	End    int
	Code   Code
	Kind   Kind
}

// New returns an error for code at character offset pos.
func New(code Code, pos int, args ...any) *Error {
	return &Error{
		Kind: code.Kind(),
		Code: code,
		Pos:  pos,
		End:  pos,
		Args: args,
	}
}

// Parse returns a parse error for code at offset pos of source.
func Parse(code Code, source string, pos int, args ...any) *Error {
	e := New(code, pos, args...)
	e.Source = source

	return e
}

// Error implements the error interface.
//
// The rendered form is "<id>: <message>", followed by the position and,
// when known, the expression source, then the wrapped cause.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Code.ID())
	sb.WriteString(": ")
	sb.WriteString(e.Message())

	if e.Pos >= 0 {
		sb.WriteString(" (pos ")
		sb.WriteString(strconv.Itoa(e.Pos))
		sb.WriteByte(')')
	}

	if e.Source != "" {
		sb.WriteString(" in expression '")
		sb.WriteString(e.Source)
		sb.WriteByte('\'')
	}

	if e.err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.err.Error())
	}

	return sb.String()
}

// Message returns the formatted message text without identifier, position,
// or source.
func (e *Error) Message() string { return e.Code.Format(e.Args...) }

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an [*Error] with the same kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Kind == t.Kind && e.Code == t.Code
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+5)
	attrs = append(attrs,
		slog.String("id", e.Code.ID()),
		slog.String("code", e.Code.String()),
		slog.String("error", e.Message()),
		slog.Int("pos", e.Pos),
	)

	if e.Source != "" {
		attrs = append(attrs, slog.String("source", e.Source))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return &c
}

// WithSource returns a copy of e that embeds the expression source.
func (e *Error) WithSource(source string) *Error {
	c := *e
	c.Source = source

	return &c
}

// WithSpan returns a copy of e positioned at [pos, end).
func (e *Error) WithSpan(pos, end int) *Error {
	c := *e
	c.Pos, c.End = pos, end

	return &c
}

// CodeOf returns the code of the first [*Error] in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}

	return 0, false
}

// KindOf returns the kind of the first [*Error] in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

// IsParse reports whether err is a parse diagnostic.
func IsParse(err error) bool { return KindOf(err) == KindParse }

// IsEvaluation reports whether err is an evaluation diagnostic.
func IsEvaluation(err error) bool { return KindOf(err) == KindEvaluation }

// IsFallback reports whether err signals a compiled-code fallback.
func IsFallback(err error) bool { return KindOf(err) == KindFallback }
