package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyHandler writes colorized records, either as key=value pairs on
// one line or as an indented JSON-like block. Group names are folded into
// dotted keys.
type prettyHandler struct {
	w          io.Writer
	mu         *sync.Mutex
	formatTime FormatTime
	prefix     string
	attrs      []slog.Attr
	level      Level
	format     Format
	caller     bool
}

func newPrettyHandler(c config) *prettyHandler {
	return &prettyHandler{
		w:          c.output,
		mu:         &sync.Mutex{},
		formatTime: c.formatTime,
		level:      c.level,
		format:     c.format,
		caller:     c.caller,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.level)
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() && h.formatTime != nil {
		if s := h.formatTime(r.Time); s != "" {
			fields = append(fields, slog.String(slog.TimeKey, s))
		}
	}

	fields = append(fields, slog.Any(slog.LevelKey, r.Level))

	if h.caller {
		if src := r.Source(); src != nil {
			fields = append(fields,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	if h.format == FormatJSON {
		writeBlock(&buf, fields)
	} else {
		writeLine(&buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(c.attrs)

	for _, a := range attrs {
		c.attrs = flatten(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix += name + "."

	return &c
}

// flatten appends a to out with its key qualified by prefix, resolving
// [slog.LogValuer] values and expanding groups.
func flatten(out []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range a.Value.Group() {
			out = flatten(out, prefix, g)
		}

		return out
	}

	if a.Equal(slog.Attr{}) {
		return out
	}

	a.Key = prefix + a.Key

	return append(out, a)
}

// writeLine writes fields as space-separated key=value pairs.
func writeLine(buf *bytes.Buffer, fields []slog.Attr) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(colorGray + a.Key + colorReset + "=")
		writeValue(buf, a)
	}

	buf.WriteByte('\n')
}

// writeBlock writes fields one per line between braces.
func writeBlock(buf *bytes.Buffer, fields []slog.Attr) {
	buf.WriteString("{\n")

	for i, a := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  " + colorGray + a.Key + colorReset + ": ")
		writeValue(buf, a)
	}

	buf.WriteString("\n}\n")
}

func writeValue(buf *bytes.Buffer, a slog.Attr) {
	color, text := paint(a.Value)
	if a.Key == slog.TimeKey {
		color = colorBlue
	}

	buf.WriteString(color + text + colorReset)
}

// paint returns the color and text of v.
func paint(v slog.Value) (color, text string) {
	switch v.Kind() {
	case slog.KindString:
		return colorCyan, v.String()

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return colorYellow, v.String()

	case slog.KindBool:
		if v.Bool() {
			return colorGreen, "true"
		}

		return colorRed, "false"

	case slog.KindDuration:
		return colorMagenta, v.Duration().String()

	case slog.KindTime:
		return colorBlue, v.Time().Format(time.RFC3339)
	}

	switch x := v.Any().(type) {
	case nil:
		return colorGray, "null"

	case slog.Level:
		switch {
		case x >= slog.LevelError:
			color = colorRed
		case x >= slog.LevelWarn:
			color = colorYellow
		case x >= slog.LevelInfo:
			color = colorGreen
		default:
			color = colorBlue
		}

		return color, levelName(x)

	case error:
		return colorRed, x.Error()
	}

	return colorCyan, v.String()
}
