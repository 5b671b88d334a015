package log

import (
	"io"
	"testing"
	"time"
)

//nolint:gochecknoglobals
var stamp = time.Date(2024, 3, 9, 17, 4, 5, 987654321, time.UTC)

func TestMakeFormatTimeFunc(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"named", "RFC3339", "2024-03-09T17:04:05Z"},
		{"named nano", "RFC3339Nano", "2024-03-09T17:04:05.987654321Z"},
		{"separators ignored", "rfc-3339-nano", "2024-03-09T17:04:05.987654321Z"},
		{"kitchen", "Kitchen", "5:04PM"},
		{"short alias", "ms", "Mar  9 17:04:05.987"},
		{"datetime", "DateTime", "2024-03-09 17:04:05"},
		{"verbatim", "2006/01/02", "2024/03/09"},
		{"none", "none", ""},
		{"empty", "", ""},
		{"blank", " \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := makeFormatTimeFunc(tt.layout)(stamp); got != tt.want {
				t.Errorf("layout %q: got %q, want %q", tt.layout, got, tt.want)
			}
		})
	}
}

func TestMakeConfig_Defaults(t *testing.T) {
	c := makeConfig(nil)

	if c.output != io.Discard {
		t.Error("nil writer should discard")
	}

	if c.level != DefaultLevel || c.format != DefaultFormat {
		t.Errorf("got level %v format %v", c.level, c.format)
	}

	if c.caller != DefaultCaller || c.pretty != DefaultPretty {
		t.Errorf("got caller %v pretty %v", c.caller, c.pretty)
	}

	if got := c.formatTime(stamp); got != stamp.Format(DefaultTimeLayout) {
		t.Errorf("default time %q", got)
	}
}

func TestOptions_ApplyInOrder(t *testing.T) {
	c := makeConfig(io.Discard,
		WithLevel(LevelError),
		WithFormat(FormatText),
		WithCaller(true),
		WithPretty(false),
		WithLevel(LevelTrace),
	)

	if c.level != LevelTrace {
		t.Errorf("level = %v, want trace", c.level)
	}

	if c.format != FormatText || !c.caller || c.pretty {
		t.Errorf("unexpected config %+v", c)
	}

	reset := apply(c, WithDefaults(io.Discard))
	if reset.level != DefaultLevel || reset.caller {
		t.Error("WithDefaults did not reset")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvFormat, "text")
	t.Setenv(EnvTime, "none")

	c := makeConfig(nil, FromEnv())

	if c.level != LevelDebug {
		t.Errorf("level = %v, want debug", c.level)
	}

	if c.format != FormatText {
		t.Errorf("format = %v, want text", c.format)
	}

	if s := c.formatTime(stamp); s != "" {
		t.Errorf("timestamp %q, want none", s)
	}
}

func BenchmarkFormatTime(b *testing.B) {
	for _, layout := range []string{"RFC3339", "RFC3339Nano", "2006-01-02"} {
		f := makeFormatTimeFunc(layout)

		b.Run(layout, func(b *testing.B) {
			for b.Loop() {
				_ = f(stamp)
			}
		})
	}
}
