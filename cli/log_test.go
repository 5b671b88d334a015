package cli

import (
	"os"
	"reflect"
	"testing"

	"github.com/ardnew/xel/log"
)

func TestLogConfig_Scan(t *testing.T) {
	t.Cleanup(func() { log.Config(log.WithDefaults(os.Stderr), log.FromEnv()) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate values",
			args: []string{"eval", "--log-level", "debug", "--log-format", "text", "1"},
			want: logConfig{Level: "debug", Format: "text", Pretty: true},
		},
		{
			name: "assigned values",
			args: []string{"--log-level=trace", "--log-time-layout=none", "repl"},
			want: logConfig{Level: "trace", TimeLayout: "none", Pretty: true},
		},
		{
			name: "booleans",
			args: []string{"--log-caller", "--no-log-pretty"},
			want: logConfig{Caller: true},
		},
		{
			name: "negated assignment",
			args: []string{"--no-log-pretty=false", "--log-caller=0"},
			want: logConfig{Pretty: true},
		},
		{
			name: "missing value",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true, Pretty: true},
		},
		{
			name: "stops at terminator",
			args: []string{"eval", "--", "--log-level", "error"},
			want: logConfig{Pretty: true},
		},
		{
			name: "unknown flags ignored",
			args: []string{"--log-levels", "warn", "--no-log-level", "--level=error"},
			want: logConfig{Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if !reflect.DeepEqual(f, tt.want) {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, f, tt.want)
			}
		})
	}
}

func TestLogConfig_EnvTags(t *testing.T) {
	typ := reflect.TypeFor[logConfig]()

	for field, env := range map[string]string{
		"Level":      log.EnvLevel,
		"Format":     log.EnvFormat,
		"TimeLayout": log.EnvTime,
	} {
		sf, ok := typ.FieldByName(field)
		if !ok {
			t.Fatalf("no field %s", field)
		}

		if got := sf.Tag.Get("env"); got != env {
			t.Errorf("%s env tag %q, want %q", field, got, env)
		}
	}
}

func TestLogConfig_Vars(t *testing.T) {
	var f logConfig

	vars := f.vars()

	if vars["logLevels"] != "trace,debug,info,warn,error" {
		t.Errorf("logLevels = %q", vars["logLevels"])
	}

	if vars["logFormats"] != "json,text" {
		t.Errorf("logFormats = %q", vars["logFormats"])
	}

	if vars["logLevel"] != "info" || vars["logPretty"] != "true" {
		t.Errorf("unexpected defaults %v", vars)
	}
}
