// Package cli contains the command line interface for xel.
//
// # Usage
//
// Each subcommand evaluates or inspects expressions written in the xel
// expression language:
//
//	xel eval "1 + 2 * 3"
//	xel eval -r server.yaml "server.host + ':' + server.port"
//	xel eval -v name="'world'" "'hello, ' + #name"
//	xel ast -f json "a?.b ?: 'none'"
//	xel repl -m mixed
//	xel init
//
// # Root Object
//
// The --root flag names YAML documents that are decoded and merged, in
// order, into the root object against which unqualified property
// references resolve. A "-" reads standard input. Later documents override
// keys of earlier ones; nested maps merge recursively.
//
// # Configuration Loader
//
// Flag defaults are read from a YAML file in the user config directory
// ([resolveYAML]). Keys name flags without their leading dashes. A key
// nested under a command name applies only to that command:
//
//	log-level: debug
//	eval:
//	  mode: mixed
//	  threshold: 10
//
// The init command writes the current flag values to this file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// The level, format, and time layout also default to the XEL_LOG_LEVEL,
// XEL_LOG_FORMAT, and XEL_LOG_TIME environment variables.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o xel .
//
// The profiling flags are then:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/xel/pprof)
//
// # Examples
//
//	# Watch the compiler take over a repeated expression
//	xel --log-level=trace eval -m mixed --threshold 3 -n 5 "1 + 2"
//
//	# CPU profile of a long evaluation loop
//	xel --pprof-mode=cpu eval -m immediate -n 100000 "#cat('a', 'b')"
package cli
