package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/xel/log"
)

func ExampleMake() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
	)

	logger.Info("server started", slog.Int("port", 8080))
	logger.Debug("not shown")

	// Output:
	// level=INFO msg="server started" port=8080
}

func ExampleLogger_Component() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
		log.WithLevel(log.LevelTrace),
	)

	parser := logger.Component("parser")
	parser.Trace("parsed", slog.Int("nodes", 3))

	// Output:
	// level=TRACE msg=parsed component=parser nodes=3
}

func ExampleNewContext() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
	)

	ctx := log.NewContext(context.Background(), logger.Component("repl"))
	log.FromContext(ctx).WarnContext(ctx, "history unavailable")

	// Output:
	// {"level":"WARN","msg":"history unavailable","component":"repl"}
}
