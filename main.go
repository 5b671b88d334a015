// Command xel evaluates expressions written in the xel expression language.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ardnew/xel/cli"
	"github.com/ardnew/xel/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.Run(ctx, func(code int) {
		stop()
		os.Exit(code)
	}, os.Args[1:]...)

	stop()

	if err != nil {
		log.Error("xel failed", slog.Any("error", err))
		os.Exit(1)
	}
}
