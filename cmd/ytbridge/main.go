// Package main is the entrypoint of ytbridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytbridge/internal/app"
	"ytbridge/internal/cfg"
)

func main() {
	startTime := time.Now()

	// create cancellable context for shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	runErr := func() (err error) {
		defer cleanup(startTime, &err)
		return cfg.Execute(ctx, app.Open)
	}()
	cancel()

	os.Exit(exitCode(runErr))
}

// exitCode reports runErr and maps it to a process exit code.
func exitCode(runErr error) int {
	switch {
	case runErr == nil:
		return 0
	case errors.Is(runErr, cfg.ErrDownloadFailed):
		// The failure message has already been printed.
		return 1
	default:
		fmt.Fprintf(os.Stderr, "ytbridge exiting with error: %v\n", runErr)
		return 1
	}
}
