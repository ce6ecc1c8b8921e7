package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
)

// runner is the part of *fx.App the entrypoint drives.
type runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Wait() <-chan fx.ShutdownSignal
	Err() error
}

// run starts the application, blocks until ctx is cancelled or the app asks
// to shut down, and returns the process exit code.
func run(ctx context.Context, app runner, stderr io.Writer) int {
	if err := app.Err(); err != nil {
		fmt.Fprintf(stderr, "failed to build application: %v\n", err)
		return 1
	}

	startCtx, cancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintf(stderr, "failed to start application: %v\n", err)
		return 1
	}

	code := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		code = sig.ExitCode
	}

	stopCtx, cancelStop := context.WithTimeout(context.WithoutCancel(ctx), fx.DefaultTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(stderr, "failed to stop application: %v\n", err)
		return 1
	}
	return code
}
