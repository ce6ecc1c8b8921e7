package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/fx"
)

type appStub struct {
	buildErr error
	startErr error
	stopErr  error
	done     chan fx.ShutdownSignal
	started  bool
	stopped  bool
}

func (a *appStub) Start(context.Context) error {
	a.started = true
	return a.startErr
}

func (a *appStub) Stop(context.Context) error {
	a.stopped = true
	return a.stopErr
}

func (a *appStub) Wait() <-chan fx.ShutdownSignal { return a.done }

func (a *appStub) Err() error { return a.buildErr }

func TestRunStopsOnContextCancel(t *testing.T) {
	app := &appStub{done: make(chan fx.ShutdownSignal)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stderr bytes.Buffer
	if code := run(ctx, app, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d (%s)", code, stderr.String())
	}
	if !app.started || !app.stopped {
		t.Fatalf("expected start and stop, got %+v", app)
	}
}

func TestRunPropagatesShutdownExitCode(t *testing.T) {
	app := &appStub{done: make(chan fx.ShutdownSignal, 1)}
	app.done <- fx.ShutdownSignal{ExitCode: 3}

	if code := run(context.Background(), app, &bytes.Buffer{}); code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name    string
		app     *appStub
		message string
	}{
		{name: "build", app: &appStub{buildErr: errors.New("missing type")}, message: "failed to build"},
		{name: "start", app: &appStub{startErr: errors.New("port in use")}, message: "failed to start"},
		{name: "stop", app: &appStub{stopErr: errors.New("timeout"), done: make(chan fx.ShutdownSignal)}, message: "failed to stop"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			var stderr bytes.Buffer
			if code := run(ctx, tc.app, &stderr); code != 1 {
				t.Fatalf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), tc.message) {
				t.Fatalf("expected %q in %q", tc.message, stderr.String())
			}
		})
	}
}
