// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatcher

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
	"github.com/matt-FFFFFF/tasksh/internal/executor"
)

// Dispatcher runs control-stream commands against an executor.
type Dispatcher struct {
	exec     *executor.Executor
	registry Registry
}

// New creates a Dispatcher using the default registry.
func New(exec *executor.Executor) *Dispatcher {
	return &Dispatcher{
		exec:     exec,
		registry: DefaultRegistry,
	}
}

// WithRegistry replaces the registry used to look up commands.
func (d *Dispatcher) WithRegistry(r Registry) *Dispatcher {
	d.registry = r
	return d
}

// Execute runs one control-stream line.
// Unknown commands and invalid arguments are announced, not returned.
// ErrQuit is returned for the quit command.
func (d *Dispatcher) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name, args := fields[0], fields[1:]

	h, ok := d.registry[name]
	if !ok {
		ctxlog.Debug(ctx, "unknown command", "command", name)
		return d.exec.Announcer().UnknownCommand(name)
	}

	ctxlog.Debug(ctx, "dispatching command", "command", name, "args", args)

	err := h(ctx, d, args)

	var invalid *invalidArgument
	if errors.As(err, &invalid) {
		return d.exec.Announcer().InvalidArgument(invalid.command, invalid.arg)
	}

	return err
}

// Run reads lines from src until quit, end of input or cancellation of ctx,
// then shuts the executor down and returns the result of the shutdown.
// src is read on a separate goroutine so that cancellation is not held up
// by a blocked read.
func (d *Dispatcher) Run(ctx context.Context, src LineSource) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})

	go func() {
		defer close(lines)

		for {
			line, err := src.ReadLine()
			if err != nil {
				readErr <- err
				return
			}

			select {
			case lines <- line:
			case <-stop:
				return
			}
		}
	}()

	d.loop(ctx, lines, readErr)
	close(stop)

	ctxlog.Debug(ctx, "control stream ended, shutting down")

	return d.exec.Shutdown(ctx)
}

func (d *Dispatcher) loop(ctx context.Context, lines <-chan string, readErr <-chan error) {
	for {
		select {
		case <-ctx.Done():
			ctxlog.Info(ctx, "context cancelled, ending control stream")
			return

		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; !errors.Is(err, io.EOF) {
					ctxlog.Error(ctx, "failed to read control stream", "error", err)
				}

				return
			}

			err := d.Execute(ctx, line)

			switch {
			case err == nil:
			case errors.Is(err, ErrQuit):
				return
			case ctx.Err() != nil:
				return
			default:
				ctxlog.Warn(ctx, "command failed", "line", line, "error", err)
			}
		}
	}
}
