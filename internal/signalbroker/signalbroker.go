// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker listens for OS signals that should end the executor.
// By default it listens for SIGINT, SIGTERM and SIGHUP.
//
// Watch logs the first signal of each kind and cancels the program context on
// the second, which ends the control stream and shuts the executor down.
package signalbroker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
)

// ErrSignalled is the cancellation cause set by Watch.
var ErrSignalled = errors.New("terminated by signal")

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
}

// Broker relays OS signals to a channel.
type Broker struct {
	ch   chan os.Signal
	sigs []os.Signal
}

// New starts relaying sigs, or the default termination signals when none are given.
func New(ctx context.Context, sigs ...os.Signal) *Broker {
	if len(sigs) == 0 {
		sigs = termSignals
	}

	b := &Broker{
		ch:   make(chan os.Signal, len(sigs)),
		sigs: sigs,
	}

	ctxlog.Debug(ctx, "creating signal broker", "signals", sigs)
	signal.Notify(b.ch, sigs...)

	return b
}

// C returns the channel signals are delivered on.
func (b *Broker) C() <-chan os.Signal {
	return b.ch
}

// Stop stops relaying signals. The channel is left open.
func (b *Broker) Stop() {
	signal.Stop(b.ch)
}

// Watch reads sigCh until ctx is done or sigCh is closed.
// The second signal of a kind cancels the context with ErrSignalled as the cause.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelCauseFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return

		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "received second signal, shutting down", "signal", sig.String())
				cancel(fmt.Errorf("%w: %s", ErrSignalled, sig))

				return
			}

			ctxlog.Warn(ctx, "received signal, send again to shut down", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
