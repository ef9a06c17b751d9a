// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/tasksh/internal/announce"
	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
	"github.com/matt-FFFFFF/tasksh/internal/fatal"
	"github.com/matt-FFFFFF/tasksh/internal/linecollector"
	"github.com/matt-FFFFFF/tasksh/internal/progress"
	"github.com/matt-FFFFFF/tasksh/internal/supervisor"
	"github.com/matt-FFFFFF/tasksh/internal/tasktable"
	"golang.org/x/sync/semaphore"
)

// ErrShutdown is returned by Shutdown when one or more tasks could not be killed.
var ErrShutdown = errors.New("shutdown failed to kill tasks")

// Options configures an Executor. Zero values select the defaults.
type Options struct {
	Capacity        int               // Task table capacity
	MaxLineLength   int               // Bytes kept per captured line
	InterruptSignal os.Signal         // Signal delivered by Kill
	Reporter        progress.Reporter // Receives task events
}

// Executor runs and controls tasks.
type Executor struct {
	table     *tasktable.Table
	gate      *semaphore.Weighted
	announcer *announce.Announcer
	opts      Options

	mu    sync.Mutex
	tasks []*supervisor.Task
}

// New creates an Executor that writes announcements to w.
func New(w io.Writer, opts Options) *Executor {
	if opts.Capacity <= 0 {
		opts.Capacity = tasktable.DefaultCapacity
	}

	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = linecollector.DefaultMaxLineLength
	}

	if opts.InterruptSignal == nil {
		opts.InterruptSignal = syscall.SIGINT
	}

	if opts.Reporter == nil {
		opts.Reporter = progress.NewNullReporter()
	}

	return &Executor{
		table:     tasktable.New(opts.Capacity),
		gate:      semaphore.NewWeighted(1),
		announcer: announce.New(w),
		opts:      opts,
	}
}

// Table returns the executor's task table.
func (e *Executor) Table() *tasktable.Table {
	return e.table
}

// Announcer returns the writer shared by every announcement.
func (e *Executor) Announcer() *announce.Announcer {
	return e.announcer
}

// Run launches argv as a new task and returns its id without waiting for it.
// Exhausting the task table is fatal.
func (e *Executor) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, supervisor.ErrEmptyCommand
	}

	if err := e.gate.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer e.gate.Release(1)

	id, err := e.table.Allocate()
	if errors.Is(err, tasktable.ErrCapacityExceeded) {
		fatal.Abort(ctx, err)
		return 0, err
	}

	if err != nil {
		return 0, err
	}

	task, err := supervisor.Launch(ctx, e.table, id, argv, supervisor.Options{
		MaxLineLength: e.opts.MaxLineLength,
		Announcer:     e.announcer,
		Reporter:      e.opts.Reporter,
	})
	if err != nil {
		return id, err
	}

	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()

	return id, nil
}

// Out announces the last line task id wrote to stdout.
func (e *Executor) Out(ctx context.Context, id int) error {
	return e.lastLine(ctx, id, tasktable.Stdout)
}

// Err announces the last line task id wrote to stderr.
func (e *Executor) Err(ctx context.Context, id int) error {
	return e.lastLine(ctx, id, tasktable.Stderr)
}

func (e *Executor) lastLine(ctx context.Context, id int, s tasktable.Stream) error {
	if err := e.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.gate.Release(1)

	return e.announcer.LastLine(id, s, e.table.ReadLastLine(id, s))
}

// Kill delivers the interrupt signal to task id and returns without waiting
// for the task to end. A task that has already ended is ignored.
// An id that was never allocated yields tasktable.ErrUnknownTask.
func (e *Executor) Kill(ctx context.Context, id int) error {
	if !e.table.Allocated(id) {
		return fmt.Errorf("%w: %d", tasktable.ErrUnknownTask, id)
	}

	ident, err := e.table.AwaitIdentity(ctx, id)
	if err != nil {
		return err
	}

	if err := e.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.gate.Release(1)

	ctxlog.Debug(ctx, "signalling task", "task", id, "pid", ident.PID, "signal", e.opts.InterruptSignal)

	if err := supervisor.Signal(ident, e.opts.InterruptSignal); err != nil {
		ctxlog.Warn(ctx, "failed to signal task", "task", id, "error", err)
	}

	return nil
}

// Sleep pauses the caller for d without affecting running tasks.
// It returns early with the context's error if ctx is cancelled.
func (e *Executor) Sleep(ctx context.Context, d time.Duration) error {
	if err := e.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.gate.Release(1)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown kills every running task, waits for each to complete and closes
// the table. It ignores cancellation of ctx: once started it always completes.
func (e *Executor) Shutdown(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	if err := e.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.gate.Release(1)

	var result error

	for _, slot := range e.table.Snapshot() {
		if !slot.Running {
			continue
		}

		ident, err := e.table.AwaitIdentity(ctx, slot.ID)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		ctxlog.Debug(ctx, "killing task", "task", slot.ID, "pid", ident.PID)

		if err := supervisor.Terminate(ident); err != nil {
			ctxlog.Warn(ctx, "failed to kill task", "task", slot.ID, "error", err)
			result = multierror.Append(result, err)
		}

		if err := e.table.AwaitCompletion(ctx, slot.ID); err != nil {
			result = multierror.Append(result, err)
		}
	}

	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()

	for _, t := range tasks {
		<-t.Done()
	}

	e.table.Close()

	ctxlog.Debug(ctx, "shutdown complete", "tasks", e.table.Len())

	if result != nil {
		return errors.Join(ErrShutdown, result)
	}

	return nil
}
