// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/matt-FFFFFF/tasksh/internal/announce"
	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
	"github.com/matt-FFFFFF/tasksh/internal/fatal"
	"github.com/matt-FFFFFF/tasksh/internal/linecollector"
	"github.com/matt-FFFFFF/tasksh/internal/progress"
	"github.com/matt-FFFFFF/tasksh/internal/tasktable"
	"golang.org/x/sync/errgroup"
)

// StatusNotStarted is the exit status announced for a program that could not be started.
const StatusNotStarted = 127

var (
	// ErrEmptyCommand is returned when Launch is given no program.
	ErrEmptyCommand = errors.New("no program given")
	// ErrCouldNotStartProcess is logged when the target cannot be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
)

// Options configures how tasks are launched.
type Options struct {
	MaxLineLength int                 // Bytes kept per captured line
	Announcer     *announce.Announcer // Receives the started/ended announcements
	Reporter      progress.Reporter   // Receives lifecycle and output events, may be nil
}

// Task is a launched task.
type Task struct {
	ID   int
	Argv []string

	table *tasktable.Table
	opts  Options
	done  chan struct{}
}

// Done is closed when the task's supervising goroutine has returned,
// after the outcome has been recorded in the table.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Launch starts argv as task id. The caller must hold the start gate.
//
// When Launch returns the target is running with its streams attached and its
// identity is published, or the start failed and the failure is being recorded.
// Failures of pipe creation are invariant violations and abort the program.
func Launch(ctx context.Context, table *tasktable.Table, id int, argv []string, opts Options) (*Task, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}

	if opts.Reporter == nil {
		opts.Reporter = progress.NewNullReporter()
	}

	// The task outlives the command that launched it.
	ctx = context.WithoutCancel(ctx)
	logger := ctxlog.Logger(ctx).With("task", id)
	ctx = ctxlog.New(ctx, logger)

	t := &Task{
		ID:    id,
		Argv:  argv,
		table: table,
		opts:  opts,
		done:  make(chan struct{}),
	}

	rOut, wOut, err := os.Pipe()
	fatal.Check(ctx, err, "create stdout pipe")

	rErr, wErr, err := os.Pipe()
	fatal.Check(ctx, err, "create stderr pipe")

	devNull, err := os.Open(os.DevNull)
	fatal.Check(ctx, err, "open "+os.DevNull)

	collectors := &errgroup.Group{}
	collectors.Go(t.collect(rErr, tasktable.Stderr))
	collectors.Go(t.collect(rOut, tasktable.Stdout))

	logger.Debug("starting process", "argv", argv)

	ps, startErr := startProcess(argv, devNull, wOut, wErr)

	// Only the target may hold the write ends now, so the collectors see EOF
	// exactly when the target and anything it spawned have closed them.
	closeAll(ctx, wOut, wErr, devNull)

	if startErr != nil {
		logger.Error("failed to start task", "argv", argv, "error", startErr)

		fatal.Check(ctx, table.PublishIdentity(id, tasktable.Identity{PID: tasktable.NoPID}), "publish identity")
		t.report(progress.Event{Type: progress.EventStartFailed, Argv: argv, Error: startErr})

		go t.supervise(ctx, nil, collectors)

		return t, nil
	}

	fatal.Check(ctx, table.PublishIdentity(id, tasktable.Identity{PID: ps.Pid, Process: ps}), "publish identity")
	table.MarkRunning(id, true)

	if err := opts.Announcer.Started(id, ps.Pid); err != nil {
		logger.Warn("failed to announce task start", "error", err)
	}

	t.report(progress.Event{Type: progress.EventStarted, PID: ps.Pid, Argv: argv})

	logger.Debug("process started", "pid", ps.Pid)

	go t.supervise(ctx, ps, collectors)

	return t, nil
}

// supervise waits for the target, then for both collectors, then records the outcome.
// ps is nil when the program could not be started.
func (t *Task) supervise(ctx context.Context, ps *os.Process, collectors *errgroup.Group) {
	defer close(t.done)

	logger := ctxlog.Logger(ctx)

	signalled, status := false, StatusNotStarted

	if ps != nil {
		ident, err := t.table.AwaitIdentity(ctx, t.ID)
		fatal.Check(ctx, err, "await task identity")

		logger.Debug("waiting for process to finish", "pid", ident.PID)

		state, err := ps.Wait()
		fatal.Check(ctx, err, "wait for task")

		signalled, status = outcome(state)
	}

	if err := collectors.Wait(); err != nil {
		logger.Warn("output collector failed", "error", err)
	}

	logger.Debug("task finished", "signalled", signalled, "status", status)

	t.table.Finish(t.ID, func() {
		if err := t.opts.Announcer.Ended(t.ID, signalled, status); err != nil {
			logger.Warn("failed to announce task end", "error", err)
		}
	})

	code := status
	if signalled {
		code = -1
	}

	t.report(progress.Event{Type: progress.EventEnded, ExitCode: code, Signalled: signalled})
}

// collect returns the body of a collector goroutine for one stream.
func (t *Task) collect(r *os.File, s tasktable.Stream) func() error {
	return func() error {
		defer r.Close() //nolint:errcheck

		c := linecollector.New(r, t.opts.MaxLineLength, func(line string) {
			t.table.WriteLastLine(t.ID, s, line)
			t.report(progress.Event{Type: progress.EventOutput, Stderr: s == tasktable.Stderr, Line: line})
		})

		return c.Run()
	}
}

func (t *Task) report(e progress.Event) {
	e.TaskID = t.ID
	e.Timestamp = time.Now()
	t.opts.Reporter.Report(e)
}

// startProcess starts argv[0], searching PATH when it contains no slash.
// The target gets stdin, stdout and stderr only and runs in its own process group.
func startProcess(argv []string, stdin, stdout, stderr *os.File) (*os.Process, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	ps, err := os.StartProcess(path, argv, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{stdin, stdout, stderr},
		Sys:   &syscall.SysProcAttr{Setpgid: true},
	})
	if err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	return ps, nil
}

// outcome decodes a wait status into the values announced for the task.
func outcome(state *os.ProcessState) (signalled bool, status int) {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return true, -1
	}

	return false, state.ExitCode()
}

func closeAll(ctx context.Context, files ...*os.File) {
	for _, f := range files {
		fatal.Check(ctx, f.Close(), "close "+f.Name())
	}
}
