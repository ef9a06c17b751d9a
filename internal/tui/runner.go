// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/tasksh/internal/progress"
)

// reporterBufferSize bounds the events waiting to be shown.
const reporterBufferSize = 4096

// Runner manages the TUI application and feeds it events and announcements.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *progress.ChannelReporter
	writer   *Writer
	mutex    sync.Mutex
}

// Writer receives the announcement stream. Each complete line is shown in
// the TUI log and kept in a transcript.
type Writer struct {
	program    *tea.Program
	mutex      sync.Mutex
	partial    []byte
	transcript bytes.Buffer
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.transcript.Write(p)
	w.partial = append(w.partial, p...)

	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}

		line := string(w.partial[:i])
		w.partial = w.partial[i+1:]

		if w.program != nil {
			w.program.Send(AnnouncementMsg{Line: line})
		}
	}

	return len(p), nil
}

// WriteTo writes the transcript to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.transcript.WriteTo(dst)
}

// NewRunner creates a new TUI runner.
// Options are passed to the bubbletea program; the default uses the alternate screen.
func NewRunner(ctx context.Context, opts ...tea.ProgramOption) *Runner {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	}

	model := NewModel(ctx)
	program := tea.NewProgram(model, opts...)

	reporter := progress.NewChannelReporter(ctx, reporterBufferSize)
	reporter.Listen(progress.ListenerFunc(func(e progress.Event) {
		program.Send(EventMsg{Event: e})
	}))

	return &Runner{
		model:    model,
		program:  program,
		reporter: reporter,
		writer:   &Writer{program: program},
	}
}

// Reporter returns the progress reporter for this runner.
// Events are buffered and shown in the order they were reported.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Writer returns the announcement writer for this runner.
func (r *Runner) Writer() *Writer {
	return r.writer
}

// ExitWhenDone makes the TUI exit by itself once the work has finished,
// instead of waiting for the user to quit.
func (r *Runner) ExitWhenDone() {
	r.model.exitOnDone = true
}

// Run starts the TUI and calls work with a context that is cancelled when the
// user quits. It returns once both have finished.
func (r *Runner) Run(ctx context.Context, work func(ctx context.Context) error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workDone := make(chan error, 1)

	go func() {
		workDone <- work(workCtx)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var workErr, tuiErr error

	select {
	case workErr = <-workDone:
		// Deliver every pending event before reporting completion.
		r.reporter.Close()
		r.program.Send(DoneMsg{Err: workErr})
		tuiErr = <-tuiDone

	case tuiErr = <-tuiDone:
		// The user quit: end the control stream so the tasks are shut down.
		cancel()

		workErr = <-workDone

	case <-ctx.Done():
		r.program.Quit()

		workErr = <-workDone
		tuiErr = <-tuiDone
	}

	r.reporter.Close()

	if errors.Is(tuiErr, tea.ErrProgramKilled) {
		tuiErr = nil
	}

	return errors.Join(workErr, tuiErr)
}
