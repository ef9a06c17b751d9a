// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package announce writes the protocol lines read by the controller.
//
// Announcements come from the dispatcher and from every task's supervising
// goroutine, so each one is written as a single whole line under a mutex and
// flushed straight away.
package announce

import (
	"fmt"
	"io"
	"sync"

	"github.com/matt-FFFFFF/tasksh/internal/tasktable"
)

type flusher interface {
	Flush() error
}

// Announcer serializes announcement lines onto one writer.
type Announcer struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns an Announcer writing to w.
func New(w io.Writer) *Announcer {
	return &Announcer{w: w}
}

// Started announces that task id's process is running.
func (a *Announcer) Started(id, pid int) error {
	return a.Printf("Task %d started: pid %d.\n", id, pid)
}

// Ended announces how task id finished.
func (a *Announcer) Ended(id int, signalled bool, status int) error {
	if signalled {
		return a.Printf("Task %d ended: signalled.\n", id)
	}

	return a.Printf("Task %d ended: status %d.\n", id, status)
}

// LastLine announces the last captured line of one of the task's streams.
func (a *Announcer) LastLine(id int, s tasktable.Stream, line string) error {
	return a.Printf("Task %d %s: '%s'.\n", id, s, line)
}

// UnknownCommand reports a command name the dispatcher does not know.
func (a *Announcer) UnknownCommand(name string) error {
	return a.Printf("Unknown command: %s\n", name)
}

// InvalidArgument reports an unusable argument to a known command.
// An empty arg reports a missing argument.
func (a *Announcer) InvalidArgument(command, arg string) error {
	if arg == "" {
		return a.Printf("Invalid argument: %s\n", command)
	}

	return a.Printf("Invalid argument: %s %s\n", command, arg)
}

// Printf formats a line and writes it atomically with respect to other announcements.
func (a *Announcer) Printf(format string, args ...any) error {
	line := fmt.Sprintf(format, args...)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := io.WriteString(a.w, line); err != nil {
		return fmt.Errorf("write announcement: %w", err)
	}

	if f, ok := a.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush announcement: %w", err)
		}
	}

	return nil
}
