// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a single task lifecycle update.
type Event struct {
	TaskID    int       // Task identifier from the task table
	Type      EventType // What happened
	Timestamp time.Time // When it happened

	PID       int      // EventStarted: target process id
	Argv      []string // EventStarted, EventStartFailed: the command line
	Stderr    bool     // EventOutput: true for stderr, false for stdout
	Line      string   // EventOutput: the captured line
	ExitCode  int      // EventEnded: exit status, -1 when signalled
	Signalled bool     // EventEnded: the task was terminated by a signal
	Error     error    // EventStartFailed: why the program could not be started
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a task's target process is running.
	EventStarted EventType = iota
	// EventOutput indicates a new line was captured.
	EventOutput
	// EventEnded indicates the task's termination has been recorded.
	EventEnded
	// EventStartFailed indicates the program could not be started.
	EventStartFailed
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventEnded:
		return "ended"
	case EventStartFailed:
		return "start-failed"
	default:
		return "unknown"
	}
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends an event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent.
	Close()
}

// Listener receives progress events.
type Listener interface {
	// OnEvent is called for every delivered event, from a single goroutine.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (NullReporter) Report(Event) {}

// Close implements Reporter.Close by doing nothing.
func (NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return NullReporter{}
}
