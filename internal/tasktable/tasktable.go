// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tasktable

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/matt-FFFFFF/tasksh/internal/future"
)

// DefaultCapacity is the number of slots a table holds unless configured otherwise.
const DefaultCapacity = 4096

// NoPID is recorded as the identity of a task whose program could not be started.
const NoPID = -1

var (
	// ErrCapacityExceeded is returned by Allocate when every slot has been used.
	ErrCapacityExceeded = errors.New("task table capacity exceeded")
	// ErrClosed is returned by Allocate after the table has been closed.
	ErrClosed = errors.New("task table closed")
	// ErrUnknownTask is returned when an id does not refer to an allocated slot.
	ErrUnknownTask = errors.New("unknown task")
)

// Stream selects one of the two captured output streams.
type Stream int

const (
	// Stdout is the task's standard output.
	Stdout Stream = iota
	// Stderr is the task's standard error.
	Stderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", int(s))
	}
}

// Identity is the published identity of a task's target process.
type Identity struct {
	PID     int
	Process *os.Process // nil when PID is NoPID
}

// slot holds the per-task state.
//
// lastOut, lastErr and running are guarded by Table.mu.
// identity and completed are futures and need no lock.
type slot struct {
	lastOut   string
	lastErr   string
	running   bool
	identity  *future.Cell[Identity]
	completed *future.Cell[struct{}]
}

// SlotView is a copy of one slot taken under the table lock.
type SlotView struct {
	ID         int
	PID        int
	Published  bool
	Running    bool
	LastStdout string
	LastStderr string
}

// Table is the fixed-capacity task table shared by the dispatcher, the
// launchers and the output collectors.
//
// A single table-wide mutex serializes access to every slot. Operations are
// line-sized copies so there is no need for per-slot locking.
type Table struct {
	mu     sync.Mutex
	slots  []slot
	count  int
	closed bool
}

// New returns a table with room for capacity tasks. A capacity below one uses DefaultCapacity.
func New(capacity int) *Table {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Table{slots: make([]slot, capacity)}
}

// Capacity returns the maximum number of tasks the table can hold.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Len returns the number of slots allocated so far, which is also the next task id.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Allocate reserves the next slot and returns its id.
// Ids start at zero and are never reused.
func (t *Table) Allocate() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return -1, ErrClosed
	}

	if t.count >= len(t.slots) {
		return -1, fmt.Errorf("%w: %d slots", ErrCapacityExceeded, len(t.slots))
	}

	id := t.count
	t.slots[id] = slot{
		identity:  future.New[Identity](),
		completed: future.New[struct{}](),
	}
	t.count++

	return id, nil
}

// Allocated reports whether id refers to a slot handed out by Allocate.
func (t *Table) Allocated(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allocated(id)
}

func (t *Table) allocated(id int) bool {
	return id >= 0 && id < t.count
}

// ReadLastLine returns the most recent line captured for the stream.
// A slot that was never allocated, or has no output yet, yields "".
func (t *Table) ReadLastLine(id int, s Stream) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.allocated(id) {
		return ""
	}

	if s == Stderr {
		return t.slots[id].lastErr
	}

	return t.slots[id].lastOut
}

// WriteLastLine replaces the captured line for the stream.
// Writes to unallocated slots are dropped.
func (t *Table) WriteLastLine(id int, s Stream, line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.allocated(id) {
		return
	}

	if s == Stderr {
		t.slots[id].lastErr = line
	} else {
		t.slots[id].lastOut = line
	}
}

// MarkRunning sets the running flag of the slot.
func (t *Table) MarkRunning(id int, running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allocated(id) {
		t.slots[id].running = running
	}
}

// Running reports whether the slot's task has not yet been recorded as finished.
func (t *Table) Running(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allocated(id) && t.slots[id].running
}

// PublishIdentity records the task's process identity and raises its
// identity gate. It must be called exactly once per slot.
func (t *Table) PublishIdentity(id int, ident Identity) error {
	c, err := t.identityCell(id)
	if err != nil {
		return err
	}

	return c.Set(ident)
}

// AwaitIdentity blocks until the slot's identity has been published.
func (t *Table) AwaitIdentity(ctx context.Context, id int) (Identity, error) {
	c, err := t.identityCell(id)
	if err != nil {
		return Identity{}, err
	}

	return c.Wait(ctx)
}

// Finish records the end of a task. Under the table lock it calls record,
// clears the running flag and raises the completion gate, so nobody can
// observe the task as stopped before record has run.
func (t *Table) Finish(id int, record func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.allocated(id) {
		return
	}

	if record != nil {
		record()
	}

	t.slots[id].running = false
	_ = t.slots[id].completed.Set(struct{}{})
}

// AwaitCompletion blocks until Finish has been called for the slot.
func (t *Table) AwaitCompletion(ctx context.Context, id int) error {
	t.mu.Lock()

	if !t.allocated(id) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}

	c := t.slots[id].completed
	t.mu.Unlock()

	_, err := c.Wait(ctx)

	return err
}

// Snapshot returns a consistent copy of every allocated slot.
func (t *Table) Snapshot() []SlotView {
	t.mu.Lock()
	defer t.mu.Unlock()

	views := make([]SlotView, t.count)
	for i := range t.count {
		s := &t.slots[i]
		v := SlotView{
			ID:         i,
			PID:        NoPID,
			Running:    s.running,
			LastStdout: s.lastOut,
			LastStderr: s.lastErr,
		}

		if ident, ok := s.identity.Peek(); ok {
			v.PID = ident.PID
			v.Published = true
		}

		views[i] = v
	}

	return views
}

// Close refuses any further allocation. Existing slots stay readable.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
}

func (t *Table) identityCell(id int) (*future.Cell[Identity], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.allocated(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}

	return t.slots[id].identity, nil
}
