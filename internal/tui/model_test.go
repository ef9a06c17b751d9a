// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/tasksh/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestModel() *Model {
	m := NewModel(context.Background())
	m.now = func() time.Time { return epoch.Add(3 * time.Second) }

	return m
}

func TestTaskStatus_String(t *testing.T) {
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "exited", StatusExited.String())
	assert.Equal(t, "signalled", StatusSignalled.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", TaskStatus(42).String())
}

func TestTaskRow_Elapsed(t *testing.T) {
	r := &TaskRow{}
	assert.Zero(t, r.Elapsed(epoch))

	r.StartTime = epoch
	assert.Equal(t, 2*time.Second, r.Elapsed(epoch.Add(2*time.Second)))

	r.EndTime = epoch.Add(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, r.Elapsed(epoch.Add(time.Hour)))
}

func TestModel_ApplyEvent(t *testing.T) {
	m := newTestModel()

	m.applyEvent(progress.Event{TaskID: 0, Type: progress.EventStarted, Timestamp: epoch, PID: 4242, Argv: []string{"sleep", "30"}})
	m.applyEvent(progress.Event{TaskID: 0, Type: progress.EventOutput, Line: "hello"})
	m.applyEvent(progress.Event{TaskID: 0, Type: progress.EventOutput, Line: "oops", Stderr: true})

	row, ok := m.Task(0)
	require.True(t, ok)
	assert.Equal(t, 4242, row.PID)
	assert.Equal(t, "sleep 30", row.Command)
	assert.Equal(t, StatusRunning, row.Status)
	assert.Equal(t, "hello", row.LastStdout)
	assert.Equal(t, "oops", row.LastStderr)

	rows := m.table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "0", rows[0][0])
	assert.Equal(t, "4242", rows[0][1])
	assert.Equal(t, "running", rows[0][2])
	assert.Equal(t, "3s", rows[0][3])

	m.applyEvent(progress.Event{TaskID: 0, Type: progress.EventEnded, Timestamp: epoch.Add(time.Second), ExitCode: -1, Signalled: true})

	row, _ = m.Task(0)
	assert.Equal(t, StatusSignalled, row.Status)
	assert.Equal(t, "signalled", m.table.Rows()[0][2])
	assert.Equal(t, "1s", m.table.Rows()[0][3])
}

func TestModel_ApplyEvent_ExitAndStartFailure(t *testing.T) {
	m := newTestModel()

	m.applyEvent(progress.Event{TaskID: 1, Type: progress.EventStarted, Timestamp: epoch, PID: 7, Argv: []string{"true"}})
	m.applyEvent(progress.Event{TaskID: 0, Type: progress.EventStartFailed, Timestamp: epoch, Argv: []string{"nope"}, Error: errors.New("not found")})
	m.applyEvent(progress.Event{TaskID: 0, Type: progress.EventEnded, Timestamp: epoch, ExitCode: 127})
	m.applyEvent(progress.Event{TaskID: 1, Type: progress.EventEnded, Timestamp: epoch, ExitCode: 3})

	failed, _ := m.Task(0)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "not started", failed.State())

	exited, _ := m.Task(1)
	assert.Equal(t, StatusExited, exited.Status)
	assert.Equal(t, "exited 3", exited.State())

	rows := m.table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "0", rows[0][0], "rows are ordered by task id")
	assert.Equal(t, "-", rows[0][1])
	assert.Equal(t, "not found", rows[0][6])

	total, running := m.counts()
	assert.Equal(t, 2, total)
	assert.Zero(t, running)

	_, ok := m.Task(5)
	assert.False(t, ok)
}

func TestModel_AppendLogIsBounded(t *testing.T) {
	m := newTestModel()

	for i := range maxLogLines + 10 {
		m.appendLog(fmt.Sprintf("Task %d ended: status 0.", i))
	}

	require.Len(t, m.logLines, maxLogLines)
	assert.Equal(t, "Task 10 ended: status 0.", m.logLines[0])
	assert.True(t, m.log.AtBottom())
}

func TestModel_Update(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)
	assert.Equal(t, 120, m.width)

	m.Update(EventMsg{Event: progress.Event{TaskID: 0, Type: progress.EventStarted, Timestamp: epoch, PID: 99, Argv: []string{"sleep", "1"}}})
	m.Update(AnnouncementMsg{Line: "Task 0 started: pid 99."})

	view := m.View()
	assert.Contains(t, view, "tasksh")
	assert.Contains(t, view, "sleep 1")
	assert.Contains(t, view, "Task 0 started: pid 99.")
	assert.Contains(t, view, "1 tasks, 1 running")

	_, cmd = m.Update(tickMsg(epoch))
	assert.NotNil(t, cmd, "ticks continue while work is running")

	_, cmd = m.Update(DoneMsg{Err: errors.New("boom")})
	assert.Nil(t, cmd)
	assert.True(t, m.completed)
	assert.Contains(t, m.View(), "finished with error: boom")

	_, cmd = m.Update(tickMsg(epoch))
	assert.Nil(t, cmd, "ticks stop once work is done")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestModel_ExitOnDone(t *testing.T) {
	m := newTestModel()
	m.exitOnDone = true

	_, cmd := m.Update(DoneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
