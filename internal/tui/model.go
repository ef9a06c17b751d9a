// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/tasksh/internal/progress"
)

const (
	maxLogLines       = 500
	elapsedRounding   = 100 * time.Millisecond
	defaultWidth      = 100
	defaultHeight     = 30
	minTableHeight    = 3
	minLogHeight      = 3
	reservedLines     = 8 // title, borders, status bar and help
	commandColumnPart = 4 // the command column gets 1/4 of the free width
)

// TaskStatus is the state of a task as shown in the TUI.
type TaskStatus int

const (
	// StatusRunning means the target process is running.
	StatusRunning TaskStatus = iota
	// StatusExited means the target exited with a status.
	StatusExited
	// StatusSignalled means the target was terminated by a signal.
	StatusSignalled
	// StatusFailed means the program could not be started.
	StatusFailed
)

// String returns a string representation of the task status.
func (s TaskStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	case StatusSignalled:
		return "signalled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TaskRow is the display state of one task.
type TaskRow struct {
	ID         int
	PID        int
	Command    string
	Status     TaskStatus
	ExitCode   int
	StartTime  time.Time
	EndTime    time.Time
	LastStdout string
	LastStderr string
	Error      string
}

// State returns the text of the status column.
func (r *TaskRow) State() string {
	switch r.Status {
	case StatusExited:
		return fmt.Sprintf("exited %d", r.ExitCode)
	case StatusFailed:
		return "not started"
	default:
		return r.Status.String()
	}
}

// Elapsed returns how long the task has been, or was, running.
func (r *TaskRow) Elapsed(now time.Time) time.Duration {
	if r.StartTime.IsZero() {
		return 0
	}

	if !r.EndTime.IsZero() {
		return r.EndTime.Sub(r.StartTime).Round(elapsedRounding)
	}

	return now.Sub(r.StartTime).Round(elapsedRounding)
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title     lipgloss.Style
	Running   lipgloss.Style
	Exited    lipgloss.Style
	Signalled lipgloss.Style
	Failed    lipgloss.Style
	Border    lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Exited: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Signalled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
	}
}

// Model represents the TUI application state.
// It is only touched from bubbletea's Update and View.
type Model struct {
	ctx        context.Context
	tasks      map[int]*TaskRow
	table      table.Model
	log        viewport.Model
	logLines   []string
	width      int
	height     int
	completed  bool
	exitOnDone bool
	err        error
	quitting   bool
	now        func() time.Time
	styles     *Styles
}

// NewModel creates a new TUI model.
func NewModel(ctx context.Context) *Model {
	m := &Model{
		ctx:    ctx,
		tasks:  make(map[int]*TaskRow),
		table:  table.New(table.WithFocused(true)),
		log:    viewport.New(defaultWidth, minLogHeight),
		width:  defaultWidth,
		height: defaultHeight,
		now:    time.Now,
		styles: NewStyles(),
	}

	m.resize()

	return m
}

// Task returns a copy of the row for task id.
func (m *Model) Task(id int) (TaskRow, bool) {
	r, ok := m.tasks[id]
	if !ok {
		return TaskRow{}, false
	}

	return *r, true
}

// counts returns the number of tasks and how many are running.
func (m *Model) counts() (total, running int) {
	for _, r := range m.tasks {
		if r.Status == StatusRunning {
			running++
		}
	}

	return len(m.tasks), running
}

// applyEvent updates the task rows from a progress event.
func (m *Model) applyEvent(e progress.Event) {
	r, ok := m.tasks[e.TaskID]
	if !ok {
		r = &TaskRow{ID: e.TaskID, PID: -1, StartTime: e.Timestamp}
		m.tasks[e.TaskID] = r
	}

	switch e.Type {
	case progress.EventStarted:
		r.PID = e.PID
		r.Command = strings.Join(e.Argv, " ")
		r.Status = StatusRunning
		r.StartTime = e.Timestamp

	case progress.EventStartFailed:
		r.Command = strings.Join(e.Argv, " ")
		r.Status = StatusFailed

		if e.Error != nil {
			r.Error = e.Error.Error()
		}

	case progress.EventOutput:
		if e.Stderr {
			r.LastStderr = e.Line
		} else {
			r.LastStdout = e.Line
		}

	case progress.EventEnded:
		r.EndTime = e.Timestamp

		switch {
		case r.Status == StatusFailed:
		case e.Signalled:
			r.Status = StatusSignalled
		default:
			r.Status = StatusExited
			r.ExitCode = e.ExitCode
		}
	}

	m.refreshRows()
}

// appendLog adds an announcement line to the log pane.
func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}

	m.log.SetContent(strings.Join(m.logLines, "\n"))
	m.log.GotoBottom()
}

// refreshRows rebuilds the table rows in task id order.
func (m *Model) refreshRows() {
	ids := make([]int, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	now := m.now()
	rows := make([]table.Row, 0, len(ids))

	for _, id := range ids {
		r := m.tasks[id]

		pid := "-"
		if r.PID > 0 {
			pid = fmt.Sprint(r.PID)
		}

		stderr := r.LastStderr
		if r.Error != "" {
			stderr = r.Error
		}

		rows = append(rows, table.Row{
			fmt.Sprint(r.ID),
			pid,
			r.State(),
			r.Elapsed(now).String(),
			r.Command,
			r.LastStdout,
			stderr,
		})
	}

	m.table.SetRows(rows)
}

// resize lays out the table and log panes for the current window size.
func (m *Model) resize() {
	inner := max(m.width-4, 40) //nolint:mnd // border and padding

	fixed := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "PID", Width: 8},
		{Title: "State", Width: 12},
		{Title: "Elapsed", Width: 9},
	}

	used := 0
	for _, c := range fixed {
		used += c.Width + 2 //nolint:mnd // cell padding
	}

	free := max(inner-used, 30) //nolint:mnd
	cmdWidth := free / commandColumnPart
	outWidth := (free - cmdWidth) / 2 //nolint:mnd

	m.table.SetColumns(append(fixed,
		table.Column{Title: "Command", Width: cmdWidth},
		table.Column{Title: "Last stdout", Width: outWidth - 2},                   //nolint:mnd
		table.Column{Title: "Last stderr", Width: free - cmdWidth - outWidth - 4}, //nolint:mnd
	))

	avail := max(m.height-reservedLines, minTableHeight+minLogHeight)
	tableHeight := max(avail/2, minTableHeight) //nolint:mnd

	m.table.SetHeight(tableHeight)
	m.table.SetWidth(inner)

	m.log.Width = inner
	m.log.Height = max(avail-tableHeight, minLogHeight)
}
