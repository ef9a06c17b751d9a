// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/tasksh/internal/progress"
)

const (
	tickInterval                = 500 * time.Millisecond
	minStatusBarAvailableHeight = 10
)

// EventMsg wraps a progress event for the tea framework.
type EventMsg struct {
	Event progress.Event
}

// AnnouncementMsg carries one line written to the announcement stream.
type AnnouncementMsg struct {
	Line string
}

// DoneMsg indicates that the control stream has ended and every task has been shut down.
type DoneMsg struct {
	Err error
}

// tickMsg refreshes the elapsed times of running tasks.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

		return m, nil

	case EventMsg:
		m.applyEvent(msg.Event)
		return m, nil

	case AnnouncementMsg:
		m.appendLog(msg.Line)
		return m, nil

	case DoneMsg:
		m.completed = true
		m.err = msg.Err

		if m.exitOnDone {
			m.quitting = true
			return m, tea.Quit
		}

		return m, nil

	case tickMsg:
		if m.completed {
			return m, nil
		}

		m.refreshRows()

		return m, tick()
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
// Up and down move the task table; page keys scroll the announcement log.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd

		m.log, cmd = m.log.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd

	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("tasksh"))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.table.View()))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.log.View()))

	if m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")
		view.WriteString(m.renderStatusBar())
		view.WriteString("\n")

		help := "↑/↓ to select a task, PgUp/PgDn to scroll the log, 'q' to quit"
		if !m.completed {
			help += " (running tasks are killed)"
		}

		view.WriteString(m.styles.Help.Render(help))
	}

	return view.String()
}

// renderStatusBar summarises the task table.
func (m *Model) renderStatusBar() string {
	total, running := m.counts()
	status := fmt.Sprintf("%d tasks, %d running", total, running)

	switch {
	case m.completed && m.err != nil:
		status += " | " + m.styles.Failed.Render("finished with error: "+m.err.Error())
	case m.completed:
		status += " | " + m.styles.Exited.Render("finished")
	case running > 0:
		status += " | " + m.styles.Running.Render("working")
	}

	return m.styles.StatusBar.Render(status)
}
