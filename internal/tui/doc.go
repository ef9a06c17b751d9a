// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a live Terminal User Interface (TUI) for the executor.
// It shows a table of tasks with their process id, state, elapsed time and the
// last stdout and stderr lines, above a scrolling log of announcements.
//
// The TUI is fed by progress events and by the announcement stream. Because it
// owns the terminal, the control stream must come from a file in TUI mode.
package tui
