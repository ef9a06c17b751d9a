// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the tasksh command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/tasksh"
	"github.com/matt-FFFFFF/tasksh/cmd/tasksh/config"
	"github.com/matt-FFFFFF/tasksh/cmd/tasksh/run"
	"github.com/matt-FFFFFF/tasksh/cmd/tasksh/settings"
	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
	"github.com/matt-FFFFFF/tasksh/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		config.ConfigCmd,
	},
	Flags:       settings.Flags(),
	Action:      run.Action,
	Writer:      os.Stdout,
	ErrWriter:   os.Stderr,
	Name:        "tasksh",
	Description: run.Description,
	Usage:       "run programs as background tasks and query their output",
	UsageText:   "tasksh [--file script] [--config tasksh.yaml] [--tui]",
	Copyright:   "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancelCause(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	defer cancel(nil)

	broker := signalbroker.New(ctx)
	defer broker.Stop()

	go signalbroker.Watch(ctx, broker.C(), cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", tasksh.Version, tasksh.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	// Tasks were shut down before Run returned; report why the session ended early.
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("session terminated due to cancellation", "error", context.Cause(ctx))
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Debug("session completed successfully")
}
