// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the tasksh root action: it reads the control stream
// and executes its commands until quit or end of input.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/tasksh/cmd/tasksh/settings"
	"github.com/matt-FFFFFF/tasksh/internal/config"
	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
	"github.com/matt-FFFFFF/tasksh/internal/dispatcher"
	"github.com/matt-FFFFFF/tasksh/internal/executor"
	"github.com/matt-FFFFFF/tasksh/internal/fetch"
	"github.com/matt-FFFFFF/tasksh/internal/progress"
	"github.com/matt-FFFFFF/tasksh/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	cliExitStr         = ""
	eventBufferSize    = 1024
	exitCodeUsageError = 2
)

var (
	// ErrTUIRequiresFile is returned when --tui is used without --file.
	ErrTUIRequiresFile = errors.New("--tui requires the control stream to be read from --file")
)

// SourceFactory opens the control stream when no --file is given. Tests replace it.
var SourceFactory = dispatcher.Stdin

// Description is shown by --help.
const Description = `tasksh is an interactive batch executor.
It reads commands from stdin, or from --file, one per line:

  run <program> <args...>   start a task and print its id
  out <id>                  print the last line the task wrote to stdout
  err <id>                  print the last line the task wrote to stderr
  kill <id>                 interrupt a task
  sleep <ms>                pause reading commands
  quit                      kill running tasks and exit

Control file URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.`

// Action runs an executor session.
func Action(ctx context.Context, cmd *cli.Command) error {
	cfg, err := settings.Resolve(cmd)
	if err != nil {
		return cli.Exit(err.Error(), exitCodeUsageError)
	}

	logger, err := configureLogging(cfg, cmd.ErrWriter)
	if err != nil {
		return cli.Exit(err.Error(), exitCodeUsageError)
	}

	ctx = ctxlog.New(ctx, logger)

	sig, err := cfg.Signal()
	if err != nil {
		return cli.Exit(err.Error(), exitCodeUsageError)
	}

	useTUI := cmd.Bool(settings.TUIFlag)

	src, err := openSource(ctx, cmd.String(settings.FileFlag), useTUI)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	defer src.Close() //nolint:errcheck

	opts := executor.Options{
		Capacity:        cfg.Capacity,
		MaxLineLength:   cfg.MaxLineLength,
		InterruptSignal: sig,
	}

	ctxlog.Debug(ctx, "starting session", "capacity", cfg.Capacity, "max_line_length", cfg.MaxLineLength, "interrupt_signal", sig.String())

	if useTUI {
		err = runWithTUI(ctx, cmd, src, opts)
	} else {
		err = runPlain(ctx, cmd.Writer, src, opts)
	}

	if err != nil {
		ctxlog.Error(ctx, "session failed", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// configureLogging applies the configured level and returns the session logger.
func configureLogging(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := ctxlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctxlog.LevelVar.Set(level)

	logger, err := ctxlog.NewLogger(cfg.LogFormat, w)
	if err != nil {
		return nil, err
	}

	return logger.With("session", uuid.NewString()), nil
}

// openSource returns the control stream: the fetched file when url is set, stdin otherwise.
func openSource(ctx context.Context, url string, useTUI bool) (dispatcher.LineSource, error) {
	if url == "" {
		if useTUI {
			return nil, ErrTUIRequiresFile
		}

		return SourceFactory(), nil
	}

	data, err := fetch.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "control stream fetched", "url", url, "bytes", len(data))

	return dispatcher.NewReaderSource(bytes.NewReader(data)), nil
}

// runPlain writes announcements to w. At debug level every task event is logged.
func runPlain(ctx context.Context, w io.Writer, src dispatcher.LineSource, opts executor.Options) error {
	if ctxlog.LevelVar.Level() <= slog.LevelDebug {
		reporter := progress.NewChannelReporter(ctx, eventBufferSize)
		reporter.Listen(progress.ListenerFunc(func(e progress.Event) {
			logEvent(ctx, e)
		}))

		defer reporter.Close()

		opts.Reporter = reporter
	}

	exec := executor.New(w, opts)

	return dispatcher.New(exec).Run(ctx, src)
}

// runWithTUI shows the live task table. Announcements and logs are written
// to the command's writers once the TUI has exited.
func runWithTUI(ctx context.Context, cmd *cli.Command, src dispatcher.LineSource, opts executor.Options) error {
	ctxlog.Info(ctx, "starting interactive TUI mode")

	logs := new(bytes.Buffer)
	tuiCtx := ctxlog.NewForTUI(ctx, logs)

	runner := tui.NewRunner(tuiCtx)
	opts.Reporter = runner.Reporter()

	exec := executor.New(runner.Writer(), opts)

	err := runner.Run(tuiCtx, func(ctx context.Context) error {
		return dispatcher.New(exec).Run(ctx, src)
	})

	runner.Writer().WriteTo(cmd.Writer) //nolint:errcheck
	logs.WriteTo(cmd.ErrWriter)         //nolint:errcheck

	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	return nil
}

func logEvent(ctx context.Context, e progress.Event) {
	args := []any{"task", e.TaskID, "type", e.Type.String()}

	switch e.Type {
	case progress.EventStarted:
		args = append(args, "pid", e.PID, "argv", e.Argv)
	case progress.EventOutput:
		args = append(args, "stderr", e.Stderr, "line", e.Line)
	case progress.EventEnded:
		args = append(args, "exit_code", e.ExitCode, "signalled", e.Signalled)
	case progress.EventStartFailed:
		args = append(args, "argv", e.Argv, "error", e.Error)
	}

	ctxlog.Debug(ctx, "task event", args...)
}
