// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatcher

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/matt-FFFFFF/tasksh/internal/tasktable"
)

var (
	// ErrQuit is returned by the quit command to end the read loop.
	ErrQuit = errors.New("quit")
	// ErrInvalidArgument is returned when a command's argument is missing or unusable.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Handler runs one command. args excludes the command name.
type Handler func(ctx context.Context, d *Dispatcher, args []string) error

// Registry maps command names to their handlers.
type Registry map[string]Handler

// DefaultRegistry holds the control-protocol commands.
var DefaultRegistry = Registry{
	"run":   runCommand,
	"out":   outCommand,
	"err":   errCommand,
	"kill":  killCommand,
	"sleep": sleepCommand,
	"quit":  quitCommand,
}

// Register adds or replaces a command in the default registry.
func Register(name string, h Handler) {
	DefaultRegistry[name] = h
}

// invalidArgument carries the offending token for the announcement.
type invalidArgument struct {
	command string
	arg     string
}

func (e *invalidArgument) Error() string {
	if e.arg == "" {
		return ErrInvalidArgument.Error() + ": " + e.command
	}

	return ErrInvalidArgument.Error() + ": " + e.command + " " + e.arg
}

func (e *invalidArgument) Unwrap() error {
	return ErrInvalidArgument
}

// intArg parses the first argument as a non-negative integer.
func intArg(command string, args []string) (int, error) {
	if len(args) == 0 {
		return 0, &invalidArgument{command: command}
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, &invalidArgument{command: command, arg: args[0]}
	}

	return n, nil
}

func runCommand(ctx context.Context, d *Dispatcher, args []string) error {
	if len(args) == 0 {
		return &invalidArgument{command: "run"}
	}

	_, err := d.exec.Run(ctx, args)

	return err
}

func outCommand(ctx context.Context, d *Dispatcher, args []string) error {
	id, err := intArg("out", args)
	if err != nil {
		return err
	}

	return d.exec.Out(ctx, id)
}

func errCommand(ctx context.Context, d *Dispatcher, args []string) error {
	id, err := intArg("err", args)
	if err != nil {
		return err
	}

	return d.exec.Err(ctx, id)
}

func killCommand(ctx context.Context, d *Dispatcher, args []string) error {
	id, err := intArg("kill", args)
	if err != nil {
		return err
	}

	if err := d.exec.Kill(ctx, id); errors.Is(err, tasktable.ErrUnknownTask) {
		return &invalidArgument{command: "kill", arg: args[0]}
	} else if err != nil {
		return err
	}

	return nil
}

func sleepCommand(ctx context.Context, d *Dispatcher, args []string) error {
	ms, err := intArg("sleep", args)
	if err != nil {
		return err
	}

	return d.exec.Sleep(ctx, time.Duration(ms)*time.Millisecond)
}

func quitCommand(context.Context, *Dispatcher, []string) error {
	return ErrQuit
}
