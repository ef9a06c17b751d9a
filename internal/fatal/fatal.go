// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fatal aborts the program when an invariant is violated.
//
// It is used for operating-system calls that cannot fail under correct usage
// (pipe creation, waiting on a started process) and for exhausting the task
// table. The table and its gates may be inconsistent after such a failure, so
// nothing is retried or recovered.
package fatal

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
)

// ExitCode is the status the program exits with on a fatal error.
const ExitCode = 1

// Exit terminates the program. Tests replace it with gostub.
var Exit = os.Exit

// Check aborts the program if err is not nil.
// op names the operation that failed and is included in the diagnostic.
func Check(ctx context.Context, err error, op string) {
	if err == nil {
		return
	}

	Abort(ctx, fmt.Errorf("%s: %w", op, err))
}

// Abort logs the diagnostic, writes it to stderr and exits.
func Abort(ctx context.Context, err error) {
	ctxlog.Error(ctx, "fatal error, aborting", "error", err)
	fmt.Fprintf(os.Stderr, "tasksh: fatal: %v\n", err) //nolint:errcheck
	Exit(ExitCode)
}
