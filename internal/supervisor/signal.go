// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/tasksh/internal/tasktable"
	"golang.org/x/sys/unix"
)

// Signal delivers sig to the task's target process.
// Delivery is fire-and-forget: a task that has already finished, or never
// started, is not an error.
func Signal(ident tasktable.Identity, sig os.Signal) error {
	if ident.Process == nil {
		return nil
	}

	if err := ident.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal pid %d: %w", ident.PID, err)
	}

	return nil
}

// Terminate sends SIGKILL to the target and to every process remaining in its
// process group, so no descendant keeps the task's output pipes open.
func Terminate(ident tasktable.Identity) error {
	if ident.Process == nil {
		return nil
	}

	var result error

	if err := ident.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		result = multierror.Append(result, fmt.Errorf("kill pid %d: %w", ident.PID, err))
	}

	if err := unix.Kill(-ident.PID, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		result = multierror.Append(result, fmt.Errorf("kill process group %d: %w", ident.PID, err))
	}

	return result
}
