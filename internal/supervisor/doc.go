// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package supervisor launches a task's target program and supervises it.
//
// Launch wires the target's stdout and stderr to two pipes, starts one
// collector goroutine per pipe, starts the target and publishes its identity.
// It returns once the target's streams are attached. A task-owning goroutine
// then waits for the target, joins both collectors and records the outcome
// in the task table.
package supervisor
