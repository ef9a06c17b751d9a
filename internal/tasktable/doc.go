// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tasktable holds the state shared between the dispatcher and the
// goroutines supervising each task.
//
// Every slot records the task's process identity, the last line written to
// stdout and stderr, and whether the task is still running. Two one-shot gates
// belong to each slot: the identity gate, raised once the process id is known,
// and the completion gate, raised once the termination outcome has been
// recorded. Slots are allocated in order and never reused.
package tasktable
