// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package executor implements the operations of the control protocol.
//
// An Executor owns the task table and the start gate. Run launches a task
// while holding the gate, so a second run cannot begin until the first task's
// output streams are attached. Out, Err, Kill and Sleep hold the gate for
// their short critical sections. Shutdown holds it until every running task
// has been killed and has completed.
package executor
