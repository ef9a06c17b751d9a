// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linecollector reads a task's output pipe and reports each line.
// Only the most recent line matters to the caller, history is not kept.
package linecollector
