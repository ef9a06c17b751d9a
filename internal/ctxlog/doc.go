// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-aware logger built on log/slog.
//
// The logger travels in the context. The default is a pretty console handler
// writing to stderr, because stdout is reserved for task announcements.
// The initial level is read from the TASKSH_LOG_LEVEL environment variable
// ("DEBUG", "INFO", "WARN" or "ERROR"; anything else means WARN).
package ctxlog
