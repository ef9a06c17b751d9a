// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries task lifecycle events from the executor to
// observers such as the terminal UI. Reporting never blocks the executor:
// events that cannot be delivered are dropped.
package progress
