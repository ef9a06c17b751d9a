// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package dispatcher reads the control stream and runs each command.
//
// Each line is split into whitespace-separated tokens; the first token names
// the command and is looked up in a Registry. Unknown commands and unusable
// arguments are announced and processing continues. The loop ends on quit,
// at the end of input or when the context is cancelled, and then shuts the
// executor down.
package dispatcher
