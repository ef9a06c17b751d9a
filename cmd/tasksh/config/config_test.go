// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"context"
	"testing"

	"github.com/matt-FFFFFF/tasksh/cmd/tasksh/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestConfigCmd(t *testing.T) {
	t.Setenv(settings.ConfigEnvVar, "")

	var out bytes.Buffer

	root := &cli.Command{
		Name:     "tasksh",
		Flags:    settings.Flags(),
		Commands: []*cli.Command{ConfigCmd},
		Writer:   &out,
	}

	err := root.Run(context.Background(), []string{"tasksh", "--capacity", "12", "--interrupt-signal", "SIGTERM", "config"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "capacity: 12\n")
	assert.Contains(t, out.String(), "max_line_length: 1022\n")
	assert.Contains(t, out.String(), "interrupt_signal: SIGTERM\n")
}
