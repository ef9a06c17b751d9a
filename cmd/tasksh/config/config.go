// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config implements the config subcommand, which prints the
// effective configuration.
package config

import (
	"context"

	"github.com/matt-FFFFFF/tasksh/cmd/tasksh/settings"
	"github.com/urfave/cli/v3"
)

// ConfigCmd prints the configuration that a session started with the same
// flags would use, as YAML.
var ConfigCmd = &cli.Command{
	Name:   "config",
	Usage:  "Print the effective configuration as YAML",
	Action: actionFunc,
	Description: `Resolves the configuration file named by --config (or TASKSH_CONFIG)
and the command line flags, validates the result and prints it.
The output can be used as a starting point for a configuration file.`,
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	cfg, err := settings.Resolve(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	data, err := cfg.YAML()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if _, err := cmd.Root().Writer.Write(data); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
