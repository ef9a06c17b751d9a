// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package settings declares the flags shared by the tasksh commands and
// resolves them, together with the configuration file, into a config.Config.
package settings

import (
	"github.com/matt-FFFFFF/tasksh/internal/config"
	"github.com/urfave/cli/v3"
)

// Flag names.
const (
	FileFlag            = "file"
	ConfigFlag          = "config"
	CapacityFlag        = "capacity"
	MaxLineLengthFlag   = "max-line-length"
	InterruptSignalFlag = "interrupt-signal"
	LogLevelFlag        = "log-level"
	LogFormatFlag       = "log-format"
	TUIFlag             = "tui"
)

// ConfigEnvVar names the configuration file when --config is not given.
const ConfigEnvVar = "TASKSH_CONFIG"

// Flags returns the flags of the root command. Subcommands inherit them.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FileFlag,
			Aliases: []string{"f"},
			Usage: "Read the control stream from this URL instead of stdin. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      ConfigFlag,
			Aliases:   []string{"c"},
			Usage:     "Load settings from a YAML file, or HCL if the name ends in .hcl",
			TakesFile: true,
			Sources:   cli.EnvVars(ConfigEnvVar),
			OnlyOnce:  true,
		},
		&cli.IntFlag{
			Name:  CapacityFlag,
			Usage: "Maximum number of tasks in one session",
		},
		&cli.IntFlag{
			Name:  MaxLineLengthFlag,
			Usage: "Bytes kept per captured output line; longer lines are split",
		},
		&cli.StringFlag{
			Name:  InterruptSignalFlag,
			Usage: "Signal delivered by the kill command, e.g. SIGINT or TERM",
		},
		&cli.StringFlag{
			Name:  LogLevelFlag,
			Usage: "Log level: DEBUG, INFO, WARN or ERROR",
		},
		&cli.StringFlag{
			Name:  LogFormatFlag,
			Usage: "Log format: pretty or json",
		},
		&cli.BoolFlag{
			Name:        TUIFlag,
			Aliases:     []string{"t"},
			Usage:       "Show a live table of tasks. Requires --file",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	}
}

// Resolve loads the configuration file, if any, applies flags that were set
// on the command line and validates the result.
func Resolve(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if path := cmd.String(ConfigFlag); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	if cmd.IsSet(CapacityFlag) {
		cfg.Capacity = cmd.Int(CapacityFlag)
	}

	if cmd.IsSet(MaxLineLengthFlag) {
		cfg.MaxLineLength = cmd.Int(MaxLineLengthFlag)
	}

	if cmd.IsSet(InterruptSignalFlag) {
		cfg.InterruptSignal = cmd.String(InterruptSignalFlag)
	}

	if cmd.IsSet(LogLevelFlag) {
		cfg.LogLevel = cmd.String(LogLevelFlag)
	}

	if cmd.IsSet(LogFormatFlag) {
		cfg.LogFormat = cmd.String(LogFormatFlag)
	}

	return cfg, cfg.Validate()
}
