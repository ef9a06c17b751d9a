// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads and validates the executor configuration.
//
// A configuration file is YAML unless its name ends in ".hcl", in which case
// it is decoded as HCL. HCL files may refer to environment variables as
// env.NAME. Values missing from the file keep their defaults.
package config
