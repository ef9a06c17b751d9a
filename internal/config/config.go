// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
	"github.com/matt-FFFFFF/tasksh/internal/linecollector"
	"github.com/matt-FFFFFF/tasksh/internal/tasktable"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sys/unix"
)

const hclFileExt = ".hcl"

var (
	// ErrReadConfig is returned when the configuration file cannot be read.
	ErrReadConfig = errors.New("failed to read configuration file")
	// ErrDecodeConfig is returned when the configuration file cannot be decoded.
	ErrDecodeConfig = errors.New("failed to decode configuration file")
	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownSignal is returned when a signal name cannot be resolved.
	ErrUnknownSignal = errors.New("unknown signal")
)

// Config is the executor configuration.
type Config struct {
	Capacity        int    `yaml:"capacity" hcl:"capacity,optional"`
	MaxLineLength   int    `yaml:"max_line_length" hcl:"max_line_length,optional"`
	InterruptSignal string `yaml:"interrupt_signal" hcl:"interrupt_signal,optional"`
	LogLevel        string `yaml:"log_level" hcl:"log_level,optional"`
	LogFormat       string `yaml:"log_format" hcl:"log_format,optional"`
}

// Default returns the built-in configuration.
// The log level is the one currently in effect, which honours TASKSH_LOG_LEVEL.
func Default() Config {
	return Config{
		Capacity:        tasktable.DefaultCapacity,
		MaxLineLength:   linecollector.DefaultMaxLineLength,
		InterruptSignal: "SIGINT",
		LogLevel:        ctxlog.LevelVar.Level().String(),
		LogFormat:       ctxlog.FormatPretty,
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return cfg, errors.Join(ErrReadConfig, err)
	}

	if err := Decode(path, data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Decode decodes data into cfg, choosing the format from the file name.
// Fields missing from data are left untouched.
func Decode(filename string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(filename), hclFileExt) {
		if err := hclsimple.Decode(filepath.Base(filename), data, evalContext(), cfg); err != nil {
			return errors.Join(ErrDecodeConfig, err)
		}

		return nil
	}

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return errors.Join(ErrDecodeConfig, err)
	}

	return nil
}

// evalContext exposes the process environment to HCL expressions as env.NAME.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		env[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var result error

	if c.Capacity <= 0 {
		result = multierror.Append(result, fmt.Errorf("capacity must be positive, got %d", c.Capacity))
	}

	if c.MaxLineLength <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_line_length must be positive, got %d", c.MaxLineLength))
	}

	if _, err := ParseSignal(c.InterruptSignal); err != nil {
		result = multierror.Append(result, fmt.Errorf("interrupt_signal: %w", err))
	}

	if _, err := ctxlog.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("log_level: %w", err))
	}

	if c.LogFormat != ctxlog.FormatPretty && c.LogFormat != ctxlog.FormatJSON {
		result = multierror.Append(result, fmt.Errorf("log_format: %w: %q", ctxlog.ErrUnknownFormat, c.LogFormat))
	}

	if result != nil {
		return errors.Join(ErrInvalidConfig, result)
	}

	return nil
}

// Signal returns the configured interrupt signal.
func (c Config) Signal() (syscall.Signal, error) {
	return ParseSignal(c.InterruptSignal)
}

// YAML returns the configuration as a YAML document.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseSignal resolves a signal from a name such as "SIGTERM" or "term",
// or from its number.
func ParseSignal(s string) (syscall.Signal, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 || unix.SignalName(syscall.Signal(n)) == "" {
			return 0, fmt.Errorf("%w: %s", ErrUnknownSignal, s)
		}

		return syscall.Signal(n), nil
	}

	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}

	sig := unix.SignalNum(name)
	if sig == 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSignal, s)
	}

	return sig, nil
}
