// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatcher

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// Prompt is shown before each line read from a terminal.
const Prompt = "tasksh> "

// maxControlLine bounds a single control-stream line.
const maxControlLine = 1024 * 1024

// LineSource yields control-stream lines. ReadLine returns io.EOF at the end of input.
type LineSource interface {
	ReadLine() (string, error)
	Close() error
}

// ReaderSource reads lines from an io.Reader.
type ReaderSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// NewReaderSource creates a LineSource over r. If r is an io.Closer it is closed by Close.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxControlLine)

	src := &ReaderSource{scanner: s}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}

	return src
}

// ReadLine implements LineSource.
func (s *ReaderSource) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

// Close implements LineSource.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}

// InteractiveSource reads lines from the terminal with line editing and history.
type InteractiveSource struct {
	line *liner.State
}

// NewInteractiveSource puts the terminal into line-editing mode.
// Ctrl+C at the prompt ends the input, like quit.
func NewInteractiveSource() *InteractiveSource {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	return &InteractiveSource{line: line}
}

// ReadLine implements LineSource.
func (s *InteractiveSource) ReadLine() (string, error) {
	input, err := s.line.Prompt(Prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}

	if err != nil {
		return "", err
	}

	if input != "" {
		s.line.AppendHistory(input)
	}

	return input, nil
}

// Close restores the terminal.
func (s *InteractiveSource) Close() error {
	return s.line.Close()
}

// Stdin returns an interactive source when stdin is a terminal and a
// ReaderSource over stdin otherwise.
func Stdin() LineSource {
	if term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec
		return NewInteractiveSource()
	}

	return NewReaderSource(os.Stdin)
}
