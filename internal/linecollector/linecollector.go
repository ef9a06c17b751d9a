// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linecollector

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
)

// DefaultMaxLineLength is the number of bytes kept for a single line.
const DefaultMaxLineLength = 1022

// ErrRead is returned when the underlying reader fails with anything other than EOF.
var ErrRead = errors.New("failed to read output stream")

// SinkFunc receives every line the collector reads, without its trailing newline.
type SinkFunc func(line string)

// Collector drains a reader line by line and hands each line to a sink.
//
// Lines longer than the maximum are delivered in chunks of at most that many
// bytes, each chunk overwriting the previous one in the sink. A final line that
// is not terminated by a newline is still delivered at end of stream.
type Collector struct {
	reader  io.Reader
	sink    SinkFunc
	maxLine int

	mu       sync.RWMutex
	lastLine string
	lines    int
}

// New creates a collector reading r. maxLine below one uses DefaultMaxLineLength.
func New(r io.Reader, maxLine int, sink SinkFunc) *Collector {
	if maxLine < 1 {
		maxLine = DefaultMaxLineLength
	}

	return &Collector{
		reader:  r,
		sink:    sink,
		maxLine: maxLine,
	}
}

// Run reads until end of stream. It returns nil on EOF.
// Closing the reader from another goroutine unblocks Run with an error.
func (c *Collector) Run() error {
	sc := bufio.NewScanner(c.reader)
	sc.Buffer(make([]byte, 0, min(c.maxLine+1, bufio.MaxScanTokenSize)), c.maxLine+1)
	sc.Split(splitLines(c.maxLine))

	for sc.Scan() {
		line := sc.Text()

		c.mu.Lock()
		c.lastLine = line
		c.lines++
		c.mu.Unlock()

		if c.sink != nil {
			c.sink(line)
		}
	}

	if err := sc.Err(); err != nil {
		return errors.Join(ErrRead, err)
	}

	return nil
}

// LastLine returns the most recent line delivered to the sink.
func (c *Collector) LastLine() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastLine
}

// Lines returns the number of lines delivered so far.
func (c *Collector) Lines() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lines
}

// splitLines is a bufio.SplitFunc yielding newline-terminated lines of at most max bytes.
// A line of exactly max bytes is followed by an empty line for its newline.
func splitLines(maxLen int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}

		limit := min(len(data), maxLen)
		if i := bytes.IndexByte(data[:limit], '\n'); i >= 0 {
			return i + 1, data[:i], nil
		}

		if len(data) >= maxLen {
			return maxLen, data[:maxLen], nil
		}

		if atEOF {
			return len(data), data, nil
		}

		return 0, nil, nil
	}
}
