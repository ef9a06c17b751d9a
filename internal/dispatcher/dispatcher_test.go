// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatcher

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/tasksh/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const waitTimeout = 10 * time.Second

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newDispatcher() (*Dispatcher, *executor.Executor, *syncBuffer) {
	out := &syncBuffer{}
	e := executor.New(out, executor.Options{})

	return New(e), e, out
}

func TestExecute_UserInputErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		line     string
		expected string
	}{
		{name: "empty line", line: "", expected: ""},
		{name: "blank line", line: "   \t ", expected: ""},
		{name: "unknown command", line: "jobs", expected: "Unknown command: jobs\n"},
		{name: "unknown command with args", line: "wait 1 2", expected: "Unknown command: wait\n"},
		{name: "run without program", line: "run", expected: "Invalid argument: run\n"},
		{name: "out without id", line: "out", expected: "Invalid argument: out\n"},
		{name: "err non-integer", line: "err x", expected: "Invalid argument: err x\n"},
		{name: "kill negative", line: "kill -1", expected: "Invalid argument: kill -1\n"},
		{name: "kill never allocated", line: "kill 5", expected: "Invalid argument: kill 5\n"},
		{name: "sleep non-integer", line: "sleep soon", expected: "Invalid argument: sleep soon\n"},
		{name: "out never allocated", line: "out 9", expected: "Task 9 stdout: ''.\n"},
		{name: "err never allocated", line: "err 9", expected: "Task 9 stderr: ''.\n"},
		{name: "sleep zero", line: "sleep 0", expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, _, out := newDispatcher()

			require.NoError(t, d.Execute(ctx, tc.line))
			assert.Equal(t, tc.expected, out.String())
		})
	}
}

func TestExecute_Quit(t *testing.T) {
	d, _, out := newDispatcher()

	assert.ErrorIs(t, d.Execute(context.Background(), "quit"), ErrQuit)
	assert.Empty(t, out.String())
}

func TestExecute_RunThenOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	d, e, out := newDispatcher()

	require.NoError(t, d.Execute(ctx, "run /bin/echo one line"))

	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()
	require.NoError(t, e.Table().AwaitCompletion(waitCtx, 0))

	require.NoError(t, d.Execute(ctx, "out 0"))
	require.NoError(t, d.Execute(ctx, "err 0"))
	require.NoError(t, e.Shutdown(ctx))

	re := regexp.MustCompile(`^Task 0 started: pid \d+\.\nTask 0 ended: status 0\.\nTask 0 stdout: 'one line'\.\nTask 0 stderr: ''\.\n$`)
	assert.Regexp(t, re, out.String())
}

func TestRun_KillThenQuit(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, e, out := newDispatcher()
	src := NewReaderSource(strings.NewReader("run /bin/sleep 30\nkill 0\nquit\nrun /bin/echo never\n"))

	require.NoError(t, d.Run(context.Background(), src))
	require.NoError(t, src.Close())

	assert.False(t, e.Table().Running(0))
	assert.Equal(t, 1, e.Table().Len())
	assert.Regexp(t, regexp.MustCompile(`^Task 0 started: pid \d+\.\nTask 0 ended: signalled\.\n$`), out.String())
}

func TestRun_EndOfInputShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, e, out := newDispatcher()
	src := NewReaderSource(strings.NewReader("run /bin/sleep 30\n\nrun /bin/sleep 30"))

	require.NoError(t, d.Run(context.Background(), src))

	assert.Equal(t, 2, e.Table().Len())
	assert.Contains(t, out.String(), "Task 0 ended: signalled.\n")
	assert.Contains(t, out.String(), "Task 1 ended: signalled.\n")
}

func TestRun_ContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, e, out := newDispatcher()
	pr, pw := io.Pipe()
	src := NewReaderSource(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- d.Run(ctx, src)
	}()

	_, err := io.WriteString(pw, "run /bin/sleep 30\n")
	require.NoError(t, err)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), waitTimeout)
	defer waitCancel()
	_, err = e.Table().AwaitIdentity(waitCtx, 0)
	require.NoError(t, err)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("dispatcher did not stop")
	}

	assert.Contains(t, out.String(), "Task 0 ended: signalled.\n")

	// Release the blocked reader.
	require.NoError(t, pw.Close())
	require.NoError(t, src.Close())
}

func TestWithRegistry(t *testing.T) {
	d, _, out := newDispatcher()

	var got []string

	d.WithRegistry(Registry{
		"echo": func(_ context.Context, _ *Dispatcher, args []string) error {
			got = args
			return nil
		},
	})

	require.NoError(t, d.Execute(context.Background(), "echo  a   b"))
	require.NoError(t, d.Execute(context.Background(), "run /bin/true"))

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "Unknown command: run\n", out.String())
}

func TestIntArg(t *testing.T) {
	n, err := intArg("out", []string{"12", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = intArg("out", nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "invalid argument: out", err.Error())

	_, err = intArg("out", []string{"1.5"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "invalid argument: out 1.5", err.Error())
}

func TestReaderSource(t *testing.T) {
	src := NewReaderSource(strings.NewReader("one\n\ntwo"))

	for _, want := range []string{"one", "", "two"} {
		line, err := src.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}

	_, err := src.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}

func TestReaderSource_ClosesReader(t *testing.T) {
	pr, pw := io.Pipe()
	src := NewReaderSource(pr)

	require.NoError(t, src.Close())

	_, err := pw.Write([]byte("x\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
