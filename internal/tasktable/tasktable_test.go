// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tasktable

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAllocate_SequentialIDs(t *testing.T) {
	tbl := New(8)

	for want := range 8 {
		id, err := tbl.Allocate()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	assert.Equal(t, 8, tbl.Len())

	_, err := tbl.Allocate()
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 8, tbl.Len(), "failed allocation must not consume an id")
}

func TestAllocate_ConcurrentIDsUnique(t *testing.T) {
	defer goleak.VerifyNone(t)

	const n = 200

	tbl := New(n)

	var wg sync.WaitGroup

	ids := make(chan int, n)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id, err := tbl.Allocate()
			if err == nil {
				ids <- id
			}
		}()
	}

	wg.Wait()
	close(ids)

	seen := make(map[int]struct{}, n)
	for id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "id %d handed out twice", id)
		seen[id] = struct{}{}
	}

	assert.Len(t, seen, n)
}

func TestAllocate_Closed(t *testing.T) {
	tbl := New(2)
	tbl.Close()

	_, err := tbl.Allocate()
	require.ErrorIs(t, err, ErrClosed)
}

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, 3, New(3).Capacity())
}

func TestLastLine_LastWriterWins(t *testing.T) {
	tbl := New(2)
	id, err := tbl.Allocate()
	require.NoError(t, err)

	assert.Empty(t, tbl.ReadLastLine(id, Stdout))

	for _, l := range []string{"a", "b", "c"} {
		tbl.WriteLastLine(id, Stdout, l)
	}

	tbl.WriteLastLine(id, Stderr, "oops")

	assert.Equal(t, "c", tbl.ReadLastLine(id, Stdout))
	assert.Equal(t, "c", tbl.ReadLastLine(id, Stdout), "repeated reads return the same snapshot")
	assert.Equal(t, "oops", tbl.ReadLastLine(id, Stderr))
}

func TestLastLine_UnallocatedIsEmpty(t *testing.T) {
	tbl := New(4)

	assert.Empty(t, tbl.ReadLastLine(0, Stdout))
	assert.Empty(t, tbl.ReadLastLine(-1, Stderr))
	assert.Empty(t, tbl.ReadLastLine(100, Stdout))

	tbl.WriteLastLine(2, Stdout, "dropped")

	_, err := tbl.Allocate()
	require.NoError(t, err)
	assert.Empty(t, tbl.ReadLastLine(2, Stdout))
}

func TestIdentity_PublishThenAwait(t *testing.T) {
	defer goleak.VerifyNone(t)

	tbl := New(1)
	id, err := tbl.Allocate()
	require.NoError(t, err)

	got := make(chan Identity, 1)

	go func() {
		ident, err := tbl.AwaitIdentity(context.Background(), id)
		if err == nil {
			got <- ident
		}
	}()

	select {
	case <-got:
		t.Fatal("identity observed before it was published")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, tbl.PublishIdentity(id, Identity{PID: 1234}))
	assert.Equal(t, 1234, (<-got).PID)

	require.Error(t, tbl.PublishIdentity(id, Identity{PID: 1}), "identity is published once")

	ident, err := tbl.AwaitIdentity(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1234, ident.PID)
}

func TestIdentity_UnknownTask(t *testing.T) {
	tbl := New(1)

	_, err := tbl.AwaitIdentity(context.Background(), 0)
	require.ErrorIs(t, err, ErrUnknownTask)
	require.ErrorIs(t, tbl.PublishIdentity(5, Identity{}), ErrUnknownTask)
	require.ErrorIs(t, tbl.AwaitCompletion(context.Background(), 0), ErrUnknownTask)
}

func TestFinish_RecordsUnderLock(t *testing.T) {
	defer goleak.VerifyNone(t)

	tbl := New(1)
	id, err := tbl.Allocate()
	require.NoError(t, err)
	tbl.MarkRunning(id, true)
	assert.True(t, tbl.Running(id))

	done := make(chan error, 1)

	go func() {
		done <- tbl.AwaitCompletion(context.Background(), id)
	}()

	var order []string

	tbl.Finish(id, func() {
		order = append(order, "record")
	})

	require.NoError(t, <-done)
	assert.Equal(t, []string{"record"}, order)
	assert.False(t, tbl.Running(id))
}

func TestAwaitCompletion_Cancelled(t *testing.T) {
	tbl := New(1)
	id, err := tbl.Allocate()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, tbl.AwaitCompletion(ctx, id), context.DeadlineExceeded)
}

func TestSnapshot(t *testing.T) {
	tbl := New(4)

	for range 2 {
		_, err := tbl.Allocate()
		require.NoError(t, err)
	}

	require.NoError(t, tbl.PublishIdentity(0, Identity{PID: 10}))
	tbl.MarkRunning(0, true)
	tbl.WriteLastLine(0, Stdout, "hello")
	tbl.WriteLastLine(1, Stderr, "warn")

	views := tbl.Snapshot()
	require.Len(t, views, 2)

	assert.Equal(t, SlotView{ID: 0, PID: 10, Published: true, Running: true, LastStdout: "hello"}, views[0])
	assert.Equal(t, SlotView{ID: 1, PID: NoPID, LastStderr: "warn"}, views[1])
}

func TestStream_String(t *testing.T) {
	assert.Equal(t, "stdout", Stdout.String())
	assert.Equal(t, "stderr", Stderr.String())
	assert.Equal(t, fmt.Sprintf("stream(%d)", 9), Stream(9).String())
}
