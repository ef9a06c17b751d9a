// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package future provides a single-assignment cell.
//
// A Cell is written exactly once and read any number of times. Readers block
// until the value is available. Once set it stays set, so late readers
// return immediately.
package future

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadySet is returned when Set is called on a cell that already holds a value.
var ErrAlreadySet = errors.New("future already set")

// Cell is a write-once value. The zero value is not usable, use New.
type Cell[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

// New returns an empty cell.
func New[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

// Set stores v and releases every waiter. Only the first call has an effect.
func (c *Cell[T]) Set(v T) error {
	err := ErrAlreadySet

	c.once.Do(func() {
		c.value = v
		close(c.done)
		err = nil
	})

	return err
}

// Wait blocks until the cell is set or ctx is done.
func (c *Cell[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, nil
	default:
	}

	select {
	case <-c.done:
		return c.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek returns the value without blocking. ok is false while the cell is empty.
func (c *Cell[T]) Peek() (v T, ok bool) {
	select {
	case <-c.done:
		return c.value, true
	default:
		return v, false
	}
}

// Done returns a channel closed once the cell is set.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}
