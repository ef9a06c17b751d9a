// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventStarted, "started"},
		{EventOutput, "output"},
		{EventEnded, "ended"},
		{EventStartFailed, "start-failed"},
		{EventType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
		})
	}
}

func TestNullReporter(t *testing.T) {
	r := NewNullReporter()
	r.Report(Event{TaskID: 1})
	r.Close()
}

func TestChannelReporter_ListenDeliversInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewChannelReporter(context.Background(), 16)

	var (
		mu  sync.Mutex
		ids []int
	)

	r.Listen(ListenerFunc(func(e Event) {
		mu.Lock()
		ids = append(ids, e.TaskID)
		mu.Unlock()
	}))

	for i := range 5 {
		r.Report(Event{TaskID: i, Type: EventOutput})
	}

	r.Close()

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, ids)
}

func TestChannelReporter_DropsWhenFull(t *testing.T) {
	r := NewChannelReporter(context.Background(), 1)
	defer r.Close()

	r.Report(Event{TaskID: 1})
	r.Report(Event{TaskID: 2})

	e := <-r.Events()
	assert.Equal(t, 1, e.TaskID)

	select {
	case e := <-r.Events():
		t.Fatalf("unexpected event %d, buffer should have dropped it", e.TaskID)
	default:
	}
}

func TestChannelReporter_ReportAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewChannelReporter(context.Background(), 1)
	r.Close()
	r.Close()

	assert.NotPanics(t, func() {
		r.Report(Event{TaskID: 1})
	})
}
