// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package xsync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatch(t *testing.T) {
	l := NewLatch()
	assert.False(t, l.Test())

	done := make(chan struct{})
	go func() {
		l.Wait()
		close(done)
	}()
	l.Trigger()
	l.Trigger() // Re-triggering is a no-op.
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Latch.Wait did not return after Trigger")
	}
	assert.True(t, l.Test())
}

func TestDynamicWaitGroup(t *testing.T) {
	dwg := NewDynamicWaitGroup()
	dwg.Wait() // Zero counter: returns immediately.

	const numTasks = 8
	var finished atomic.Int32
	dwg.Add(1)
	for i := 0; i < numTasks; i++ {
		dwg.Add(1)
		go func() {
			time.Sleep(time.Millisecond)
			finished.Add(1)
			dwg.Done()
		}()
	}
	dwg.Done()
	dwg.Wait()
	require.Equal(t, int32(numTasks), finished.Load())
	assert.Equal(t, int64(0), dwg.Count())

	assert.Panics(t, func() { dwg.Done() })
}
