// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package workerspool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_Bounded(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(3)

	var wg sync.WaitGroup
	var running, peak atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.WaitToStart(func() {
			defer wg.Done()
			now := running.Add(1)
			for {
				old := peak.Load()
				if now <= old || peak.CompareAndSwap(old, now) {
					break
				}
			}
			running.Add(-1)
		})
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestPool_Inline(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(0)
	ran := false
	pool.WaitToStart(func() { ran = true })
	// With parallelism disabled the task must have completed inline.
	assert.True(t, ran)
}

func TestPool_StartIfAvailable(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(1)

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	ok := pool.StartIfAvailable(func() {
		defer wg.Done()
		<-release
	})
	assert.True(t, ok)
	// The single slot is taken.
	assert.False(t, pool.StartIfAvailable(func() {}))
	close(release)
	wg.Wait()
}
