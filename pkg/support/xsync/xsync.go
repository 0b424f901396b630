// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

// Package xsync implements extra synchronization tools used by the tensor
// runtime executors.
package xsync

import (
	"sync"

	"github.com/pkg/errors"
)

// Latch is a signal that can be waited for until it is triggered.
// Once triggered it never changes state, it's forever triggered.
type Latch struct {
	muTrigger sync.Mutex
	wait      chan struct{}
}

// NewLatch returns an un-triggered latch.
func NewLatch() *Latch {
	return &Latch{wait: make(chan struct{})}
}

// Trigger the latch. It is safe to call it more than once.
func (l *Latch) Trigger() {
	l.muTrigger.Lock()
	defer l.muTrigger.Unlock()
	if l.Test() {
		return
	}
	close(l.wait)
}

// Wait blocks until the latch is triggered.
func (l *Latch) Wait() {
	<-l.wait
}

// Test checks whether the latch has been triggered.
func (l *Latch) Test() bool {
	select {
	case <-l.wait:
		return true
	default:
		return false
	}
}

// WaitChan returns a channel that is closed when the latch triggers,
// usable in a `select`.
func (l *Latch) WaitChan() <-chan struct{} {
	return l.wait
}

// DynamicWaitGroup is a WaitGroup-like synchronization primitive that allows
// the count to be changed (new values added) while someone is waiting for it.
//
// The eager graph executor uses it to wait for in-flight tensor operations:
// new operations may be dispatched while a sync is already in progress.
type DynamicWaitGroup struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int64
}

// NewDynamicWaitGroup creates a new DynamicWaitGroup.
func NewDynamicWaitGroup() *DynamicWaitGroup {
	dwg := &DynamicWaitGroup{}
	dwg.cond = sync.NewCond(&dwg.mu)
	return dwg
}

// Add changes the counter by the given delta. If the counter becomes zero, it
// wakes up all waiting goroutines. If the counter would go negative, it panics.
func (dwg *DynamicWaitGroup) Add(delta int) {
	dwg.mu.Lock()
	defer dwg.mu.Unlock()
	dwg.count += int64(delta)
	if dwg.count < 0 {
		panic(errors.Errorf("DynamicWaitGroup: negative counter"))
	}
	if dwg.count == 0 {
		dwg.cond.Broadcast()
	}
}

// Done decrements the counter by one.
func (dwg *DynamicWaitGroup) Done() {
	dwg.Add(-1)
}

// Wait blocks until the counter is zero.
//
// Unlike sync.WaitGroup, concurrent Add calls that raise the count from zero
// while a waiter is blocked are allowed: the waiter simply keeps waiting.
func (dwg *DynamicWaitGroup) Wait() {
	dwg.mu.Lock()
	defer dwg.mu.Unlock()
	for dwg.count > 0 {
		dwg.cond.Wait()
	}
}

// Count returns the current counter value. Only informative: by the time the
// caller inspects it, the value may have changed.
func (dwg *DynamicWaitGroup) Count() int64 {
	dwg.mu.Lock()
	defer dwg.mu.Unlock()
	return dwg.count
}
