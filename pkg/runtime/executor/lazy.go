// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package executor

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/1tnguyen/exatn/pkg/runtime/graph"
	"github.com/1tnguyen/exatn/pkg/support/xsync"
)

func init() {
	RegisterGraphExecutor("lazy", func() GraphExecutor { return NewLazy() })
}

// Lazy is the graph executor that defers all dispatch until the client
// requests a sync: Execute drains the graph one ready vertex at a time, in
// vertex-id order, on the calling goroutine.
//
// Between Execute calls the graph simply accumulates operations.
type Lazy struct {
	nodeExecutor NodeExecutor
	stop         *xsync.Latch
}

// NewLazy creates a lazy graph executor.
func NewLazy() *Lazy {
	return &Lazy{stop: xsync.NewLatch()}
}

// Name implements GraphExecutor.
func (l *Lazy) Name() string { return "lazy" }

// Description implements GraphExecutor.
func (l *Lazy) Description() string {
	return "defers dispatch until a sync drains the graph sequentially"
}

// ResetNodeExecutor implements GraphExecutor.
func (l *Lazy) ResetNodeExecutor(nodeExecutor NodeExecutor) {
	l.nodeExecutor = nodeExecutor
}

// Stop implements GraphExecutor.
func (l *Lazy) Stop() {
	l.stop.Trigger()
}

// Execute implements GraphExecutor.
func (l *Lazy) Execute(dag graph.TensorGraph) error {
	if l.nodeExecutor == nil {
		exceptions.Panicf("lazy graph executor: no node executor set")
	}
	var firstErr error
	for !l.stop.Test() {
		anyProgress := false
		numNodes := dag.NumNodes()
		for v := graph.VertexID(0); int(v) < numNodes; v++ {
			if l.stop.Test() {
				break
			}
			if !readyToDispatch(dag, v) {
				continue
			}
			node := dag.NodeProperties(v)
			node.SetState(graph.StateExecuting)
			if err := l.nodeExecutor.Execute(node.Operation()); err != nil {
				node.SetState(graph.StateFailed)
				klog.Errorf("lazy graph executor: node %d failed: %+v", v, err)
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "executing DAG node %d", v)
				}
				continue
			}
			completeVertex(dag, v)
			anyProgress = true
		}
		if !anyProgress {
			break
		}
	}
	return firstErr
}
