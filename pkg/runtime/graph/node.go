// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

// TensorOpNode is the record attached to a graph vertex: a shared handle to
// the tensor operation plus the vertex id assigned on insertion and the
// execution-state flag mutated by the scheduler.
//
// The state flag is atomic so executors can update it without holding the
// graph mutex; everything else is immutable after insertion.
type TensorOpNode struct {
	op    *numerics.TensorOperation
	id    VertexID
	state atomic.Int32
}

func newTensorOpNode(op *numerics.TensorOperation, id VertexID) *TensorOpNode {
	return &TensorOpNode{op: op, id: id}
}

// Operation returns the tensor operation the vertex executes.
func (n *TensorOpNode) Operation() *numerics.TensorOperation { return n.op }

// ID returns the vertex id of the node within its graph.
func (n *TensorOpNode) ID() VertexID { return n.id }

// State returns the current execution state of the node.
func (n *TensorOpNode) State() ExecutionState {
	return ExecutionState(n.state.Load())
}

// SetState updates the execution state of the node. Called by the scheduler
// driving the graph, not by clients.
func (n *TensorOpNode) SetState(state ExecutionState) {
	n.state.Store(int32(state))
}

// IsCompleted reports whether the operation finished successfully.
func (n *TensorOpNode) IsCompleted() bool {
	return n.State() == StateCompleted
}

// String implements fmt.Stringer.
func (n *TensorOpNode) String() string {
	return fmt.Sprintf("node #%d [%s] %s", n.id, n.State(), n.op)
}
