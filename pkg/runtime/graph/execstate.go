// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

// WriteEpoch is the epoch tag of a tensor whose most recent use is a write.
// Read epochs carry a nonnegative tag: the number of readers registered in
// the current epoch.
const WriteEpoch = -1

// tensorEpoch tracks the most recent use of one tensor: either a single
// writer (epoch == WriteEpoch) or the accumulated readers since the last
// write (epoch == len(nodes) >= 1), in registration order.
type tensorEpoch struct {
	epoch int
	nodes []VertexID
}

// ExecState is the per-graph data-hazard tracker. For each live tensor it
// records the nodes of the tensor's current read/write epoch, from which the
// graph derives RAW, WAR and WAW dependency edges on every insertion.
//
// ExecState carries no locking of its own: it is owned by a TensorGraph and
// accessed only under the graph mutex.
type ExecState struct {
	tensors map[numerics.TensorHash]*tensorEpoch
}

// NewExecState creates an empty hazard tracker.
func NewExecState() *ExecState {
	return &ExecState{tensors: make(map[numerics.TensorHash]*tensorEpoch)}
}

// RegisterTensorWrite opens a write epoch on the tensor with vertex as its
// single producer, superseding any previous epoch.
func (s *ExecState) RegisterTensorWrite(tensor numerics.TensorHash, vertex VertexID) {
	s.tensors[tensor] = &tensorEpoch{epoch: WriteEpoch, nodes: []VertexID{vertex}}
}

// RegisterTensorRead adds vertex as a reader of the tensor. A read following
// a write epoch closes the write epoch and opens a fresh read epoch. It
// returns the epoch tag after registration (the number of readers).
func (s *ExecState) RegisterTensorRead(tensor numerics.TensorHash, vertex VertexID) int {
	te, exists := s.tensors[tensor]
	if !exists || te.epoch == WriteEpoch {
		te = &tensorEpoch{}
		s.tensors[tensor] = te
	}
	if !slices.Contains(te.nodes, vertex) {
		te.nodes = append(te.nodes, vertex)
		te.epoch = len(te.nodes)
	}
	return te.epoch
}

// GetTensorEpochNodes returns the nodes of the tensor's current epoch and the
// epoch tag: (single writer, WriteEpoch) for a write epoch, (readers, tag >= 1)
// for a read epoch. It returns ok == false if the tensor has no live epoch.
//
// The returned slice is owned by the ExecState and must not be mutated.
func (s *ExecState) GetTensorEpochNodes(tensor numerics.TensorHash) (nodes []VertexID, epoch int, ok bool) {
	te, exists := s.tensors[tensor]
	if !exists {
		return nil, 0, false
	}
	return te.nodes, te.epoch, true
}

// RetireTensorRead removes a retired reader from the tensor's read epoch.
// Once the epoch empties, the tensor record is dropped. A no-op if the
// tensor's current epoch is a write epoch (a later write superseded the read
// epoch the vertex belonged to).
func (s *ExecState) RetireTensorRead(tensor numerics.TensorHash, vertex VertexID) {
	te, exists := s.tensors[tensor]
	if !exists || te.epoch == WriteEpoch {
		return
	}
	idx := slices.Index(te.nodes, vertex)
	if idx < 0 {
		return
	}
	te.nodes = slices.Delete(te.nodes, idx, idx+1)
	te.epoch = len(te.nodes)
	if len(te.nodes) == 0 {
		delete(s.tensors, tensor)
	}
}

// RetireTensorWrite drops the tensor's write epoch if vertex still holds it.
// A no-op if a later write or read epoch already superseded it.
func (s *ExecState) RetireTensorWrite(tensor numerics.TensorHash, vertex VertexID) {
	te, exists := s.tensors[tensor]
	if !exists || te.epoch != WriteEpoch || te.nodes[0] != vertex {
		return
	}
	delete(s.tensors, tensor)
}

// NumLiveTensors returns the number of tensors with a live epoch.
func (s *ExecState) NumLiveTensors() int {
	return len(s.tensors)
}

// Clear drops all state.
func (s *ExecState) Clear() {
	s.tensors = make(map[numerics.TensorHash]*tensorEpoch)
}
