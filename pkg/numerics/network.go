// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// TensorLeg is one dimension of a connected tensor: its extent and the id of
// the factor it is contracted with. Legs connected to the output factor
// (id 0) are the open legs of the network.
type TensorLeg struct {
	OtherID uint64 // id of the factor on the other end of the leg
	Dim     uint64 // dimension extent carried by the leg
}

// TensorConn is a tensor connected inside a tensor network: the tensor handle
// plus one leg per tensor dimension.
type TensorConn struct {
	tensor *Tensor
	legs   []TensorLeg
}

// Tensor returns the underlying tensor handle.
func (c *TensorConn) Tensor() *Tensor { return c.tensor }

// Legs returns a copy of the connection legs, in dimension order.
func (c *TensorConn) Legs() []TensorLeg {
	return append([]TensorLeg{}, c.legs...)
}

// Volume is the number of elements of the connected tensor, the product of
// its leg extents.
func (c *TensorConn) Volume() float64 {
	vol := 1.0
	for _, leg := range c.legs {
		vol *= float64(leg.Dim)
	}
	return vol
}

// TensorNetwork is a set of tensor factors with contracted indices whose
// product equals an output tensor.
//
// Factors are keyed by an unsigned id; id 0 is reserved for the output tensor,
// ids >= 1 are the input factors. The output factor's legs mirror the open
// legs of the inputs.
//
// TensorNetwork is not safe for concurrent mutation; the contraction-sequence
// planner clones it before branching.
type TensorNetwork struct {
	name    string
	tensors map[uint64]*TensorConn
}

// NewTensorNetwork creates a named tensor network with only the output tensor
// (id 0) in it. The output legs are appended implicitly as input factors with
// open legs are appended.
func NewTensorNetwork(name string, output *Tensor) *TensorNetwork {
	if output == nil {
		exceptions.Panicf("tensor network %q: nil output tensor", name)
	}
	return &TensorNetwork{
		name: name,
		tensors: map[uint64]*TensorConn{
			0: {tensor: output},
		},
	}
}

// Name of the tensor network.
func (n *TensorNetwork) Name() string { return n.name }

// NumTensors returns the number of input factors (the output tensor at id 0
// is not counted).
func (n *TensorNetwork) NumTensors() int {
	return len(n.tensors) - 1
}

// TensorIDs returns all factor ids in ascending order, including the
// output id 0.
func (n *TensorNetwork) TensorIDs() []uint64 {
	ids := maps.Keys(n.tensors)
	slices.Sort(ids)
	return ids
}

// GetTensorConn returns the connected factor with the given id, or nil if the
// id is not part of the network.
func (n *TensorNetwork) GetTensorConn(id uint64) *TensorConn {
	return n.tensors[id]
}

// AppendTensor adds an input factor to the network under the given id, with
// one leg per tensor dimension. Legs pointing at factor 0 are open legs; the
// output factor grows a mirroring leg for each of them.
//
// The id must be unused and nonzero, and the legs must match the tensor rank.
func (n *TensorNetwork) AppendTensor(id uint64, tensor *Tensor, legs []TensorLeg) error {
	if id == 0 {
		return errors.Errorf("tensor network %q: factor id 0 is reserved for the output tensor", n.name)
	}
	if tensor == nil {
		return errors.Errorf("tensor network %q: nil tensor for factor %d", n.name, id)
	}
	if _, exists := n.tensors[id]; exists {
		return errors.Errorf("tensor network %q: factor id %d already in use", n.name, id)
	}
	if len(legs) != tensor.Rank() {
		return errors.Errorf("tensor network %q: factor %d (%s) has rank %d but %d legs given",
			n.name, id, tensor.Name(), tensor.Rank(), len(legs))
	}
	conn := &TensorConn{tensor: tensor, legs: append([]TensorLeg{}, legs...)}
	n.tensors[id] = conn
	output := n.tensors[0]
	for _, leg := range legs {
		if leg.OtherID == 0 {
			output.legs = append(output.legs, TensorLeg{OtherID: id, Dim: leg.Dim})
		}
	}
	return nil
}

// GetTensorContractionCost estimates the FLOP count of pairwise contracting
// factors i and j: vol(i) * vol(j) / sharedVol(i, j), where sharedVol is the
// product of the extents of the legs connecting i and j directly.
//
// The estimate is nonnegative and symmetric in its arguments.
func (n *TensorNetwork) GetTensorContractionCost(i, j uint64) float64 {
	ci, cj := n.tensors[i], n.tensors[j]
	if ci == nil || cj == nil {
		exceptions.Panicf("tensor network %q: contraction cost of missing factor pair (%d,%d)", n.name, i, j)
	}
	shared := 1.0
	for _, leg := range ci.legs {
		if leg.OtherID == j {
			shared *= float64(leg.Dim)
		}
	}
	return ci.Volume() * cj.Volume() / shared
}

// MergeTensors fuses input factors i and j into a new intermediate factor
// with the given id, removing the originals. Legs between i and j are
// contracted away; all remaining legs transfer to the new factor, and factors
// connected to i or j are re-pointed at newID.
//
// When newID is 0, the merged factor replaces the output tensor: this is the
// final contraction of a network evaluation.
func (n *TensorNetwork) MergeTensors(i, j, newID uint64) error {
	if i == j {
		return errors.Errorf("tensor network %q: cannot merge factor %d with itself", n.name, i)
	}
	if i == 0 || j == 0 {
		return errors.Errorf("tensor network %q: cannot merge the output tensor (ids %d,%d)", n.name, i, j)
	}
	ci, cj := n.tensors[i], n.tensors[j]
	if ci == nil || cj == nil {
		return errors.Errorf("tensor network %q: merge of missing factor pair (%d,%d)", n.name, i, j)
	}
	if _, exists := n.tensors[newID]; exists && newID != 0 {
		return errors.Errorf("tensor network %q: merge target id %d already in use", n.name, newID)
	}

	var mergedLegs []TensorLeg
	var mergedDims []uint64
	appendSurviving := func(other uint64, legs []TensorLeg) {
		for _, leg := range legs {
			if leg.OtherID == other || (newID == 0 && leg.OtherID == 0) {
				continue // Contracted away (or absorbed into the final output).
			}
			mergedLegs = append(mergedLegs, leg)
			mergedDims = append(mergedDims, leg.Dim)
		}
	}
	appendSurviving(j, ci.legs)
	appendSurviving(i, cj.legs)

	delete(n.tensors, i)
	delete(n.tensors, j)

	merged := &TensorConn{
		tensor: NewTensor(fmt.Sprintf("_x%d", newID), mergedDims...),
		legs:   mergedLegs,
	}
	if newID == 0 {
		// The final contraction produces the network output itself.
		merged.tensor = n.tensors[0].tensor
	}
	n.tensors[newID] = merged

	// Re-point legs of the remaining factors at the merged one.
	for id, conn := range n.tensors {
		if id == newID {
			continue
		}
		for k := range conn.legs {
			if conn.legs[k].OtherID == i || conn.legs[k].OtherID == j {
				conn.legs[k].OtherID = newID
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the network connectivity. Tensor handles are
// shared (they are immutable); the factor map and legs are independent.
func (n *TensorNetwork) Clone() *TensorNetwork {
	clone := &TensorNetwork{
		name:    n.name,
		tensors: make(map[uint64]*TensorConn, len(n.tensors)),
	}
	for id, conn := range n.tensors {
		clone.tensors[id] = &TensorConn{
			tensor: conn.tensor,
			legs:   append([]TensorLeg{}, conn.legs...),
		}
	}
	return clone
}

// String implements fmt.Stringer, listing factors in id order.
func (n *TensorNetwork) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TensorNetwork %q:", n.name)
	for _, id := range n.TensorIDs() {
		conn := n.tensors[id]
		fmt.Fprintf(&sb, "\n  #%d %s legs=%v", id, conn.tensor, conn.legs)
	}
	return sb.String()
}
