// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

// Package numerics implements the tensor value types consumed by the tensor
// runtime: tensors, tensor operations, tensor networks, vector spaces and
// tensor network operators.
//
// The types here carry no numerical data: a Tensor is a named, shaped handle
// whose identity (TensorHash) is what the runtime's dependency tracking keys
// on. The arithmetic itself is performed by pluggable node executors, outside
// this package.
package numerics

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gomlx/exceptions"
)

// TensorHash is a stable unique identifier of a Tensor within the process.
//
// Two Tensor handles with the same hash denote the same tensor for the purpose
// of data-hazard tracking.
type TensorHash uint64

var tensorHashCount atomic.Uint64

// Tensor is an abstract tensor: a name plus an ordered list of dimension
// extents. Tensors are immutable after creation and may be shared freely.
type Tensor struct {
	name string
	dims []uint64
	hash TensorHash
}

// NewTensor creates a tensor with the given name and dimension extents.
// A scalar has no dimensions. Every extent must be positive.
func NewTensor(name string, dims ...uint64) *Tensor {
	for i, d := range dims {
		if d == 0 {
			exceptions.Panicf("tensor %q: dimension %d has zero extent", name, i)
		}
	}
	return &Tensor{
		name: name,
		dims: append([]uint64{}, dims...),
		hash: TensorHash(tensorHashCount.Add(1)),
	}
}

// Name of the tensor.
func (t *Tensor) Name() string { return t.name }

// Hash returns the unique identity of the tensor.
func (t *Tensor) Hash() TensorHash { return t.hash }

// Rank is the number of tensor dimensions (order of the tensor).
func (t *Tensor) Rank() int { return len(t.dims) }

// DimExtent returns the extent of dimension i.
func (t *Tensor) DimExtent(i int) uint64 {
	if i < 0 || i >= len(t.dims) {
		exceptions.Panicf("tensor %q: dimension %d out of range (rank %d)", t.name, i, len(t.dims))
	}
	return t.dims[i]
}

// DimExtents returns a copy of all dimension extents.
func (t *Tensor) DimExtents() []uint64 {
	return append([]uint64{}, t.dims...)
}

// Volume is the total number of tensor elements, the product of all
// dimension extents. A scalar has volume 1.
func (t *Tensor) Volume() uint64 {
	vol := uint64(1)
	for _, d := range t.dims {
		vol *= d
	}
	return vol
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	if len(t.dims) == 0 {
		return fmt.Sprintf("%s()", t.name)
	}
	parts := make([]string, len(t.dims))
	for i, d := range t.dims {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s(%s)", t.name, strings.Join(parts, ","))
}
