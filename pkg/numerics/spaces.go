// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"fmt"

	"github.com/gomlx/exceptions"
)

// SpaceID identifies a registered vector space.
type SpaceID uint64

// SubspaceID identifies a registered subspace within a vector space.
type SubspaceID uint64

const (
	// AnonymousSpace is the id of a vector space that has not been registered.
	AnonymousSpace SpaceID = 0
	// UnregisteredSubspace is the id of a subspace that has not been registered.
	UnregisteredSubspace SubspaceID = 0
)

// VectorSpace is a finite-dimensional vector space tensor dimensions are
// defined over.
type VectorSpace struct {
	dim  uint64
	name string
	id   SpaceID
}

// NewVectorSpace creates a vector space of the given dimension. The name may
// be empty for anonymous spaces.
func NewVectorSpace(dim uint64, name string) *VectorSpace {
	if dim == 0 {
		exceptions.Panicf("vector space %q must have positive dimension", name)
	}
	return &VectorSpace{dim: dim, name: name, id: AnonymousSpace}
}

// Dimension of the vector space.
func (s *VectorSpace) Dimension() uint64 { return s.dim }

// Name of the vector space, "" if anonymous.
func (s *VectorSpace) Name() string { return s.name }

// RegisteredID returns the id assigned at registration, or AnonymousSpace.
func (s *VectorSpace) RegisteredID() SpaceID { return s.id }

// ResetRegisteredID is called by the space registry when the space is
// registered.
func (s *VectorSpace) ResetRegisteredID(id SpaceID) { s.id = id }

// String implements fmt.Stringer.
func (s *VectorSpace) String() string {
	name := s.name
	if name == "" {
		name = "NONE"
	}
	return fmt.Sprintf("VectorSpace{Dim=%d, id=%d, Name=%s}", s.dim, s.id, name)
}

// Subspace is a contiguous [lower, upper] range of basis vectors of a
// VectorSpace.
type Subspace struct {
	space        *VectorSpace
	lower, upper uint64
	name         string
	id           SubspaceID
}

// NewSubspace creates a subspace of the given vector space covering basis
// vectors lower..upper inclusive.
func NewSubspace(space *VectorSpace, lower, upper uint64, name string) *Subspace {
	if space == nil {
		exceptions.Panicf("subspace %q: nil vector space", name)
	}
	if lower > upper || upper >= space.Dimension() {
		exceptions.Panicf("subspace %q: bounds [%d,%d] invalid for space of dimension %d",
			name, lower, upper, space.Dimension())
	}
	return &Subspace{space: space, lower: lower, upper: upper, name: name, id: UnregisteredSubspace}
}

// Dimension of the subspace.
func (s *Subspace) Dimension() uint64 { return s.upper - s.lower + 1 }

// LowerBound of the subspace, inclusive.
func (s *Subspace) LowerBound() uint64 { return s.lower }

// UpperBound of the subspace, inclusive.
func (s *Subspace) UpperBound() uint64 { return s.upper }

// VectorSpace the subspace belongs to.
func (s *Subspace) VectorSpace() *VectorSpace { return s.space }

// Name of the subspace, "" if anonymous.
func (s *Subspace) Name() string { return s.name }

// RegisteredID returns the id assigned at registration, or UnregisteredSubspace.
func (s *Subspace) RegisteredID() SubspaceID { return s.id }

// ResetRegisteredID is called by the space registry when the subspace is
// registered.
func (s *Subspace) ResetRegisteredID(id SubspaceID) { s.id = id }

// SplitUniform splits the subspace into numSegments contiguous subspaces of
// near-equal dimension: the first (dimension % numSegments) segments get one
// extra basis vector. Returns nil if numSegments exceeds the dimension.
func (s *Subspace) SplitUniform(numSegments uint64) []*Subspace {
	if numSegments == 0 {
		exceptions.Panicf("subspace %q: split into zero segments", s.name)
	}
	extent := s.Dimension()
	if numSegments > extent {
		return nil
	}
	segments := make([]*Subspace, 0, numSegments)
	segmentLength := extent / numSegments
	excess := extent - numSegments*segmentLength
	lower := s.lower
	for i := uint64(0); i < numSegments; i++ {
		upper := lower + segmentLength - 1
		if i < excess {
			upper++
		}
		segments = append(segments, NewSubspace(s.space, lower, upper, fmt.Sprintf("_%s_%d", s.name, i)))
		lower = upper + 1
	}
	return segments
}

// String implements fmt.Stringer.
func (s *Subspace) String() string {
	name := s.name
	if name == "" {
		name = "NONE"
	}
	return fmt.Sprintf("Subspace{Space=%s, Lbound=%d, Ubound=%d, id=%d, Name=%s}",
		s.space.Name(), s.lower, s.upper, s.id, name)
}
