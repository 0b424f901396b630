// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorSpace(t *testing.T) {
	space := NewVectorSpace(1024, "orbitals")
	assert.Equal(t, uint64(1024), space.Dimension())
	assert.Equal(t, "orbitals", space.Name())
	assert.Equal(t, AnonymousSpace, space.RegisteredID())
	space.ResetRegisteredID(SpaceID(7))
	assert.Equal(t, SpaceID(7), space.RegisteredID())

	assert.Panics(t, func() { NewVectorSpace(0, "empty") })
}

func TestSubspaceSplitUniform(t *testing.T) {
	space := NewVectorSpace(100, "modes")
	sub := NewSubspace(space, 10, 29, "window") // 20 basis vectors
	assert.Equal(t, uint64(20), sub.Dimension())
	assert.Equal(t, uint64(10), sub.LowerBound())
	assert.Equal(t, uint64(29), sub.UpperBound())
	assert.Same(t, space, sub.VectorSpace())

	segments := sub.SplitUniform(3)
	require.Len(t, segments, 3)
	// 20 = 7 + 7 + 6, the excess spread over the leading segments.
	assert.Equal(t, uint64(10), segments[0].LowerBound())
	assert.Equal(t, uint64(16), segments[0].UpperBound())
	assert.Equal(t, uint64(17), segments[1].LowerBound())
	assert.Equal(t, uint64(23), segments[1].UpperBound())
	assert.Equal(t, uint64(24), segments[2].LowerBound())
	assert.Equal(t, uint64(29), segments[2].UpperBound())

	// Contiguity and full coverage.
	var total uint64
	for _, seg := range segments {
		total += seg.Dimension()
	}
	assert.Equal(t, sub.Dimension(), total)

	assert.Nil(t, sub.SplitUniform(21))
	assert.Panics(t, func() { sub.SplitUniform(0) })
	assert.Panics(t, func() { NewSubspace(space, 20, 10, "reversed") })
	assert.Panics(t, func() { NewSubspace(space, 0, 100, "overflow") })
}
