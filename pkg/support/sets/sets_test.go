// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := Make[int](10)
	assert.Len(t, s, 0)

	// Check inserting and recovery.
	s.Insert(3, 7)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(3))
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(5))

	s2 := MakeWith(5, 7)
	assert.Len(t, s2, 2)
	assert.True(t, s2.Has(5))
	assert.False(t, s2.Has(3))

	s.Delete(7, 11)
	assert.Len(t, s, 1)
	assert.True(t, s.Has(3))
	assert.False(t, s.Has(7))

	s3 := s.Clone()
	s3.Insert(9)
	assert.False(t, s.Has(9))
	assert.False(t, s.Equal(s3))
	s.Insert(9)
	assert.True(t, s.Equal(s3))
}

func TestSorted(t *testing.T) {
	s := MakeWith(uint64(7), 3, 11, 5)
	assert.Equal(t, []uint64{3, 5, 7, 11}, Sorted(s))
	assert.Empty(t, Sorted(Make[uint64]()))
}
