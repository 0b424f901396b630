// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

func TestExecStateEpochs(t *testing.T) {
	s := NewExecState()
	x := numerics.NewTensor("X", 2).Hash()

	_, _, ok := s.GetTensorEpochNodes(x)
	assert.False(t, ok)

	// Write epoch: single producer, tag WriteEpoch.
	s.RegisterTensorWrite(x, 0)
	nodes, epoch, ok := s.GetTensorEpochNodes(x)
	require.True(t, ok)
	assert.Equal(t, WriteEpoch, epoch)
	assert.Equal(t, []VertexID{0}, nodes)

	// A read closes the write epoch and opens a read epoch.
	assert.Equal(t, 1, s.RegisterTensorRead(x, 1))
	assert.Equal(t, 2, s.RegisterTensorRead(x, 2))
	// Re-registering the same reader is a no-op.
	assert.Equal(t, 2, s.RegisterTensorRead(x, 2))
	nodes, epoch, ok = s.GetTensorEpochNodes(x)
	require.True(t, ok)
	assert.Equal(t, 2, epoch)
	assert.Equal(t, []VertexID{1, 2}, nodes)

	// A new write supersedes the read epoch.
	s.RegisterTensorWrite(x, 3)
	nodes, epoch, ok = s.GetTensorEpochNodes(x)
	require.True(t, ok)
	assert.Equal(t, WriteEpoch, epoch)
	assert.Equal(t, []VertexID{3}, nodes)

	s.Clear()
	assert.Equal(t, 0, s.NumLiveTensors())
	_, _, ok = s.GetTensorEpochNodes(x)
	assert.False(t, ok)
}

func TestExecStateRetirement(t *testing.T) {
	s := NewExecState()
	x := numerics.NewTensor("X", 2).Hash()

	s.RegisterTensorWrite(x, 0)
	s.RegisterTensorRead(x, 1)
	s.RegisterTensorRead(x, 2)

	// Retiring the superseded writer is a no-op.
	s.RetireTensorWrite(x, 0)
	nodes, epoch, ok := s.GetTensorEpochNodes(x)
	require.True(t, ok)
	assert.Equal(t, 2, epoch)
	assert.Equal(t, []VertexID{1, 2}, nodes)

	// The read epoch empties reader by reader, then the record drops.
	s.RetireTensorRead(x, 1)
	nodes, epoch, ok = s.GetTensorEpochNodes(x)
	require.True(t, ok)
	assert.Equal(t, 1, epoch)
	assert.Equal(t, []VertexID{2}, nodes)
	s.RetireTensorRead(x, 2)
	_, _, ok = s.GetTensorEpochNodes(x)
	assert.False(t, ok)
	assert.Equal(t, 0, s.NumLiveTensors())

	// Retiring a live write epoch drops the record only for its holder.
	s.RegisterTensorWrite(x, 5)
	s.RetireTensorWrite(x, 4)
	_, _, ok = s.GetTensorEpochNodes(x)
	assert.True(t, ok)
	s.RetireTensorWrite(x, 5)
	_, _, ok = s.GetTensorEpochNodes(x)
	assert.False(t, ok)
}
