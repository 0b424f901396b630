// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainNetwork builds the linear network T1-T2-T3-T4 with open legs of
// extent 2 on the ends and bonds of extent 4 in between:
//
//	out -2- T1 -4- T2 -4- T3 -4- T4 -2- out
func chainNetwork(t *testing.T) *TensorNetwork {
	t.Helper()
	net := NewTensorNetwork("chain", NewTensor("D", 2, 2))
	require.NoError(t, net.AppendTensor(1, NewTensor("T1", 2, 4),
		[]TensorLeg{{OtherID: 0, Dim: 2}, {OtherID: 2, Dim: 4}}))
	require.NoError(t, net.AppendTensor(2, NewTensor("T2", 4, 4),
		[]TensorLeg{{OtherID: 1, Dim: 4}, {OtherID: 3, Dim: 4}}))
	require.NoError(t, net.AppendTensor(3, NewTensor("T3", 4, 4),
		[]TensorLeg{{OtherID: 2, Dim: 4}, {OtherID: 4, Dim: 4}}))
	require.NoError(t, net.AppendTensor(4, NewTensor("T4", 4, 2),
		[]TensorLeg{{OtherID: 3, Dim: 4}, {OtherID: 0, Dim: 2}}))
	return net
}

func TestTensorNetworkBasics(t *testing.T) {
	net := chainNetwork(t)
	assert.Equal(t, 4, net.NumTensors())
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, net.TensorIDs())
	assert.Nil(t, net.GetTensorConn(9))

	// The output factor mirrors the open legs.
	output := net.GetTensorConn(0)
	assert.Equal(t, []TensorLeg{{OtherID: 1, Dim: 2}, {OtherID: 4, Dim: 2}}, output.Legs())

	assert.Error(t, net.AppendTensor(0, NewTensor("E", 2), []TensorLeg{{OtherID: 0, Dim: 2}}))
	assert.Error(t, net.AppendTensor(2, NewTensor("E", 2), []TensorLeg{{OtherID: 0, Dim: 2}}))
	assert.Error(t, net.AppendTensor(5, NewTensor("E", 2, 2), []TensorLeg{{OtherID: 0, Dim: 2}}))
	assert.Error(t, net.AppendTensor(5, nil, nil))
}

func TestContractionCost(t *testing.T) {
	net := chainNetwork(t)
	// Adjacent pair: vol(8) * vol(16) / bond(4).
	assert.Equal(t, 32.0, net.GetTensorContractionCost(1, 2))
	assert.Equal(t, net.GetTensorContractionCost(2, 1), net.GetTensorContractionCost(1, 2))
	// Middle pair is the most expensive adjacent contraction.
	assert.Equal(t, 64.0, net.GetTensorContractionCost(2, 3))
	// Disconnected pair: plain volume product.
	assert.Equal(t, 8.0*16.0, net.GetTensorContractionCost(1, 3))

	assert.Panics(t, func() { net.GetTensorContractionCost(1, 9) })
}

func TestMergeTensors(t *testing.T) {
	net := chainNetwork(t)
	require.NoError(t, net.MergeTensors(1, 2, 5))
	assert.Equal(t, 3, net.NumTensors())
	assert.Equal(t, []uint64{0, 3, 4, 5}, net.TensorIDs())

	// The merged factor keeps the open leg of T1 and the bond of T2 to T3.
	merged := net.GetTensorConn(5)
	require.NotNil(t, merged)
	assert.Equal(t, []TensorLeg{{OtherID: 0, Dim: 2}, {OtherID: 3, Dim: 4}}, merged.Legs())
	assert.Equal(t, 8.0, merged.Volume())

	// T3 now points at the merged factor.
	for _, leg := range net.GetTensorConn(3).Legs() {
		assert.NotEqual(t, uint64(1), leg.OtherID)
		assert.NotEqual(t, uint64(2), leg.OtherID)
	}

	// Merge errors: output tensor, missing factors, identical pair, id reuse.
	assert.Error(t, net.MergeTensors(0, 3, 6))
	assert.Error(t, net.MergeTensors(1, 3, 6))
	assert.Error(t, net.MergeTensors(3, 3, 6))
	assert.Error(t, net.MergeTensors(3, 4, 5))
}

func TestMergeTensorsFinal(t *testing.T) {
	net := chainNetwork(t)
	output := net.GetTensorConn(0).Tensor()
	require.NoError(t, net.MergeTensors(1, 2, 5))
	require.NoError(t, net.MergeTensors(3, 4, 6))
	require.NoError(t, net.MergeTensors(5, 6, 0))
	assert.Equal(t, 0, net.NumTensors())
	assert.Equal(t, []uint64{0}, net.TensorIDs())
	// The final contraction writes the network output itself.
	assert.Same(t, output, net.GetTensorConn(0).Tensor())
}

func TestCloneIndependence(t *testing.T) {
	net := chainNetwork(t)
	clone := net.Clone()
	require.NoError(t, clone.MergeTensors(1, 2, 5))
	assert.Equal(t, 4, net.NumTensors())
	assert.Equal(t, 3, clone.NumTensors())
	assert.NotNil(t, net.GetTensorConn(1))
	assert.Equal(t, 32.0, net.GetTensorContractionCost(1, 2))
}
