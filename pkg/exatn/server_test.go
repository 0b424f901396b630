// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package exatn

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1tnguyen/exatn/pkg/numerics"
	"github.com/1tnguyen/exatn/pkg/runtime/graph"
)

// chainNetwork builds the linear network T1-T2-T3-T4 with open legs of
// extent 2 on the ends and bonds of extent 4 in between.
func chainNetwork(t *testing.T) *numerics.TensorNetwork {
	t.Helper()
	net := numerics.NewTensorNetwork("chain", numerics.NewTensor("D", 2, 2))
	require.NoError(t, net.AppendTensor(1, numerics.NewTensor("T1", 2, 4),
		[]numerics.TensorLeg{{OtherID: 0, Dim: 2}, {OtherID: 2, Dim: 4}}))
	require.NoError(t, net.AppendTensor(2, numerics.NewTensor("T2", 4, 4),
		[]numerics.TensorLeg{{OtherID: 1, Dim: 4}, {OtherID: 3, Dim: 4}}))
	require.NoError(t, net.AppendTensor(3, numerics.NewTensor("T3", 4, 4),
		[]numerics.TensorLeg{{OtherID: 2, Dim: 4}, {OtherID: 4, Dim: 4}}))
	require.NoError(t, net.AppendTensor(4, numerics.NewTensor("T4", 4, 2),
		[]numerics.TensorLeg{{OtherID: 3, Dim: 4}, {OtherID: 0, Dim: 2}}))
	return net
}

func newTestServer(t *testing.T) *NumServer {
	t.Helper()
	server, err := NewNumServer(DefaultGraphName, DefaultGraphExecutorName,
		DefaultNodeExecutorName, DefaultOptimizerName)
	require.NoError(t, err)
	return server
}

func TestNumServerSubmitAndSync(t *testing.T) {
	server := newTestServer(t)
	x := numerics.NewTensor("X", 8)
	y := numerics.NewTensor("Y", 8)

	opW := numerics.NewTensorOperation(numerics.OpTransform, 1, 0)
	opW.SetTensorOperand(x)
	opR := numerics.NewTensorOperation(numerics.OpAdd, 2, 1)
	opR.SetTensorOperand(y)
	opR.SetTensorOperand(x)
	opR.SetScalar(0, 1)

	a := server.SubmitOperation(opW)
	b := server.SubmitOperation(opR)
	assert.True(t, server.Graph().DependencyExists(b, a))

	require.NoError(t, server.Sync())
	assert.True(t, server.Graph().NodeProperties(a).IsCompleted())
	assert.True(t, server.Graph().NodeProperties(b).IsCompleted())
}

func TestNumServerEvaluateTensorNetwork(t *testing.T) {
	server := newTestServer(t)
	require.True(t, server.ResetContrSeqNumWalkers(8))

	net := chainNetwork(t)
	vertices, err := server.EvaluateTensorNetwork(net)
	require.NoError(t, err)
	require.Len(t, vertices, 3, "4 factors lower to 3 pairwise contractions")

	dag := server.Graph()
	assert.Equal(t, 3, dag.NumNodes())
	for _, v := range vertices {
		op := dag.NodeProperties(v).Operation()
		assert.Equal(t, numerics.OpContract, op.OpCode())
		assert.Equal(t, 3, op.NumOperands())
	}
	// Contractions feeding a later one are ordered before it: the last
	// contraction reads both intermediates.
	assert.True(t, dag.DependencyExists(vertices[2], vertices[0]) ||
		dag.DependencyExists(vertices[2], vertices[1]))

	require.NoError(t, server.Sync())
	for _, v := range vertices {
		assert.True(t, dag.NodeProperties(v).IsCompleted())
	}

	// The input network is untouched by planning and lowering.
	assert.Equal(t, 4, net.NumTensors())
}

func TestNumServerEvaluateDegenerateNetwork(t *testing.T) {
	server := newTestServer(t)
	single := numerics.NewTensorNetwork("single", numerics.NewTensor("D", 2))
	require.NoError(t, single.AppendTensor(1, numerics.NewTensor("T", 2),
		[]numerics.TensorLeg{{OtherID: 0, Dim: 2}}))
	vertices, err := server.EvaluateTensorNetwork(single)
	require.NoError(t, err)
	assert.Empty(t, vertices)
	assert.Equal(t, 0, server.Graph().NumNodes())
}

func TestNumServerClear(t *testing.T) {
	server := newTestServer(t)
	op := numerics.NewTensorOperation(numerics.OpTransform, 1, 0)
	op.SetTensorOperand(numerics.NewTensor("X", 2))
	server.SubmitOperation(op)
	require.Equal(t, 1, server.Graph().NumNodes())
	server.Clear()
	assert.Equal(t, 0, server.Graph().NumNodes())
	assert.Equal(t, 0, server.Graph().NumDependencies())
}

func TestInitializeAndFinalize(t *testing.T) {
	require.False(t, IsInitialized())
	_, err := Server()
	assert.Error(t, err)

	require.NoError(t, Initialize("", ""))
	assert.True(t, IsInitialized())
	require.NoError(t, Initialize("lazy", "noop"), "re-initialization is a no-op")

	server := must.M1(Server())
	op := numerics.NewTensorOperation(numerics.OpTransform, 1, 0)
	op.SetTensorOperand(numerics.NewTensor("X", 2))
	v := server.SubmitOperation(op)
	assert.Equal(t, graph.VertexID(0), v)

	require.NoError(t, Finalize())
	assert.False(t, IsInitialized())
	require.NoError(t, Finalize(), "double finalize is a no-op")
}

func TestInitializeUnknownService(t *testing.T) {
	require.False(t, IsInitialized())
	assert.Error(t, Initialize("bogus-executor", ""))
	assert.False(t, IsInitialized())
}
