// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package exatn

import (
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/1tnguyen/exatn/pkg/numerics"
	"github.com/1tnguyen/exatn/pkg/numerics/contraction"
	"github.com/1tnguyen/exatn/pkg/runtime/executor"
	"github.com/1tnguyen/exatn/pkg/runtime/graph"
)

// NumServer is the numerical server: it owns a tensor operation graph, the
// graph executor driving it and the contraction-sequence optimizer used to
// lower tensor network evaluations into pairwise contractions.
//
// Graph instances belong to a server instance, never to ambient globals;
// a process normally holds one server between Initialize and Finalize.
type NumServer struct {
	id            uuid.UUID
	dag           graph.TensorGraph
	graphExecutor executor.GraphExecutor
	optimizer     contraction.Optimizer

	mu sync.Mutex
	// nextIntermediateID feeds the contraction planner with fresh factor ids.
	nextIntermediateID uint64
}

// NewNumServer creates a numerical server wired from named registered
// services: a tensor graph ("digraph"), a graph executor ("eager" or
// "lazy"), a node executor plugin and a contraction optimizer ("heuro" or
// "dummy").
func NewNumServer(graphName, graphExecutorName, nodeExecutorName, optimizerName string) (*NumServer, error) {
	dag, err := graph.New(graphName)
	if err != nil {
		return nil, errors.Wrap(err, "creating tensor graph")
	}
	graphExecutor, err := executor.NewGraphExecutor(graphExecutorName)
	if err != nil {
		return nil, errors.Wrap(err, "creating graph executor")
	}
	nodeExecutor, err := executor.NewNodeExecutor(nodeExecutorName)
	if err != nil {
		return nil, errors.Wrap(err, "creating node executor")
	}
	graphExecutor.ResetNodeExecutor(nodeExecutor)
	optimizer, err := contraction.New(optimizerName)
	if err != nil {
		return nil, errors.Wrap(err, "creating contraction sequence optimizer")
	}
	server := &NumServer{
		id:            uuid.New(),
		dag:           dag,
		graphExecutor: graphExecutor,
		optimizer:     optimizer,
	}
	klog.V(1).Infof("numerical server %s: graph=%s graph-executor=%s node-executor=%s optimizer=%s",
		server.id, dag.Name(), graphExecutor.Name(), nodeExecutor.Name(), optimizerName)
	return server, nil
}

// ID returns the unique instance id of the server.
func (s *NumServer) ID() uuid.UUID { return s.id }

// Graph returns the tensor operation graph owned by the server.
func (s *NumServer) Graph() graph.TensorGraph { return s.dag }

// SubmitOperation appends a tensor operation to the server's graph and
// returns its vertex id. The operation executes on the next Sync.
func (s *NumServer) SubmitOperation(op *numerics.TensorOperation) graph.VertexID {
	return s.dag.AddOperation(op)
}

// Sync drives every submitted operation to completion and reports the first
// executor failure, if any.
func (s *NumServer) Sync() error {
	return s.graphExecutor.Execute(s.dag)
}

// ResetContrSeqNumWalkers adjusts the beam width of the contraction-sequence
// optimizer, if the configured optimizer supports one.
func (s *NumServer) ResetContrSeqNumWalkers(numWalkers int) bool {
	h, ok := s.optimizer.(*contraction.Heuro)
	if !ok {
		return false
	}
	h.ResetNumWalkers(numWalkers)
	return true
}

// intermediateNumGenerator returns fresh factor ids above every id already
// used by the given network.
func (s *NumServer) intermediateNumGenerator(network *numerics.TensorNetwork) contraction.IntermediateNumGenerator {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range network.TensorIDs() {
		if id >= s.nextIntermediateID {
			s.nextIntermediateID = id + 1
		}
	}
	return func() uint64 {
		s.mu.Lock()
		defer s.mu.Unlock()
		id := s.nextIntermediateID
		s.nextIntermediateID++
		return id
	}
}

// EvaluateTensorNetwork lowers the evaluation of a tensor network into a
// sequence of pairwise contraction operations and submits them to the graph,
// in the order prescribed by the contraction-sequence optimizer. It returns
// the vertex ids of the submitted operations; the client drives them with
// Sync.
func (s *NumServer) EvaluateTensorNetwork(network *numerics.TensorNetwork) ([]graph.VertexID, error) {
	contrSeq, flops := s.optimizer.DetermineContractionSequence(
		network, s.intermediateNumGenerator(network))
	klog.V(1).Infof("numerical server %s: network %q lowered to %d contractions, estimated %sFLOP",
		s.id, network.Name(), len(contrSeq), humanize.SIWithDigits(flops, 2, ""))
	if len(contrSeq) == 0 {
		return nil, nil
	}

	// Replay the merges on a clone to recover the tensor handle each triple
	// contracts and produces.
	replay := network.Clone()
	vertices := make([]graph.VertexID, 0, len(contrSeq))
	for _, triple := range contrSeq {
		left := replay.GetTensorConn(triple.LeftID)
		right := replay.GetTensorConn(triple.RightID)
		if left == nil || right == nil {
			return vertices, errors.Errorf("network %q: contraction triple %+v references missing factors",
				network.Name(), triple)
		}
		if err := replay.MergeTensors(triple.LeftID, triple.RightID, triple.ResultID); err != nil {
			return vertices, errors.Wrapf(err, "network %q: replaying contraction %+v", network.Name(), triple)
		}
		result := replay.GetTensorConn(triple.ResultID)

		op := numerics.NewTensorOperation(numerics.OpContract, 3, 1)
		op.SetTensorOperand(result.Tensor())
		op.SetTensorOperand(left.Tensor())
		op.SetTensorOperand(right.Tensor())
		op.SetScalar(0, 1)
		vertices = append(vertices, s.dag.AddOperation(op))
	}
	return vertices, nil
}

// Stop cooperatively cancels the graph executor; submitted operations not
// yet dispatched stay in the graph.
func (s *NumServer) Stop() {
	s.graphExecutor.Stop()
}

// Clear drops every operation and hazard record from the server's graph.
func (s *NumServer) Clear() {
	s.dag.Clear()
}
