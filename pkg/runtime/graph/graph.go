// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

// Package graph implements the directed acyclic graph of tensor operations
// that drives the tensor runtime.
//
// Vertices carry TensorOpNode records (a tensor operation plus execution
// bookkeeping); a directed edge from node1 to node2 indicates that node1
// depends on node2 and may not start until node2 has completed. Dependency
// edges are derived automatically on insertion from the data hazards
// (read-after-write, write-after-read, write-after-write) tracked by the
// per-graph ExecState.
//
// The graph is append-only during a planning phase and cleared as a whole
// between phases. Graph implementations are registered by name (see Register)
// and instantiated with New, the way the runtime activates all its pluggable
// services.
package graph

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

// VertexID uniquely identifies a vertex within one graph. Ids are dense,
// contiguous, start at 0 and are assigned in insertion order; they are never
// reused within the graph's lifetime.
type VertexID uint64

// TensorGraph is the capability set of a tensor-operation DAG.
//
// All operations are safe for concurrent use: implementations guard the whole
// graph with a single coarse mutex, and concurrent AddOperation calls are
// linearizable — the vertex-id order equals the serialization order.
type TensorGraph interface {
	// Name returns the short name of the graph implementation.
	Name() string

	// Description is a longer description of the implementation.
	Description() string

	// AddOperation appends a new vertex wrapping op and inserts the
	// dependency edges implied by the data hazards on its operands.
	// It returns the new vertex id.
	AddOperation(op *numerics.TensorOperation) VertexID

	// AddDependency marks dependent as depending on dependee by inserting a
	// directed edge with the default weight 1. Inserting an existing edge is
	// a no-op.
	AddDependency(dependent, dependee VertexID)

	// AddWeightedDependency is AddDependency with an explicit nonnegative
	// edge weight, consumed by ComputeShortestPath.
	AddWeightedDependency(dependent, dependee VertexID, weight float64)

	// DependencyExists returns whether a direct edge from dependent to
	// dependee exists. This is not transitive reachability.
	DependencyExists(dependent, dependee VertexID) bool

	// NodeProperties returns the node record of the given vertex.
	NodeProperties(vertex VertexID) *TensorOpNode

	// NodeDegree returns the number of direct dependees of the vertex
	// (its out-degree).
	NodeDegree(vertex VertexID) int

	// NumNodes returns the total number of vertices.
	NumNodes() int

	// NumDependencies returns the total number of edges.
	NumDependencies() int

	// NeighborList returns the direct dependees of the vertex, in insertion
	// order of the edges.
	NeighborList(vertex VertexID) []VertexID

	// ComputeShortestPath runs Dijkstra's algorithm from start over the
	// current graph using the edge weights. It returns one entry per vertex
	// in vertex-id order: distances[i] is the minimum total weight from
	// start to i (math.Inf(1) when unreachable) and predecessors[i] is the
	// previous vertex on a shortest path (the vertex itself for start and
	// for unreachable vertices). When multiple shortest paths exist, the one
	// with the smaller predecessor id wins.
	ComputeShortestPath(start VertexID) (distances []float64, predecessors []VertexID)

	// RetireOperation drops the ExecState records of a completed vertex:
	// the vertex is removed from the reader sets of its input tensors, and
	// from the writer slot of its output tensor if it still holds it.
	// Edges to the vertex are kept; other vertices may still reference it.
	RetireOperation(vertex VertexID)

	// Clear removes every vertex and edge and resets the hazard tracker.
	Clear()

	// String emits a stable human-readable listing: one line per vertex with
	// its direct dependees.
	String() string
}

// Constructor creates a new, empty TensorGraph.
type Constructor func() TensorGraph

var registeredConstructors = make(map[string]Constructor)

// Register a graph implementation under the given name.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	registeredConstructors[name] = constructor
}

// New creates a new instance of the named graph implementation.
func New(name string) (TensorGraph, error) {
	constructor, found := registeredConstructors[name]
	if !found {
		known := maps.Keys(registeredConstructors)
		sort.Strings(known)
		return nil, errors.Errorf("unknown tensor graph implementation %q, registered: %v", name, known)
	}
	return constructor(), nil
}

// ExecutionState tracks the scheduling progress of a graph vertex. It is
// owned by the scheduler above the graph.
type ExecutionState int32

const (
	// StateIdle: the operation has been inserted but not handed to an executor.
	StateIdle ExecutionState = iota
	// StateSubmitted: the operation has been queued for execution.
	StateSubmitted
	// StateExecuting: a node executor is running the operation.
	StateExecuting
	// StateCompleted: the operation finished successfully and may be retired.
	StateCompleted
	// StateFailed: the node executor reported a failure.
	StateFailed
)

var executionStateNames = [...]string{"IDLE", "SUBMITTED", "EXECUTING", "COMPLETED", "FAILED"}

// String implements fmt.Stringer.
func (s ExecutionState) String() string {
	if s < 0 || int(s) >= len(executionStateNames) {
		return fmt.Sprintf("ExecutionState(%d)", int32(s))
	}
	return executionStateNames[s]
}
