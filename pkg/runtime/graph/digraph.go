// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"container/heap"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

func init() {
	Register("digraph", func() TensorGraph { return NewDirectedGraph() })
}

// edge is a directed dependency: the owning vertex depends on to.
type edge struct {
	to     VertexID
	weight float64
}

// DirectedGraph is the default TensorGraph implementation: a dense
// adjacency-list DAG guarded by a single coarse mutex.
//
// Acyclicity holds by construction: hazard edges always point from a newly
// inserted vertex to vertices that existed before it.
type DirectedGraph struct {
	mu        sync.Mutex
	nodes     []*TensorOpNode
	adj       [][]edge // out-adjacency per vertex, in edge insertion order
	numEdges  int
	execState *ExecState
}

var _ TensorGraph = (*DirectedGraph)(nil)

// NewDirectedGraph creates an empty graph.
func NewDirectedGraph() *DirectedGraph {
	return &DirectedGraph{execState: NewExecState()}
}

// Name implements TensorGraph.
func (g *DirectedGraph) Name() string { return "digraph" }

// Description implements TensorGraph.
func (g *DirectedGraph) Description() string {
	return "directed acyclic graph of tensor operations"
}

// lockedCheckVertex panics if the vertex id is out of range.
// It must be called with g.mu acquired.
func (g *DirectedGraph) lockedCheckVertex(vertex VertexID) {
	if int(vertex) >= len(g.nodes) {
		exceptions.Panicf("tensor graph: vertex id %d out of range (%d nodes)", vertex, len(g.nodes))
	}
}

// lockedAddDependency inserts a directed edge dependent -> dependee unless it
// already exists. It must be called with g.mu acquired.
func (g *DirectedGraph) lockedAddDependency(dependent, dependee VertexID, weight float64) {
	g.lockedCheckVertex(dependent)
	g.lockedCheckVertex(dependee)
	if weight < 0 {
		exceptions.Panicf("tensor graph: negative edge weight %g", weight)
	}
	for _, e := range g.adj[dependent] {
		if e.to == dependee {
			return
		}
	}
	g.adj[dependent] = append(g.adj[dependent], edge{to: dependee, weight: weight})
	g.numEdges++
}

// AddOperation implements TensorGraph.
//
// The new vertex becomes a dependent of the current epoch of its output
// tensor (write-after-write and write-after-read hazards) and, for every
// input tensor still in a write epoch, of that tensor's producer
// (read-after-write). An operation whose output tensor also appears among
// its inputs (an aliased in-place update) never produces a self-edge.
func (g *DirectedGraph) AddOperation(op *numerics.TensorOperation) VertexID {
	if op == nil {
		exceptions.Panicf("tensor graph: nil tensor operation")
	}
	if !op.IsSet() {
		exceptions.Panicf("tensor graph: operation %s submitted with %d of %d operands set",
			op.OpCode(), op.NumOperandsSet(), op.NumOperands())
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	vertex := VertexID(len(g.nodes))
	g.nodes = append(g.nodes, newTensorOpNode(op, vertex))
	g.adj = append(g.adj, nil)

	outputTensor := op.OperandHash(0)
	if nodes, _, ok := g.execState.GetTensorEpochNodes(outputTensor); ok {
		for _, node := range nodes { // Write-after-Read & Write-after-Write
			if node == vertex {
				continue
			}
			g.lockedAddDependency(vertex, node, 1)
		}
	}
	g.execState.RegisterTensorWrite(outputTensor, vertex)

	for i := 1; i < op.NumOperands(); i++ {
		tensor := op.OperandHash(i)
		if nodes, epoch, ok := g.execState.GetTensorEpochNodes(tensor); ok && epoch == WriteEpoch {
			for _, node := range nodes { // Read-after-Write
				if node == vertex {
					continue
				}
				g.lockedAddDependency(vertex, node, 1)
			}
		}
		g.execState.RegisterTensorRead(tensor, vertex)
	}
	return vertex
}

// AddDependency implements TensorGraph.
func (g *DirectedGraph) AddDependency(dependent, dependee VertexID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedAddDependency(dependent, dependee, 1)
}

// AddWeightedDependency implements TensorGraph.
func (g *DirectedGraph) AddWeightedDependency(dependent, dependee VertexID, weight float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedAddDependency(dependent, dependee, weight)
}

// DependencyExists implements TensorGraph.
func (g *DirectedGraph) DependencyExists(dependent, dependee VertexID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedCheckVertex(dependent)
	g.lockedCheckVertex(dependee)
	for _, e := range g.adj[dependent] {
		if e.to == dependee {
			return true
		}
	}
	return false
}

// NodeProperties implements TensorGraph.
func (g *DirectedGraph) NodeProperties(vertex VertexID) *TensorOpNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedCheckVertex(vertex)
	return g.nodes[vertex]
}

// NodeDegree implements TensorGraph.
func (g *DirectedGraph) NodeDegree(vertex VertexID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedCheckVertex(vertex)
	return len(g.adj[vertex])
}

// NumNodes implements TensorGraph.
func (g *DirectedGraph) NumNodes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// NumDependencies implements TensorGraph.
func (g *DirectedGraph) NumDependencies() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.numEdges
}

// NeighborList implements TensorGraph.
func (g *DirectedGraph) NeighborList(vertex VertexID) []VertexID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedCheckVertex(vertex)
	return g.lockedNeighborList(vertex)
}

// lockedNeighborList must be called with g.mu acquired.
func (g *DirectedGraph) lockedNeighborList(vertex VertexID) []VertexID {
	neighbors := make([]VertexID, len(g.adj[vertex]))
	for i, e := range g.adj[vertex] {
		neighbors[i] = e.to
	}
	return neighbors
}

// vertexDist is an entry of the Dijkstra frontier.
type vertexDist struct {
	vertex VertexID
	dist   float64
}

// distQueue is a min-heap over (dist, vertex), vertices breaking ties.
type distQueue []vertexDist

func (q distQueue) Len() int { return len(q) }
func (q distQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].vertex < q[j].vertex
}
func (q distQueue) Swap(i, j int)     { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x any)       { *q = append(*q, x.(vertexDist)) }
func (q *distQueue) Pop() (least any) { old := *q; n := len(old); least = old[n-1]; *q = old[:n-1]; return }

// ComputeShortestPath implements TensorGraph.
//
// It runs under the graph mutex and may take long on large graphs; callers
// needing responsiveness should snapshot the graph above this layer.
func (g *DirectedGraph) ComputeShortestPath(start VertexID) (distances []float64, predecessors []VertexID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedCheckVertex(start)

	numNodes := len(g.nodes)
	distances = make([]float64, numNodes)
	predecessors = make([]VertexID, numNodes)
	for i := range distances {
		distances[i] = math.Inf(1)
		predecessors[i] = VertexID(i)
	}
	distances[start] = 0

	done := make([]bool, numNodes)
	frontier := &distQueue{{vertex: start, dist: 0}}
	for frontier.Len() > 0 {
		next := heap.Pop(frontier).(vertexDist)
		u := next.vertex
		if done[u] {
			continue
		}
		done[u] = true
		for _, e := range g.adj[u] {
			alt := distances[u] + e.weight
			switch {
			case alt < distances[e.to]:
				distances[e.to] = alt
				predecessors[e.to] = u
				heap.Push(frontier, vertexDist{vertex: e.to, dist: alt})
			case alt == distances[e.to] && u < predecessors[e.to]:
				// Same total weight through a smaller predecessor id.
				predecessors[e.to] = u
			}
		}
	}
	return distances, predecessors
}

// RetireOperation implements TensorGraph.
func (g *DirectedGraph) RetireOperation(vertex VertexID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockedCheckVertex(vertex)
	op := g.nodes[vertex].Operation()
	for i := 1; i < op.NumOperands(); i++ {
		g.execState.RetireTensorRead(op.OperandHash(i), vertex)
	}
	g.execState.RetireTensorWrite(op.OperandHash(0), vertex)
}

// Clear implements TensorGraph.
func (g *DirectedGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = nil
	g.adj = nil
	g.numEdges = 0
	g.execState.Clear()
}

// String implements TensorGraph.
func (g *DirectedGraph) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	parts := []string{fmt.Sprintf("TensorGraph (%s): %d nodes, %d dependencies",
		g.Name(), len(g.nodes), g.numEdges)}
	for vertex := range g.nodes {
		deps := g.lockedNeighborList(VertexID(vertex))
		parts = append(parts, fmt.Sprintf("Node %d: depends on %v", vertex, deps))
	}
	return strings.Join(parts, "\n")
}
