// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

// Package executor implements the dispatch layer that consumes the tensor
// operation graph: NodeExecutor runs a single tensor operation on a
// node-local compute backend, GraphExecutor drives a whole TensorGraph by
// dispatching vertices whose dependees have completed and retiring them on
// completion.
//
// The package defines the interfaces and the two scheduling drivers ("eager"
// and "lazy"); concrete numeric node executors are plugins registered by the
// embedding program, the way backends are registered with a service registry
// in the surrounding runtime.
package executor

import (
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"k8s.io/klog/v2"

	"github.com/1tnguyen/exatn/pkg/numerics"
	"github.com/1tnguyen/exatn/pkg/runtime/graph"
)

// NodeExecutor executes a single tensor operation to completion on a
// node-local compute backend. Synchronous from the graph's point of view.
type NodeExecutor interface {
	// Name returns the short name of the node executor.
	Name() string

	// Description is a longer description of the node executor.
	Description() string

	// Execute runs the tensor operation and reports success or failure.
	Execute(op *numerics.TensorOperation) error
}

// GraphExecutor drives a tensor graph: it polls for vertices whose dependees
// have all completed, dispatches them to a node executor, and retires each
// vertex on successful completion (dropping its hazard-tracker records).
type GraphExecutor interface {
	// Name returns the short name of the graph executor.
	Name() string

	// Description is a longer description of the graph executor.
	Description() string

	// ResetNodeExecutor sets the node executor operations are dispatched to.
	// Must be called before Execute.
	ResetNodeExecutor(nodeExecutor NodeExecutor)

	// Execute drives the current content of the graph to completion and
	// returns the first node failure, if any. Failed vertices stay in the
	// graph unretired, together with the dependents they block.
	Execute(dag graph.TensorGraph) error

	// Stop cooperatively cancels an in-progress Execute: already dispatched
	// operations finish, nothing new is dispatched.
	Stop()
}

// NodeConstructor creates a new NodeExecutor instance.
type NodeConstructor func() NodeExecutor

// GraphConstructor creates a new GraphExecutor instance.
type GraphConstructor func() GraphExecutor

var (
	registeredNodeExecutors  = make(map[string]NodeConstructor)
	registeredGraphExecutors = make(map[string]GraphConstructor)
)

// RegisterNodeExecutor registers a node executor constructor under the given
// name. To be safe, call it during initialization of a package.
func RegisterNodeExecutor(name string, constructor NodeConstructor) {
	registeredNodeExecutors[name] = constructor
}

// NewNodeExecutor creates a new instance of the named node executor.
func NewNodeExecutor(name string) (NodeExecutor, error) {
	constructor, found := registeredNodeExecutors[name]
	if !found {
		known := maps.Keys(registeredNodeExecutors)
		sort.Strings(known)
		return nil, errors.Errorf("unknown node executor %q, registered: %v", name, known)
	}
	return constructor(), nil
}

// RegisterGraphExecutor registers a graph executor constructor under the
// given name. To be safe, call it during initialization of a package.
func RegisterGraphExecutor(name string, constructor GraphConstructor) {
	registeredGraphExecutors[name] = constructor
}

// NewGraphExecutor creates a new instance of the named graph executor.
func NewGraphExecutor(name string) (GraphExecutor, error) {
	constructor, found := registeredGraphExecutors[name]
	if !found {
		known := maps.Keys(registeredGraphExecutors)
		sort.Strings(known)
		return nil, errors.Errorf("unknown graph executor %q, registered: %v", name, known)
	}
	return constructor(), nil
}

func init() {
	RegisterNodeExecutor("noop", func() NodeExecutor { return noopNodeExecutor{} })
}

// noopNodeExecutor accepts every operation without performing arithmetic.
// It stands in where no numeric backend is plugged in, e.g. for scheduling
// tests and dry runs.
type noopNodeExecutor struct{}

func (noopNodeExecutor) Name() string        { return "noop" }
func (noopNodeExecutor) Description() string { return "accepts operations without computing" }

func (noopNodeExecutor) Execute(op *numerics.TensorOperation) error {
	klog.V(2).Infof("noop node executor: %s", op)
	return nil
}

// readyToDispatch reports whether the vertex is idle with every direct
// dependee completed. Shared by the eager and lazy drivers; the graph's own
// mutex serializes the underlying queries.
func readyToDispatch(dag graph.TensorGraph, vertex graph.VertexID) bool {
	if dag.NodeProperties(vertex).State() != graph.StateIdle {
		return false
	}
	for _, dependee := range dag.NeighborList(vertex) {
		if !dag.NodeProperties(dependee).IsCompleted() {
			return false
		}
	}
	return true
}

// completeVertex marks the vertex completed and drops its hazard-tracker
// records, per the retirement protocol.
func completeVertex(dag graph.TensorGraph, vertex graph.VertexID) {
	dag.NodeProperties(vertex).SetState(graph.StateCompleted)
	dag.RetireOperation(vertex)
}
