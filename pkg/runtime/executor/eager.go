// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package executor

import (
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/1tnguyen/exatn/internal/workerspool"
	"github.com/1tnguyen/exatn/pkg/runtime/graph"
	"github.com/1tnguyen/exatn/pkg/support/xsync"
)

func init() {
	RegisterGraphExecutor("eager", func() GraphExecutor { return NewEager() })
}

// Eager is the graph executor that dispatches every vertex as soon as it
// becomes ready, running independent operations in parallel on a bounded
// worker pool.
type Eager struct {
	nodeExecutor NodeExecutor
	pool         *workerspool.Pool
	stop         *xsync.Latch
	inFlight     *xsync.DynamicWaitGroup

	// progress is signaled (non-blocking) by workers on every completion so
	// the dispatch loop re-scans for newly ready vertices.
	progress chan struct{}

	muErr    sync.Mutex
	firstErr error
}

// NewEager creates an eager graph executor with default parallelism.
func NewEager() *Eager {
	return &Eager{
		pool:     workerspool.New(),
		stop:     xsync.NewLatch(),
		inFlight: xsync.NewDynamicWaitGroup(),
		progress: make(chan struct{}, 1),
	}
}

// Name implements GraphExecutor.
func (e *Eager) Name() string { return "eager" }

// Description implements GraphExecutor.
func (e *Eager) Description() string {
	return "dispatches tensor operations as soon as their dependees complete"
}

// SetMaxParallelism bounds the number of concurrently executing operations.
// Only change it while no Execute is in progress.
func (e *Eager) SetMaxParallelism(n int) {
	e.pool.SetMaxParallelism(n)
}

// ResetNodeExecutor implements GraphExecutor.
func (e *Eager) ResetNodeExecutor(nodeExecutor NodeExecutor) {
	e.nodeExecutor = nodeExecutor
}

// Stop implements GraphExecutor.
func (e *Eager) Stop() {
	e.stop.Trigger()
}

func (e *Eager) recordError(err error) {
	e.muErr.Lock()
	defer e.muErr.Unlock()
	if e.firstErr == nil {
		e.firstErr = err
	}
}

// Execute implements GraphExecutor.
//
// It repeatedly scans the graph for ready vertices, dispatches them on the
// worker pool and waits for progress, until every vertex has completed, a
// failure leaves only blocked vertices behind, or Stop is called.
func (e *Eager) Execute(dag graph.TensorGraph) error {
	if e.nodeExecutor == nil {
		exceptions.Panicf("eager graph executor: no node executor set")
	}
	for {
		if e.stop.Test() {
			break
		}
		numNodes := dag.NumNodes()
		// Sampled before the scan: a worker finishing mid-scan re-signals
		// progress, so the next iteration re-examines its dependents.
		inFlightBefore := e.inFlight.Count()
		numDone := 0
		numDispatched := 0
		for v := graph.VertexID(0); int(v) < numNodes; v++ {
			node := dag.NodeProperties(v)
			switch {
			case node.IsCompleted() || node.State() == graph.StateFailed:
				numDone++
			case readyToDispatch(dag, v):
				node.SetState(graph.StateSubmitted)
				e.inFlight.Add(1)
				numDispatched++
				vertex := v
				e.pool.WaitToStart(func() { e.executeVertex(dag, vertex) })
			}
		}
		if numDone == numNodes {
			break
		}
		if numDispatched == 0 {
			if inFlightBefore == 0 && e.inFlight.Count() == 0 {
				// Nothing was running across the whole scan and nothing is
				// ready: the remaining vertices are blocked behind a failure.
				break
			}
			select {
			case <-e.progress:
			case <-e.stop.WaitChan():
			}
		}
	}
	e.inFlight.Wait()

	e.muErr.Lock()
	defer e.muErr.Unlock()
	return e.firstErr
}

// executeVertex runs one dispatched vertex on the node executor and retires
// it on success. Runs on a worker goroutine.
func (e *Eager) executeVertex(dag graph.TensorGraph, vertex graph.VertexID) {
	defer e.inFlight.Done()
	node := dag.NodeProperties(vertex)
	node.SetState(graph.StateExecuting)
	err := e.nodeExecutor.Execute(node.Operation())
	if err != nil {
		node.SetState(graph.StateFailed)
		klog.Errorf("eager graph executor: node %d failed: %+v", vertex, err)
		e.recordError(errors.Wrapf(err, "executing DAG node %d", vertex))
	} else {
		completeVertex(dag, vertex)
	}
	select {
	case e.progress <- struct{}{}:
	default:
	}
}
