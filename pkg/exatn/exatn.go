// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

// Package exatn holds the process-wide numerical server of the tensor
// runtime: client code initializes it once, submits tensor operations and
// tensor network evaluations against it, synchronizes, and finalizes it on
// shutdown.
//
// The heavy lifting lives below: pkg/runtime/graph arranges operations into
// a dependency DAG honoring data hazards, pkg/numerics/contraction plans
// cheap pairwise contraction orders, and pkg/runtime/executor drives the DAG
// on a pluggable node executor.
package exatn

import (
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Default service names used by Initialize when the caller passes "".
const (
	DefaultGraphName         = "digraph"
	DefaultGraphExecutorName = "eager"
	DefaultNodeExecutorName  = "noop"
	DefaultOptimizerName     = "heuro"
)

var (
	muServer        sync.Mutex
	numericalServer *NumServer
)

// Initialize creates the process-wide numerical server from the named
// registered services. Empty names select the defaults. Calling Initialize
// on an already initialized process is a no-op.
func Initialize(graphExecutorName, nodeExecutorName string) error {
	muServer.Lock()
	defer muServer.Unlock()
	if numericalServer != nil {
		return nil
	}
	if graphExecutorName == "" {
		graphExecutorName = DefaultGraphExecutorName
	}
	if nodeExecutorName == "" {
		nodeExecutorName = DefaultNodeExecutorName
	}
	server, err := NewNumServer(DefaultGraphName, graphExecutorName, nodeExecutorName, DefaultOptimizerName)
	if err != nil {
		return errors.Wrap(err, "initializing the numerical server")
	}
	numericalServer = server
	klog.V(1).Infof("exatn: numerical server initialized (%s)", server.ID())
	return nil
}

// IsInitialized reports whether the process-wide numerical server is up.
func IsInitialized() bool {
	muServer.Lock()
	defer muServer.Unlock()
	return numericalServer != nil
}

// Server returns the process-wide numerical server, or an error if
// Initialize has not been called.
func Server() (*NumServer, error) {
	muServer.Lock()
	defer muServer.Unlock()
	if numericalServer == nil {
		return nil, errors.Errorf("exatn: not initialized")
	}
	return numericalServer, nil
}

// Finalize synchronizes and shuts down the process-wide numerical server.
// A no-op if the server is not initialized.
func Finalize() error {
	muServer.Lock()
	server := numericalServer
	numericalServer = nil
	muServer.Unlock()
	if server == nil {
		return nil
	}
	if err := server.Sync(); err != nil {
		return errors.Wrap(err, "finalizing the numerical server")
	}
	klog.V(1).Infof("exatn: numerical server shut down (%s)", server.ID())
	return nil
}
