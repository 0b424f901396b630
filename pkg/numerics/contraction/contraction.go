// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

// Package contraction implements tensor contraction sequence optimizers:
// given a tensor network, they prescribe the order in which its factors
// should be pairwise contracted, since the total FLOP count of a network
// evaluation is a strong function of that order.
//
// Optimizers are registered by name (see Register) and instantiated with New,
// mirroring how the runtime activates its other pluggable services. Two
// optimizers are built in: "heuro" (bounded-beam best-first search) and
// "dummy" (ascending factor order, a baseline).
package contraction

import (
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

// ContrTriple is one pairwise contraction step: factors LeftID and RightID
// are contracted into ResultID. The final step of a sequence writes into the
// network output tensor, ResultID 0.
type ContrTriple struct {
	ResultID uint64
	LeftID   uint64
	RightID  uint64
}

// IntermediateNumGenerator returns a fresh unsigned id per invocation, used
// to number the intermediate tensors an optimizer introduces. The caller owns
// uniqueness; optimizers merely consume.
type IntermediateNumGenerator func() uint64

// Optimizer determines a pairwise contraction sequence for a tensor network.
type Optimizer interface {
	// DetermineContractionSequence returns an ordered list of contraction
	// triples producing the network output, together with the estimated total
	// FLOP count of executing them in order.
	//
	// For a network of n input factors exactly max(0, n-1) triples are
	// returned; a network with fewer than 2 factors yields an empty sequence
	// and cost 0. The input network is not mutated.
	DetermineContractionSequence(network *numerics.TensorNetwork,
		intermediateNumGenerator IntermediateNumGenerator) ([]ContrTriple, float64)
}

// Constructor creates a new Optimizer instance.
type Constructor func() Optimizer

var registeredConstructors = make(map[string]Constructor)

// Register an optimizer constructor under the given name.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	registeredConstructors[name] = constructor
}

// New creates a new instance of the named optimizer.
func New(name string) (Optimizer, error) {
	constructor, found := registeredConstructors[name]
	if !found {
		known := maps.Keys(registeredConstructors)
		sort.Strings(known)
		return nil, errors.Errorf("unknown contraction sequence optimizer %q, registered: %v", name, known)
	}
	return constructor(), nil
}
