// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package contraction

import (
	"github.com/gomlx/exceptions"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

func init() {
	Register("dummy", func() Optimizer { return &Dummy{} })
}

// Dummy is a trivial contraction-sequence optimizer: it contracts input
// factors pairwise in ascending id order, without any cost search. Useful as
// a baseline and for tiny networks where the order doesn't matter.
type Dummy struct{}

// DetermineContractionSequence implements Optimizer.
func (*Dummy) DetermineContractionSequence(network *numerics.TensorNetwork,
	intermediateNumGenerator IntermediateNumGenerator) ([]ContrTriple, float64) {
	numContractions := network.NumTensors() - 1
	if numContractions <= 0 {
		return nil, 0
	}

	work := network.Clone()
	contrSeq := make([]ContrTriple, 0, numContractions)
	flops := 0.0
	for pass := 0; pass < numContractions; pass++ {
		ids := work.TensorIDs() // Sorted; ids[0] is the output tensor 0.
		left, right := ids[1], ids[2]
		resultID := intermediateNumGenerator()
		if pass == numContractions-1 {
			resultID = 0
		}
		flops += work.GetTensorContractionCost(left, right)
		if err := work.MergeTensors(left, right, resultID); err != nil {
			exceptions.Panicf("dummy: merging factors (%d,%d) of network %q: %v",
				left, right, network.Name(), err)
		}
		contrSeq = append(contrSeq, ContrTriple{ResultID: resultID, LeftID: left, RightID: right})
	}
	return contrSeq, flops
}
