// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package contraction

import (
	"container/heap"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/1tnguyen/exatn/pkg/numerics"
)

// DefaultNumWalkers is the default beam width of the heuristic optimizer:
// the maximum number of candidate contraction paths retained between passes.
const DefaultNumWalkers = 1024

func init() {
	Register("heuro", func() Optimizer { return NewHeuro() })
}

// Heuro is a heuristic contraction-sequence optimizer: a bounded-beam
// best-first search over pairwise contraction orders, keeping at each pass
// the NumWalkers cheapest partial paths by cumulative FLOP cost.
//
// A single Heuro instance is not safe for concurrent use; independent
// instances may run concurrently on independent inputs.
type Heuro struct {
	numWalkers int
}

// NewHeuro creates a heuristic optimizer with the default beam width.
func NewHeuro() *Heuro {
	return &Heuro{numWalkers: DefaultNumWalkers}
}

// NumWalkers returns the current beam width.
func (h *Heuro) NumWalkers() int { return h.numWalkers }

// ResetNumWalkers sets the beam width. Larger widths explore more candidate
// orders and yield cheaper schedules at the price of planning time.
func (h *Heuro) ResetNumWalkers(numWalkers int) {
	if numWalkers < 1 {
		exceptions.Panicf("heuro: beam width must be positive, got %d", numWalkers)
	}
	h.numWalkers = numWalkers
}

// contrPath is one beam candidate: a partially contracted network, the
// sequence that led to it and its cumulative FLOP cost.
type contrPath struct {
	network *numerics.TensorNetwork
	seq     []ContrTriple
	cost    float64
	seqno   uint64 // insertion order; on equal cost the earlier insertion survives
}

// pathHeap is a worst-on-top heap: the most expensive path (on ties, the
// latest inserted) sits at the root, so exceeding capacity pops the worst
// and the heap retains the NumWalkers cheapest.
type pathHeap []*contrPath

func (p pathHeap) Len() int { return len(p) }
func (p pathHeap) Less(i, j int) bool {
	if p[i].cost != p[j].cost {
		return p[i].cost > p[j].cost
	}
	return p[i].seqno > p[j].seqno
}
func (p pathHeap) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p *pathHeap) Push(x any)        { *p = append(*p, x.(*contrPath)) }
func (p *pathHeap) Pop() (worst any)  { old := *p; n := len(old); worst = old[n-1]; *p = old[:n-1]; return }

// DetermineContractionSequence implements Optimizer.
//
// One pass per contraction: every beam candidate branches over all unordered
// pairs of its remaining input factors, children enter the bounded heap, and
// the surviving candidates form the next beam. The final pass writes into the
// network output (result id 0) and the single cheapest path wins.
func (h *Heuro) DetermineContractionSequence(network *numerics.TensorNetwork,
	intermediateNumGenerator IntermediateNumGenerator) ([]ContrTriple, float64) {
	numContractions := network.NumTensors() - 1
	if numContractions <= 0 {
		return nil, 0
	}

	beam := []*contrPath{{network: network.Clone()}}
	pq := &pathHeap{}
	var seqno uint64
	var contrSeq []ContrTriple
	var flops float64

	for pass := 0; pass < numContractions; pass++ {
		intermediateID := intermediateNumGenerator()
		lastPass := pass == numContractions-1
		for _, parent := range beam {
			ids := parent.network.TensorIDs()
			for ii, i := range ids {
				if i == 0 {
					continue
				}
				for _, j := range ids[ii+1:] {
					if j == 0 {
						continue
					}
					contrCost := parent.network.GetTensorContractionCost(i, j)
					resultID := intermediateID
					if lastPass {
						resultID = 0
					}
					child := parent.network.Clone()
					if err := child.MergeTensors(i, j, resultID); err != nil {
						exceptions.Panicf("heuro: merging factors (%d,%d) of network %q: %v",
							i, j, network.Name(), err)
					}
					seq := make([]ContrTriple, len(parent.seq), len(parent.seq)+1)
					copy(seq, parent.seq)
					seq = append(seq, ContrTriple{ResultID: resultID, LeftID: i, RightID: j})
					heap.Push(pq, &contrPath{
						network: child,
						seq:     seq,
						cost:    parent.cost + contrCost,
						seqno:   seqno,
					})
					seqno++
					if pq.Len() > h.numWalkers {
						heap.Pop(pq) // Drop the most expensive path over capacity.
					}
				}
			}
		}
		if lastPass {
			for pq.Len() > 1 {
				heap.Pop(pq)
			}
			best := heap.Pop(pq).(*contrPath)
			contrSeq = best.seq
			flops = best.cost
		} else {
			beam = beam[:0]
			for pq.Len() > 0 {
				beam = append(beam, heap.Pop(pq).(*contrPath))
			}
			// Popped worst first; reverse so the next pass expands the
			// cheapest candidates first, keeping insertion order aligned
			// with cost for tie-breaking.
			for a, b := 0, len(beam)-1; a < b; a, b = a+1, b-1 {
				beam[a], beam[b] = beam[b], beam[a]
			}
		}
	}

	if klog.V(1).Enabled() {
		klog.Infof("heuro: network %q planned in %d contractions, estimated cost %sFLOP",
			network.Name(), len(contrSeq), humanize.SIWithDigits(flops, 2, ""))
	}
	return contrSeq, flops
}
