// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package optimize searches for a low-cost pairwise contraction order and
// assembles the execution plan the executor walks.
package optimize

// Cost is the scalarized price of a contraction: FLOPs plus an
// alpha-weighted memory-traffic term.
type Cost struct {
	// FLOPs counts fused multiply-adds as 2 operations.
	FLOPs uint64
	// Memory counts elements read and written.
	Memory uint64
	// Total is FLOPs + alpha·Memory.
	Total uint64
}

// NewCost combines flops and memory under the given alpha.
func NewCost(flops, memory, alpha uint64) Cost {
	return Cost{FLOPs: flops, Memory: memory, Total: flops + memory*alpha}
}

// Add accumulates two costs component-wise.
func (c Cost) Add(o Cost) Cost {
	return Cost{
		FLOPs:  c.FLOPs + o.FLOPs,
		Memory: c.Memory + o.Memory,
		Total:  c.Total + o.Total,
	}
}

// Less orders costs by their combined total.
func (c Cost) Less(o Cost) bool { return c.Total < o.Total }

// maxCost is an unreachable upper bound used to seed minimum searches.
var maxCost = Cost{FLOPs: ^uint64(0), Memory: ^uint64(0), Total: ^uint64(0)}

// CostModel prices pairwise contractions. Alpha weighs memory traffic
// against arithmetic; accelerators pay more per byte moved than per FLOP.
type CostModel struct {
	Alpha uint64
}

// GPUCostModel suits discrete accelerators.
func GPUCostModel() CostModel { return CostModel{Alpha: 64} }

// CPUCostModel suits host execution.
func CPUCostModel() CostModel { return CostModel{Alpha: 8} }

// FLOPsOnlyCostModel ignores memory traffic entirely (alpha = 0).
func FLOPsOnlyCostModel() CostModel { return CostModel{Alpha: 0} }

// PairwiseCost prices contracting two tensors over the given contracted
// indices: flops = 2·|output|·|K|, memory = |A| + |B| + |output|.
func (m CostModel) PairwiseCost(shapeA, shapeB []int, indicesA, indicesB, contracted []rune) Cost {
	dimMap := make(map[rune]int, len(indicesA)+len(indicesB))
	for i, r := range indicesA {
		dimMap[r] = shapeA[i]
	}
	for i, r := range indicesB {
		dimMap[r] = shapeB[i]
	}

	contractedSet := make(map[rune]bool, len(contracted))
	for _, r := range contracted {
		contractedSet[r] = true
	}

	// Output size: every surviving index counted once.
	outputSize := uint64(1)
	counted := make(map[rune]bool)
	for _, r := range indicesA {
		if !contractedSet[r] && !counted[r] {
			counted[r] = true
			outputSize *= uint64(dimMap[r])
		}
	}
	for _, r := range indicesB {
		if !contractedSet[r] && !counted[r] {
			counted[r] = true
			outputSize *= uint64(dimMap[r])
		}
	}

	contractedSize := uint64(1)
	for _, r := range contracted {
		contractedSize *= uint64(dimMap[r])
	}

	flops := 2 * outputSize * contractedSize
	memory := elementCount(shapeA) + elementCount(shapeB) + outputSize
	return NewCost(flops, memory, m.Alpha)
}

// OptimisticRemaining lower-bounds the cost of finishing a state: any
// further contraction must touch every remaining element at least once.
func (m CostModel) OptimisticRemaining(shapes [][]int) Cost {
	if len(shapes) <= 1 {
		return Cost{}
	}
	total := uint64(0)
	for _, shape := range shapes {
		total += elementCount(shape)
	}
	return NewCost(total, total, m.Alpha)
}

func elementCount(shape []int) uint64 {
	n := uint64(1)
	for _, d := range shape {
		n *= uint64(d)
	}
	return n
}
