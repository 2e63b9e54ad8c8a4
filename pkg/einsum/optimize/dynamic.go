// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"math/bits"

	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
)

// MaxDPTensors bounds the exact dynamic program: 2^n subsets get memoized.
const MaxDPTensors = 12

// Optimal finds the globally optimal contraction order by dynamic
// programming over all operand subsets, O(3^n). Above MaxDPTensors it
// degrades to Greedy.
//
// The returned path uses the same consume-two-append-result step
// representation as Greedy, so execution is strategy-agnostic.
func Optimal(n *notation.Notation, shapes [][]int, model CostModel) *Path {
	numInputs := n.NumInputs()
	if numInputs <= 1 {
		return &Path{}
	}
	if numInputs > MaxDPTensors {
		return Greedy(n, shapes, model)
	}

	state, outputSet := initialState(n, shapes)

	type result struct {
		shape   []int
		indices []rune
	}
	type entry struct {
		cost        Cost
		left, right uint32 // best bipartition; 0 for leaves
	}

	memo := make(map[uint32]entry)
	cache := make(map[uint32]result)

	for i := 0; i < numInputs; i++ {
		mask := uint32(1) << i
		memo[mask] = entry{}
		cache[mask] = result{shape: state.Shapes[i], indices: state.Indices[i]}
	}

	full := uint32(1)<<numInputs - 1

	// Every proper submask is numerically smaller, so increasing mask order
	// visits children before parents.
	for mask := uint32(1); mask <= full; mask++ {
		if bits.OnesCount32(mask) < 2 {
			continue
		}

		best := entry{cost: maxCost}
		var bestResult result

		for sub := (mask - 1) & mask; sub > 0; sub = (sub - 1) & mask {
			other := mask ^ sub
			if sub > other {
				continue // each unordered bipartition once
			}

			left := memo[sub]
			right := memo[other]
			leftRes := cache[sub]
			rightRes := cache[other]

			stepCost, merged := mergeResults(leftRes.shape, leftRes.indices,
				rightRes.shape, rightRes.indices, outputSet, model)

			total := left.cost.Add(right.cost).Add(stepCost)
			if total.Less(best.cost) {
				best = entry{cost: total, left: sub, right: other}
				bestResult = result{shape: merged.shape, indices: merged.indices}
			}
		}

		memo[mask] = best
		cache[mask] = bestResult
	}

	// Linearize the merge tree, children before parents.
	var merges [][2]uint32
	var walk func(mask uint32)
	walk = func(mask uint32) {
		e := memo[mask]
		if e.left == 0 {
			return
		}
		walk(e.left)
		walk(e.right)
		merges = append(merges, [2]uint32{e.left, e.right})
	}
	walk(full)

	// Replay the merges against a live tensor list to express each one in
	// greedy's positional step representation.
	list := make([]uint32, numInputs)
	for i := range list {
		list[i] = uint32(1) << i
	}
	path := &Path{}
	for _, merge := range merges {
		i := maskPos(list, merge[0])
		j := maskPos(list, merge[1])
		if i > j {
			i, j = j, i
		}
		step, _ := pairStep(state, i, j, outputSet, model)
		state = state.Contract(i, j, step.Result)

		combined := merge[0] | merge[1]
		next := make([]uint32, 0, len(list)-1)
		for k, m := range list {
			if k != i && k != j {
				next = append(next, m)
			}
		}
		list = append(next, combined)
		path.Push(step)
	}

	return path
}

// mergeResults prices contracting two memoized sub-results and derives the
// merged shape and index list. With index multiplicity capped at two, an
// index common to both sides cannot occur in any third tensor, so the
// output set alone decides what is summed.
func mergeResults(shapeA []int, indicesA []rune, shapeB []int, indicesB []rune,
	outputSet map[rune]bool, model CostModel) (Cost, struct {
	shape   []int
	indices []rune
}) {
	inA := make(map[rune]bool, len(indicesA))
	for _, r := range indicesA {
		inA[r] = true
	}
	contractedSet := make(map[rune]bool)
	var contracted []rune
	for _, r := range indicesB {
		if inA[r] && !outputSet[r] && !contractedSet[r] {
			contracted = append(contracted, r)
			contractedSet[r] = true
		}
	}

	dimMap := make(map[rune]int, len(indicesA)+len(indicesB))
	for i, r := range indicesA {
		dimMap[r] = shapeA[i]
	}
	for i, r := range indicesB {
		dimMap[r] = shapeB[i]
	}

	var indices []rune
	seen := make(map[rune]bool)
	for _, r := range indicesA {
		if !contractedSet[r] && !seen[r] {
			indices = append(indices, r)
			seen[r] = true
		}
	}
	for _, r := range indicesB {
		if !contractedSet[r] && !seen[r] {
			indices = append(indices, r)
			seen[r] = true
		}
	}

	shape := make([]int, len(indices))
	for i, r := range indices {
		shape[i] = dimMap[r]
	}

	cost := model.PairwiseCost(shapeA, shapeB, indicesA, indicesB, contracted)
	return cost, struct {
		shape   []int
		indices []rune
	}{shape: shape, indices: indices}
}

func maskPos(list []uint32, mask uint32) int {
	for i, m := range list {
		if m == mask {
			return i
		}
	}
	return -1
}
