// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
)

// Greedy finds a contraction path by repeatedly taking the cheapest pair.
// O(n³) pair evaluations over the whole search.
func Greedy(n *notation.Notation, shapes [][]int, model CostModel) *Path {
	state, outputSet := initialState(n, shapes)
	path := &Path{}

	for state.Len() > 1 {
		bestCost := maxCost
		var bestStep Step
		bestI, bestJ := 0, 1

		for i := 0; i < state.Len(); i++ {
			for j := i + 1; j < state.Len(); j++ {
				step, cost := pairStep(state, i, j, outputSet, model)
				if cost.Less(bestCost) {
					bestCost = cost
					bestStep = step
					bestI, bestJ = i, j
				}
			}
		}

		state = state.Contract(bestI, bestJ, bestStep.Result)
		path.Push(bestStep)
	}

	return path
}

// GreedyFLOPsOnly is Greedy under a pure-FLOP cost model (alpha = 0).
func GreedyFLOPsOnly(n *notation.Notation, shapes [][]int) *Path {
	return Greedy(n, shapes, FLOPsOnlyCostModel())
}

// initialState seeds the search state from the notation's expanded input
// index lists and the operand shapes.
func initialState(n *notation.Notation, shapes [][]int) (*State, map[rune]bool) {
	indices := make([][]rune, n.NumInputs())
	for i, in := range n.Inputs() {
		indices[i] = in.Named()
	}
	state := NewState(shapes, indices)

	outputSet := make(map[rune]bool)
	for _, r := range n.Output().Named() {
		outputSet[r] = true
	}
	return state, outputSet
}

// greedyRemaining completes a partial state with greedy steps, returning
// the steps and their cost. Used by branch-and-bound at its depth cap.
func greedyRemaining(state *State, outputSet map[rune]bool, model CostModel) ([]Step, Cost) {
	var steps []Step
	total := Cost{}

	for state.Len() > 1 {
		bestCost := maxCost
		var bestStep Step
		bestI, bestJ := 0, 1

		for i := 0; i < state.Len(); i++ {
			for j := i + 1; j < state.Len(); j++ {
				step, cost := pairStep(state, i, j, outputSet, model)
				if cost.Less(bestCost) {
					bestCost = cost
					bestStep = step
					bestI, bestJ = i, j
				}
			}
		}

		state = state.Contract(bestI, bestJ, bestStep.Result)
		steps = append(steps, bestStep)
		total = total.Add(bestCost)
	}

	return steps, total
}
