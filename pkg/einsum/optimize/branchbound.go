// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"sort"

	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
)

// MaxBBTensors bounds branch-and-bound before falling back to greedy.
const MaxBBTensors = 20

// Search limits for the default branch-and-bound configuration.
const (
	defaultMaxNodes = 100_000
	defaultMaxDepth = 8
)

// BranchBound searches contraction orderings depth-first, seeded with the
// greedy solution as the upper bound. Children are visited in ascending
// immediate-cost order; branches whose cost plus the optimistic remaining
// lower bound cannot beat the incumbent are pruned. Past the depth cap the
// remainder is completed greedily and compared.
//
// Because the search starts from the greedy solution, it never returns a
// costlier path than Greedy.
func BranchBound(n *notation.Notation, shapes [][]int, model CostModel) *Path {
	return BranchBoundWithLimits(n, shapes, model, defaultMaxNodes, defaultMaxDepth)
}

// BranchBoundWithLimits is BranchBound with explicit node and depth caps.
func BranchBoundWithLimits(n *notation.Notation, shapes [][]int, model CostModel,
	maxNodes uint64, maxDepth int) *Path {
	numInputs := n.NumInputs()
	if numInputs <= 1 {
		return &Path{}
	}

	state, outputSet := initialState(n, shapes)

	seed := Greedy(n, shapes, model)
	search := &bbSearch{
		model:     model,
		outputSet: outputSet,
		bestPath:  seed.Steps(),
		bestCost:  replayCost(seed, state, model),
		maxNodes:  maxNodes,
		maxDepth:  maxDepth,
	}

	search.run(state, nil, Cost{}, 0)

	path := &Path{}
	for _, step := range search.bestPath {
		path.Push(step)
	}
	return path
}

type bbSearch struct {
	model     CostModel
	outputSet map[rune]bool

	bestPath []Step
	bestCost Cost

	nodes    uint64
	maxNodes uint64
	maxDepth int
}

type bbCandidate struct {
	i, j int
	cost Cost
	step Step
}

func (s *bbSearch) run(state *State, current []Step, currentCost Cost, depth int) {
	s.nodes++
	if s.nodes >= s.maxNodes {
		return
	}

	if state.Len() <= 1 {
		if currentCost.Less(s.bestCost) {
			s.bestCost = currentCost
			s.bestPath = append([]Step(nil), current...)
		}
		return
	}

	if depth >= s.maxDepth {
		remaining, remainingCost := greedyRemaining(state, s.outputSet, s.model)
		total := currentCost.Add(remainingCost)
		if total.Less(s.bestCost) {
			s.bestCost = total
			s.bestPath = append(append([]Step(nil), current...), remaining...)
		}
		return
	}

	lowerBound := s.model.OptimisticRemaining(state.Shapes)
	if !currentCost.Add(lowerBound).Less(s.bestCost) {
		return
	}

	var candidates []bbCandidate
	for i := 0; i < state.Len(); i++ {
		for j := i + 1; j < state.Len(); j++ {
			step, cost := pairStep(state, i, j, s.outputSet, s.model)
			candidates = append(candidates, bbCandidate{i: i, j: j, cost: cost, step: step})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].cost.Less(candidates[b].cost)
	})

	for _, c := range candidates {
		newCost := currentCost.Add(c.cost)
		if !newCost.Less(s.bestCost) {
			break // sorted: everything after is at least as bad
		}

		next := state.Contract(c.i, c.j, c.step.Result)
		s.run(next, append(current, c.step), newCost, depth+1)

		if s.nodes >= s.maxNodes {
			return
		}
	}
}

// replayCost prices a finished path against the initial state.
func replayCost(path *Path, initial *State, model CostModel) Cost {
	state := initial
	total := Cost{}
	for _, step := range path.Steps() {
		cost := model.PairwiseCost(
			state.Shapes[step.Inputs[0]], state.Shapes[step.Inputs[1]],
			state.Indices[step.Inputs[0]], state.Indices[step.Inputs[1]],
			step.Contracted)
		total = total.Add(cost)
		state = state.Contract(step.Inputs[0], step.Inputs[1], step.Result)
	}
	return total
}
