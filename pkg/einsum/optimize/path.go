// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

// Step is one pairwise contraction: consume the tensors at positions
// Inputs in the current tensor list, append the result at the end.
type Step struct {
	// Inputs are the two positions consumed, Inputs[0] < Inputs[1].
	Inputs [2]int
	// Contracted lists the indices summed in this step.
	Contracted []rune
	// Result lists the surviving indices in order: first tensor's order,
	// then new indices from the second.
	Result []rune
	// FLOPs is the step's arithmetic estimate.
	FLOPs uint64
}

// Path is an ordered contraction sequence reducing N operands to one.
type Path struct {
	steps      []Step
	totalFLOPs uint64
}

// Push appends a step and accumulates its FLOPs.
func (p *Path) Push(s Step) {
	p.totalFLOPs += s.FLOPs
	p.steps = append(p.steps, s)
}

// Steps returns the ordered steps.
func (p *Path) Steps() []Step { return p.steps }

// Len returns the number of steps.
func (p *Path) Len() int { return len(p.steps) }

// TotalFLOPs returns the accumulated arithmetic estimate.
func (p *Path) TotalFLOPs() uint64 { return p.totalFLOPs }

// State is the tensor list during path search: shapes and index lists,
// mutated step by step the same way the executor mutates its tracked list.
type State struct {
	Shapes  [][]int
	Indices [][]rune
}

// NewState copies the initial operand shapes and index lists.
func NewState(shapes [][]int, indices [][]rune) *State {
	s := &State{
		Shapes:  make([][]int, len(shapes)),
		Indices: make([][]rune, len(indices)),
	}
	for i := range shapes {
		s.Shapes[i] = append([]int(nil), shapes[i]...)
		s.Indices[i] = append([]rune(nil), indices[i]...)
	}
	return s
}

// Len returns the number of tensors remaining.
func (s *State) Len() int { return len(s.Shapes) }

// Contract removes positions i < j and appends the result tensor with the
// given surviving indices at the end of the list.
func (s *State) Contract(i, j int, result []rune) *State {
	dimMap := make(map[rune]int)
	for k, r := range s.Indices[i] {
		dimMap[r] = s.Shapes[i][k]
	}
	for k, r := range s.Indices[j] {
		dimMap[r] = s.Shapes[j][k]
	}

	resultShape := make([]int, len(result))
	for k, r := range result {
		if d, ok := dimMap[r]; ok {
			resultShape[k] = d
		} else {
			resultShape[k] = 1
		}
	}

	next := &State{
		Shapes:  make([][]int, 0, s.Len()-1),
		Indices: make([][]rune, 0, s.Len()-1),
	}
	for k := 0; k < s.Len(); k++ {
		if k == i || k == j {
			continue
		}
		next.Shapes = append(next.Shapes, s.Shapes[k])
		next.Indices = append(next.Indices, s.Indices[k])
	}
	next.Shapes = append(next.Shapes, resultShape)
	next.Indices = append(next.Indices, append([]rune(nil), result...))
	return next
}

// pairStep derives the contraction step for positions (i, j) of a state:
// indices common to both operands are summed unless the final output or any
// other remaining tensor still needs them.
func pairStep(s *State, i, j int, outputSet map[rune]bool, model CostModel) (Step, Cost) {
	inI := make(map[rune]bool, len(s.Indices[i]))
	for _, r := range s.Indices[i] {
		inI[r] = true
	}
	common := make(map[rune]bool)
	for _, r := range s.Indices[j] {
		if inI[r] {
			common[r] = true
		}
	}

	keptElsewhere := make(map[rune]bool, len(outputSet))
	for r := range outputSet {
		keptElsewhere[r] = true
	}
	for k := 0; k < s.Len(); k++ {
		if k == i || k == j {
			continue
		}
		for _, r := range s.Indices[k] {
			keptElsewhere[r] = true
		}
	}

	var contracted []rune
	seenContracted := make(map[rune]bool)
	for _, r := range s.Indices[i] {
		if common[r] && !keptElsewhere[r] && !seenContracted[r] {
			contracted = append(contracted, r)
			seenContracted[r] = true
		}
	}

	var result []rune
	seen := make(map[rune]bool)
	for _, r := range s.Indices[i] {
		if !seenContracted[r] && !seen[r] {
			result = append(result, r)
			seen[r] = true
		}
	}
	for _, r := range s.Indices[j] {
		if !seenContracted[r] && !seen[r] {
			result = append(result, r)
			seen[r] = true
		}
	}

	cost := model.PairwiseCost(s.Shapes[i], s.Shapes[j], s.Indices[i], s.Indices[j], contracted)
	step := Step{
		Inputs:     [2]int{i, j},
		Contracted: contracted,
		Result:     result,
		FLOPs:      cost.FLOPs,
	}
	return step, cost
}
