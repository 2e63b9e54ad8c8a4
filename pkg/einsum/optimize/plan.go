// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"k8s.io/klog/v2"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/pattern"
)

// Strategy selects the contraction-path search algorithm.
type Strategy int

const (
	// StrategyAuto picks per problem size: DP for n ≤ 4, branch-and-bound
	// for n ≤ 20, greedy beyond.
	StrategyAuto Strategy = iota
	// StrategyGreedy always uses the O(n³) greedy heuristic.
	StrategyGreedy
	// StrategyOptimal uses exact dynamic programming (n ≤ 12).
	StrategyOptimal
	// StrategyBranchBound uses greedy-seeded branch-and-bound (n ≤ 20).
	StrategyBranchBound
)

//go:generate go tool enumer -type=Strategy -trimprefix=Strategy -transform=snake -output=strategy_enumer.go

// StepKind tags an execution step variant.
type StepKind int

const (
	// StepFastPath dispatches the whole expression to one primitive.
	StepFastPath StepKind = iota
	// StepContraction contracts two tracked tensors pairwise.
	StepContraction
	// StepPermutation reindexes one tracked tensor, zero-copy.
	StepPermutation
	// StepReduction sums axes of one tracked tensor.
	StepReduction
)

//go:generate go tool enumer -type=StepKind -trimprefix=Step -transform=snake -output=stepkind_enumer.go

// ExecutionStep is one unit of executor work.
type ExecutionStep struct {
	Kind StepKind

	// FastPath parameters (StepFastPath).
	FastPath *pattern.FastPath

	// Contraction parameters (StepContraction): positions in the tracked
	// tensor list, summed indices, surviving indices, FLOP estimate.
	Inputs     [2]int
	Contracted []rune
	Result     []rune
	FLOPs      uint64

	// Permutation / reduction parameters: target tracked tensor and either
	// the axis permutation or the reduced axes.
	Input int
	Perm  []int
	Axes  []int
	Op    backends.ReduceOp
}

// ExecutionPlan is the complete recipe for one einsum call.
type ExecutionPlan struct {
	steps        []ExecutionStep
	totalFLOPs   uint64
	outputShape  []int
	usesFastPath bool
	// inputIndices are the per-input index sequences from the notation, so
	// the executor can track indices without re-parsing.
	inputIndices [][]rune
	// outputIndices is the output index sequence, for aligning the final
	// write with the caller's output layout.
	outputIndices []rune
}

// NewFastPathPlan wraps a recognized primitive as a single-step plan.
func NewFastPathPlan(fp *pattern.FastPath, outputShape []int, flops uint64) *ExecutionPlan {
	return &ExecutionPlan{
		steps:        []ExecutionStep{{Kind: StepFastPath, FastPath: fp}},
		totalFLOPs:   flops,
		outputShape:  outputShape,
		usesFastPath: true,
	}
}

// withIndices records the notation's input and output index sequences.
func (p *ExecutionPlan) withIndices(n *notation.Notation) *ExecutionPlan {
	p.inputIndices = make([][]rune, n.NumInputs())
	for i, in := range n.Inputs() {
		p.inputIndices[i] = in.Named()
	}
	p.outputIndices = n.Output().Named()
	return p
}

// NewContractionPlan wraps a contraction path.
func NewContractionPlan(path *Path, outputShape []int, inputIndices [][]rune) *ExecutionPlan {
	steps := make([]ExecutionStep, 0, path.Len())
	for _, s := range path.Steps() {
		steps = append(steps, ExecutionStep{
			Kind:       StepContraction,
			Inputs:     s.Inputs,
			Contracted: s.Contracted,
			Result:     s.Result,
			FLOPs:      s.FLOPs,
		})
	}
	return &ExecutionPlan{
		steps:        steps,
		totalFLOPs:   path.TotalFLOPs(),
		outputShape:  outputShape,
		inputIndices: inputIndices,
	}
}

// Steps returns the ordered execution steps.
func (p *ExecutionPlan) Steps() []ExecutionStep { return p.steps }

// NumSteps returns the step count. A fast-path plan has exactly one step;
// a general plan over two inputs also has one (its single contraction).
func (p *ExecutionPlan) NumSteps() int { return len(p.steps) }

// TotalFLOPs returns the plan's arithmetic estimate.
func (p *ExecutionPlan) TotalFLOPs() uint64 { return p.totalFLOPs }

// OutputShape returns the computed output shape.
func (p *ExecutionPlan) OutputShape() []int { return p.outputShape }

// UsesFastPath reports whether the plan is a single recognized primitive.
func (p *ExecutionPlan) UsesFastPath() bool { return p.usesFastPath }

// InputIndices returns the notation's per-input index sequences.
func (p *ExecutionPlan) InputIndices() [][]rune { return p.inputIndices }

// OutputIndices returns the notation's output index sequence.
func (p *ExecutionPlan) OutputIndices() []rune { return p.outputIndices }

// CreatePlan builds the execution plan for a notation and operand shapes:
// recognize a fast path, or search for a contraction order with the chosen
// strategy.
func CreatePlan(n *notation.Notation, shapes [][]int, strategy Strategy, model CostModel) *ExecutionPlan {
	if fp := pattern.Recognize(n); fp != nil {
		outputShape := computeOutputShape(n, shapes)
		flops := estimateFastPathFLOPs(fp, shapes)
		klog.V(1).Infof("einsum plan: fast path %s for %q", fp.Name(), n.String())
		return NewFastPathPlan(fp, outputShape, flops).withIndices(n)
	}
	return CreateGeneralPlan(n, shapes, strategy, model)
}

// CreateGeneralPlan builds a contraction-path plan without trying the
// pattern recognizer. Used directly when a caller wants to bypass fast
// paths (equivalence testing, planner inspection).
func CreateGeneralPlan(n *notation.Notation, shapes [][]int, strategy Strategy, model CostModel) *ExecutionPlan {
	numInputs := n.NumInputs()
	var path *Path
	switch strategy {
	case StrategyGreedy:
		path = Greedy(n, shapes, model)
	case StrategyOptimal:
		path = Optimal(n, shapes, model) // falls back to greedy past MaxDPTensors
	case StrategyBranchBound:
		if numInputs <= MaxBBTensors {
			path = BranchBound(n, shapes, model)
		} else {
			path = Greedy(n, shapes, model)
		}
	default: // StrategyAuto
		switch {
		case numInputs <= 4:
			path = Optimal(n, shapes, model)
		case numInputs <= MaxBBTensors:
			path = BranchBound(n, shapes, model)
		default:
			path = Greedy(n, shapes, model)
		}
	}

	klog.V(1).Infof("einsum plan: %d contraction steps, ~%d flops for %q",
		path.Len(), path.TotalFLOPs(), n.String())

	plan := NewContractionPlan(path, computeOutputShape(n, shapes), nil)
	return plan.withIndices(n)
}

// computeOutputShape derives the output shape by binding each output index
// through the inputs. Shapes are assumed validated.
func computeOutputShape(n *notation.Notation, shapes [][]int) []int {
	dimMap := make(map[rune]int)
	for i, in := range n.Inputs() {
		for pos, r := range in.Named() {
			if pos < len(shapes[i]) {
				dimMap[r] = shapes[i][pos]
			}
		}
	}
	var out []int
	for _, r := range n.Output().Named() {
		if d, ok := dimMap[r]; ok {
			out = append(out, d)
		}
	}
	return out
}

// estimateFastPathFLOPs provides the pattern-specific FLOP estimate.
func estimateFastPathFLOPs(fp *pattern.FastPath, shapes [][]int) uint64 {
	switch fp.Kind {
	case pattern.KindMatmul:
		m := uint64(dimOr1(shapes[0], 0))
		k := uint64(dimOr1(shapes[0], 1))
		n := uint64(dimOr1(shapes[1], 1))
		return 2 * m * k * n
	case pattern.KindBatchedMatmul:
		batch := uint64(1)
		for _, d := range fp.BatchDims {
			batch *= uint64(dimOr1(shapes[0], d))
		}
		lead := len(fp.BatchDims)
		m := uint64(dimOr1(shapes[0], lead))
		k := uint64(dimOr1(shapes[0], lead+1))
		n := uint64(dimOr1(shapes[1], lead+1))
		return 2 * batch * m * k * n
	case pattern.KindDotProduct:
		return 2 * elementCount(shapes[0])
	case pattern.KindOuterProduct:
		return elementCount(shapes[0]) * elementCount(shapes[1])
	case pattern.KindTrace, pattern.KindDiagonalExtract:
		return uint64(dimOr1(shapes[0], 0))
	default: // reduce, transpose, hadamard: memory-bound, one touch per element
		return elementCount(shapes[0])
	}
}

func dimOr1(shape []int, i int) int {
	if i < len(shape) {
		return shape[i]
	}
	return 1
}
