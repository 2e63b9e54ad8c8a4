// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exec walks execution plans: it dispatches fast paths, drives
// general contraction sequences over tracked tensors, manages intermediate
// lifetimes through a per-call workspace and delegates GEMM and reduction
// to the backend.
package exec

import (
	"k8s.io/klog/v2"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/kernels"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/optimize"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/pattern"
)

// Options configures one executor.
type Options struct {
	// Matmul carries the hints forwarded to the GEMM engine.
	Matmul backends.MatmulOptions
	// MaxWorkspaceBytes caps intermediate allocations; 0 is unlimited.
	MaxWorkspaceBytes uint64
}

// Executor runs execution plans against a backend. It is single-threaded
// and owns its workspace for the duration of one Run call.
type Executor struct {
	backend backends.Backend
	opts    Options
	ws      *Workspace
}

// New creates an executor over the given backend.
func New(backend backends.Backend, opts Options) *Executor {
	return &Executor{
		backend: backend,
		opts:    opts,
		ws:      NewWorkspace(backend, opts.MaxWorkspaceBytes),
	}
}

// tracked pairs a tensor view with the ordered indices it currently
// realizes. The executor mutates the tracked list as it consumes steps.
type tracked struct {
	view    *tensors.View
	indices []rune
}

// Run executes a plan, writing the result into output. Inputs are never
// mutated; the output's metadata may be rewritten (buffer rebinding).
// Empty operands return immediately without launching kernels.
func (e *Executor) Run(plan *optimize.ExecutionPlan, inputs []*tensors.View, output *tensors.View) error {
	for _, in := range inputs {
		if in.IsEmpty() {
			return nil
		}
	}
	if output.IsEmpty() {
		return nil
	}

	if plan.UsesFastPath() {
		step := plan.Steps()[0]
		if step.Kind != optimize.StepFastPath || step.FastPath == nil {
			return backends.Unsupportedf("fast-path plan without fast-path step")
		}
		return e.dispatchFastPath(step.FastPath, plan, inputs, output)
	}
	return e.runContractions(plan, inputs, output)
}

// dispatchFastPath routes a recognized primitive to its kernel or engine.
func (e *Executor) dispatchFastPath(fp *pattern.FastPath, plan *optimize.ExecutionPlan,
	inputs []*tensors.View, output *tensors.View) error {
	klog.V(2).Infof("einsum exec: fast path %s", fp.Name())

	switch fp.Kind {
	case pattern.KindMatmul, pattern.KindBatchedMatmul:
		if len(inputs) < 2 {
			return backends.Unsupportedf("%s requires 2 inputs", fp.Name())
		}
		return e.runMatmulFastPath(fp, inputs[0], inputs[1], output)

	case pattern.KindReduce:
		if len(inputs) < 1 {
			return backends.Unsupportedf("reduce requires 1 input")
		}
		return e.reduceInto(inputs[0], output, fp.Axes, 0)

	case pattern.KindTranspose:
		if len(inputs) < 1 {
			return backends.Unsupportedf("transpose requires 1 input")
		}
		// Zero-copy: the output adopts the input's buffer under permuted
		// metadata (see output rebinding).
		permuted := inputs[0].Permute(fp.Permutation)
		output.Buffer = permuted.Buffer
		output.Shape = permuted.Shape
		output.Strides = permuted.Strides
		return nil

	case pattern.KindHadamard:
		lhs := &tracked{view: inputs[0], indices: plan.InputIndices()[0]}
		rhs := &tracked{view: inputs[1], indices: plan.InputIndices()[1]}
		_, err := e.broadcastPair(lhs, rhs, output, plan.OutputIndices(), 0)
		return err

	case pattern.KindOuterProduct:
		return e.runOuterProduct(plan, inputs[0], inputs[1], output)

	case pattern.KindDotProduct:
		lhs, err := e.denseOperand(inputs[0], 0)
		if err != nil {
			return err
		}
		rhs, err := e.denseOperand(inputs[1], 0)
		if err != nil {
			return err
		}
		return kernels.DotProduct(lhs, rhs, output)

	case pattern.KindTrace:
		return kernels.Trace(e.backend, inputs[0], output)

	case pattern.KindDiagonalExtract:
		return kernels.DiagonalExtract(inputs[0], output)
	}
	return backends.Unsupportedf("fast path %s", fp.Name())
}

// runMatmulFastPath stride-swaps transposed operands and delegates to the
// GEMM engine, writing through a swapped output view when the notation
// lists N before M.
func (e *Executor) runMatmulFastPath(fp *pattern.FastPath, lhs, rhs, output *tensors.View) error {
	lhsView := lhs.Clone()
	rhsView := rhs.Clone()
	if fp.TransposeA {
		swapLastTwo(lhsView)
	}
	if fp.TransposeB {
		swapLastTwo(rhsView)
	}

	outView := output.Clone()
	if fp.MDim > fp.NDim {
		swapLastTwo(outView)
	}
	return e.backend.Matmul(lhsView, rhsView, outView, e.opts.Matmul)
}

// runOuterProduct materializes strided operands and aligns the output with
// the kernel's [lhs…, rhs…] layout.
func (e *Executor) runOuterProduct(plan *optimize.ExecutionPlan, lhs, rhs, output *tensors.View) error {
	lhsDense, err := e.denseOperand(lhs, 0)
	if err != nil {
		return err
	}
	rhsDense, err := e.denseOperand(rhs, 0)
	if err != nil {
		return err
	}

	resultIdx := append(append([]rune(nil), plan.InputIndices()[0]...), plan.InputIndices()[1]...)
	resultShape := append(append([]int(nil), lhsDense.Shape...), rhsDense.Shape...)

	return e.intoDest(output, plan.OutputIndices(), resultIdx, resultShape, 0,
		func(dest *tensors.View) error {
			return kernels.OuterProduct(lhsDense, rhsDense, dest)
		})
}

// denseOperand returns the view itself when contiguous, or a contiguous
// workspace copy otherwise.
func (e *Executor) denseOperand(v *tensors.View, step int) (*tensors.View, error) {
	if v.IsContiguous() {
		return v, nil
	}
	dense, err := e.ws.Alloc(v.DType, v.Shape, step)
	if err != nil {
		return nil, err
	}
	if err := kernels.CopyReshape(v, dense); err != nil {
		return nil, err
	}
	return dense, nil
}

// runContractions walks a general plan over the tracked tensor list.
func (e *Executor) runContractions(plan *optimize.ExecutionPlan, inputs []*tensors.View, output *tensors.View) error {
	steps := plan.Steps()
	planIndices := plan.InputIndices()

	list := make([]*tracked, len(inputs))
	for i, in := range inputs {
		var indices []rune
		if i < len(planIndices) {
			indices = append([]rune(nil), planIndices[i]...)
		}
		list[i] = &tracked{view: in.Clone(), indices: indices}
	}

	// A unary identity ("ij->ij") plans no steps: copy through.
	if len(steps) == 0 {
		if len(list) == 1 {
			src := list[0]
			if len(src.indices) != len(plan.OutputIndices()) {
				return backends.Unsupportedf(
					"unary expression %s -> %s has no fast path",
					string(src.indices), string(plan.OutputIndices()))
			}
			return e.intoDest(output, plan.OutputIndices(), src.indices, src.view.Shape, 0,
				func(dest *tensors.View) error {
					return kernels.CopyReshape(src.view, dest)
				})
		}
		return backends.Unsupportedf("plan has no executable steps")
	}

	for stepIdx, step := range steps {
		isLast := stepIdx == len(steps)-1

		switch step.Kind {
		case optimize.StepContraction:
			i, j := step.Inputs[0], step.Inputs[1]
			if i >= len(list) || j >= len(list) || i == j {
				return backends.Launchf(
					"contraction step %d references invalid tensors (%d, %d) of %d",
					stepIdx, i, j, len(list))
			}
			lhs, rhs := list[i], list[j]

			if isLast {
				if _, err := e.contractPair(lhs, rhs, step.Contracted,
					output, plan.OutputIndices(), stepIdx); err != nil {
					return err
				}
			} else {
				result, err := e.contractPair(lhs, rhs, step.Contracted, nil, nil, stepIdx)
				if err != nil {
					return err
				}
				// Remove the higher position first so the lower stays valid,
				// then append the result at the end.
				lo, hi := i, j
				if lo > hi {
					lo, hi = hi, lo
				}
				list = append(list[:hi], list[hi+1:]...)
				list = append(list[:lo], list[lo+1:]...)
				list = append(list, result)

				e.ws.Release(lhs.view, stepIdx)
				e.ws.Release(rhs.view, stepIdx)
			}

		case optimize.StepPermutation:
			if step.Input >= len(list) {
				return backends.Launchf("permutation step references invalid tensor %d", step.Input)
			}
			t := list[step.Input]
			t.view = t.view.Permute(step.Perm)
			permutedIdx := make([]rune, len(step.Perm))
			for k, p := range step.Perm {
				permutedIdx[k] = t.indices[p]
			}
			t.indices = permutedIdx

		case optimize.StepReduction:
			if step.Input >= len(list) {
				return backends.Launchf("reduction step references invalid tensor %d", step.Input)
			}
			if step.Op != backends.ReduceSum {
				return backends.Unsupportedf("only sum reduction is supported")
			}
			t := list[step.Input]
			if isLast {
				if err := e.reduceInto(t.view, output, step.Axes, stepIdx); err != nil {
					return err
				}
				continue
			}
			reduced, reducedIdx, err := e.reduceIntermediate(t, step.Axes, stepIdx)
			if err != nil {
				return err
			}
			e.ws.Release(t.view, stepIdx)
			list[step.Input] = &tracked{view: reduced, indices: reducedIdx}

		case optimize.StepFastPath:
			if step.FastPath == nil {
				return backends.Unsupportedf("fast-path step without parameters")
			}
			return e.dispatchFastPath(step.FastPath, plan, inputs, output)
		}
	}

	return nil
}

// intoDest runs compute against the caller's destination when its layout
// already matches the result's index order, or against a temporary that is
// then copied into place.
func (e *Executor) intoDest(dest *tensors.View, destIdx, resultIdx []rune,
	resultShape []int, step int, compute func(*tensors.View) error) error {
	aligned, err := alignView(dest, destIdx, resultIdx)
	if err != nil {
		return err
	}
	if aligned.IsContiguous() {
		return compute(aligned)
	}

	tmp, err := e.ws.Alloc(dest.DType, resultShape, step)
	if err != nil {
		return err
	}
	if err := compute(tmp); err != nil {
		return err
	}
	if err := writeAligned(tmp, resultIdx, dest, destIdx); err != nil {
		return err
	}
	e.ws.Release(tmp, step)
	return nil
}

// alignView returns a zero-copy view of dest whose axes follow wantIdx.
func alignView(dest *tensors.View, destIdx, wantIdx []rune) (*tensors.View, error) {
	if len(wantIdx) == 0 {
		// Scalar result: accept any unit-element output layout.
		if tensors.NumElements(dest.Shape) != 1 {
			return nil, backends.Shapef("scalar result but output has shape %v", dest.Shape)
		}
		return dest.Reshape(nil), nil
	}
	if len(destIdx) != len(wantIdx) {
		return nil, backends.Shapef("index count mismatch aligning output: %d vs %d",
			len(destIdx), len(wantIdx))
	}
	perm := make([]int, len(wantIdx))
	for k, r := range wantIdx {
		pos := -1
		for i, d := range destIdx {
			if d == r {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil, backends.Shapef("output is missing index %q", r)
		}
		perm[k] = pos
	}
	return dest.Permute(perm), nil
}

// writeAligned copies a computed tensor into the destination, reordering
// axes from the source's index order to the destination's.
func writeAligned(src *tensors.View, srcIdx []rune, dest *tensors.View, destIdx []rune) error {
	aligned, err := alignView(src, srcIdx, destIdx)
	if err != nil {
		return err
	}
	return kernels.CopyReshape(aligned, dest)
}

// swapLastTwo stride-swaps a view's last two axes in place.
func swapLastTwo(v *tensors.View) {
	r := len(v.Shape)
	if r >= 2 {
		v.Shape[r-2], v.Shape[r-1] = v.Shape[r-1], v.Shape[r-2]
		v.Strides[r-2], v.Strides[r-1] = v.Strides[r-1], v.Strides[r-2]
	}
}
