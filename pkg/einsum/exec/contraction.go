// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"k8s.io/klog/v2"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/kernels"
)

// contractPair contracts two tracked tensors over the given index set as a
// batched GEMM: both operands are brought into [batch…, M, K] / [batch…,
// K, N] layout (zero-copy stride views where possible, materialized
// copy-reshape otherwise) and handed to the GEMM engine.
//
// With dest == nil the result goes to a fresh workspace tensor, returned
// with its index order. Otherwise the result lands in dest, whose axes are
// labeled by destIdx.
func (e *Executor) contractPair(lhs, rhs *tracked, contracted []rune,
	dest *tensors.View, destIdx []rune, step int) (*tracked, error) {
	if len(contracted) == 0 {
		return e.broadcastPair(lhs, rhs, dest, destIdx, step)
	}

	contractedSet := make(map[rune]bool, len(contracted))
	for _, r := range contracted {
		contractedSet[r] = true
	}
	rhsSet := make(map[rune]bool, len(rhs.indices))
	for _, r := range rhs.indices {
		rhsSet[r] = true
	}
	lhsSet := make(map[rune]bool, len(lhs.indices))
	for _, r := range lhs.indices {
		lhsSet[r] = true
	}

	// Classify the lhs axes: batch (shared, kept), M (lhs-only kept),
	// K (contracted) — all in lhs order.
	var batchRunes, mRunes, kRunes []rune
	var lhsBatchPos, lhsMPos, lhsKPos []int
	for pos, r := range lhs.indices {
		switch {
		case contractedSet[r]:
			kRunes = append(kRunes, r)
			lhsKPos = append(lhsKPos, pos)
		case rhsSet[r]:
			batchRunes = append(batchRunes, r)
			lhsBatchPos = append(lhsBatchPos, pos)
		default:
			mRunes = append(mRunes, r)
			lhsMPos = append(lhsMPos, pos)
		}
	}

	// The rhs batch and K sub-orders must agree index-for-index with the
	// lhs orders, so the merged batch and K axes line up.
	rhsBatchPos := make([]int, 0, len(batchRunes))
	for _, r := range batchRunes {
		rhsBatchPos = append(rhsBatchPos, runePosition(rhs.indices, r))
	}
	rhsKPos := make([]int, 0, len(kRunes))
	for _, r := range kRunes {
		pos := runePosition(rhs.indices, r)
		if pos < 0 {
			return nil, backends.Shapef("contracted index %q missing from rhs", r)
		}
		rhsKPos = append(rhsKPos, pos)
	}
	var nRunes []rune
	var rhsNPos []int
	for pos, r := range rhs.indices {
		if !contractedSet[r] && !lhsSet[r] {
			nRunes = append(nRunes, r)
			rhsNPos = append(rhsNPos, pos)
		}
	}

	batchDims := dimsAt(lhs.view.Shape, lhsBatchPos)
	mDims := dimsAt(lhs.view.Shape, lhsMPos)
	nDims := dimsAt(rhs.view.Shape, rhsNPos)
	kDims := dimsAt(lhs.view.Shape, lhsKPos)

	m := max1(tensors.NumElements(mDims))
	k := max1(tensors.NumElements(kDims))
	n := max1(tensors.NumElements(nDims))

	lhsPerm := concatInts(lhsBatchPos, lhsMPos, lhsKPos)
	rhsPerm := concatInts(rhsBatchPos, rhsKPos, rhsNPos)
	lhsTarget := append(append([]int(nil), batchDims...), m, k)
	rhsTarget := append(append([]int(nil), batchDims...), k, n)

	lhsPrep, err := e.prepOperand(lhs.view, lhsPerm, lhsTarget, step)
	if err != nil {
		return nil, err
	}
	rhsPrep, err := e.prepOperand(rhs.view, rhsPerm, rhsTarget, step)
	if err != nil {
		return nil, err
	}

	resultIdx := concatRunes(batchRunes, mRunes, nRunes)
	resultShape := concatInts(batchDims, mDims, nDims)
	gemmShape := append(append([]int(nil), batchDims...), m, n)

	klog.V(2).Infof("einsum exec: contraction %s·%s over %s -> %s",
		string(lhs.indices), string(rhs.indices), string(contracted), string(resultIdx))

	if dest == nil {
		ws, err := e.ws.Alloc(lhs.view.DType, resultShape, step)
		if err != nil {
			return nil, err
		}
		if err := e.backend.Matmul(lhsPrep, rhsPrep, ws.Reshape(gemmShape), e.opts.Matmul); err != nil {
			return nil, err
		}
		e.ws.Release(lhsPrep, step)
		e.ws.Release(rhsPrep, step)
		return &tracked{view: ws, indices: resultIdx}, nil
	}

	err = e.intoDest(dest, destIdx, resultIdx, resultShape, step,
		func(target *tensors.View) error {
			// target is contiguous in result order; reinterpret it with the
			// merged [batch…, M, N] shape (covers rank < 2 outputs too).
			return e.backend.Matmul(lhsPrep, rhsPrep, target.Reshape(gemmShape), e.opts.Matmul)
		})
	if err != nil {
		return nil, err
	}
	e.ws.Release(lhsPrep, step)
	e.ws.Release(rhsPrep, step)
	return nil, nil
}

// prepOperand brings an operand into the [leading…, merged, merged] GEMM
// layout. Permutation without axis merging stays a zero-copy stride view;
// merging on a contiguous view is a metadata rewrite; both together
// materialize through the copy-reshape kernel.
func (e *Executor) prepOperand(v *tensors.View, perm, target []int, step int) (*tensors.View, error) {
	permuted := v
	if !tensors.IsIdentityPermutation(perm) {
		permuted = v.Permute(perm)
	}
	if tensors.SameShape(permuted.Shape, target) {
		return permuted, nil // strides carry the layout, GEMM honors them
	}
	if permuted.IsContiguous() {
		return permuted.Reshape(target), nil
	}

	dense, err := e.ws.Alloc(v.DType, target, step)
	if err != nil {
		return nil, err
	}
	if err := kernels.CopyReshape(permuted, dense); err != nil {
		return nil, err
	}
	return dense, nil
}

// broadcastPair handles a contraction-free pair: elementwise multiply with
// stride-0 broadcast axes. One operand's index set must contain the
// other's; disjoint-but-overlapping layouts are unsupported.
func (e *Executor) broadcastPair(lhs, rhs *tracked,
	dest *tensors.View, destIdx []rune, step int) (*tracked, error) {
	big, small := lhs, rhs
	if len(rhs.indices) > len(lhs.indices) {
		big, small = rhs, lhs
	}
	for _, r := range small.indices {
		if runePosition(big.indices, r) < 0 {
			return nil, backends.Unsupportedf(
				"broadcast multiply with partially overlapping indices %s x %s",
				string(lhs.indices), string(rhs.indices))
		}
	}

	// Expand the smaller operand to the larger's order, stride 0 on the
	// axes it lacks.
	expanded := small.view.Clone()
	expanded.Shape = make([]int, len(big.indices))
	expanded.Strides = make([]int, len(big.indices))
	for i, r := range big.indices {
		if pos := runePosition(small.indices, r); pos >= 0 {
			expanded.Shape[i] = small.view.Shape[pos]
			expanded.Strides[i] = small.view.Strides[pos]
		} else {
			expanded.Shape[i] = big.view.Shape[i]
			expanded.Strides[i] = 0
		}
	}

	lhsAligned, rhsAligned := big.view, expanded
	if big != lhs {
		lhsAligned, rhsAligned = expanded, big.view
	}

	resultIdx := append([]rune(nil), big.indices...)
	resultShape := append([]int(nil), big.view.Shape...)

	if dest == nil {
		ws, err := e.ws.Alloc(big.view.DType, resultShape, step)
		if err != nil {
			return nil, err
		}
		if err := kernels.BroadcastMultiply(e.backend, lhsAligned, rhsAligned, ws); err != nil {
			return nil, err
		}
		return &tracked{view: ws, indices: resultIdx}, nil
	}

	err := e.intoDest(dest, destIdx, resultIdx, resultShape, step,
		func(target *tensors.View) error {
			return kernels.BroadcastMultiply(e.backend, lhsAligned, rhsAligned, target)
		})
	return nil, err
}

// reduceIntermediate sums axes out of a tracked tensor into a squeezed
// workspace tensor, returning the new view and its surviving indices.
func (e *Executor) reduceIntermediate(t *tracked, axes []int, step int) (*tensors.View, []rune, error) {
	axisSet := make(map[int]bool, len(axes))
	for _, a := range axes {
		axisSet[a] = true
	}
	var reducedShape []int
	var reducedIdx []rune
	for i, d := range t.view.Shape {
		if !axisSet[i] {
			reducedShape = append(reducedShape, d)
			if i < len(t.indices) {
				reducedIdx = append(reducedIdx, t.indices[i])
			}
		}
	}

	ws, err := e.ws.Alloc(t.view.DType, reducedShape, step)
	if err != nil {
		return nil, nil, err
	}
	if err := e.reduceInto(t.view, ws, axes, step); err != nil {
		return nil, nil, err
	}
	return ws, reducedIdx, nil
}

func runePosition(runes []rune, r rune) int {
	for i, x := range runes {
		if x == r {
			return i
		}
	}
	return -1
}

func dimsAt(shape []int, positions []int) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = shape[p]
	}
	return out
}

func concatInts(parts ...[]int) []int {
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func concatRunes(parts ...[]rune) []rune {
	var out []rune
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func max1(x int) int {
	if x < 1 {
		return 1
	}
	return x
}
