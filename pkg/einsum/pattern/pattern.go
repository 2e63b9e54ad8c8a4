// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pattern recognizes einsum expressions that map onto a known
// primitive (matmul, transpose, reduction, …) so the planner can skip the
// general contraction path.
package pattern

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
)

// Kind tags a recognized fast-path operation.
type Kind int

const (
	// KindMatmul is a rank-2 matrix multiplication, possibly transposed.
	KindMatmul Kind = iota
	// KindBatchedMatmul is a matmul with leading batch axes.
	KindBatchedMatmul
	// KindReduce sums one or more axes away.
	KindReduce
	// KindTranspose permutes axes without touching data.
	KindTranspose
	// KindHadamard multiplies two same-indexed tensors elementwise.
	KindHadamard
	// KindOuterProduct multiplies tensors with disjoint indices.
	KindOuterProduct
	// KindDotProduct contracts two same-indexed tensors to a scalar.
	KindDotProduct
	// KindTrace sums the diagonal to a scalar.
	KindTrace
	// KindDiagonalExtract reads the diagonal into a lower-rank tensor.
	KindDiagonalExtract
)

//go:generate go tool enumer -type=Kind -trimprefix=Kind -transform=snake -output=kind_enumer.go

// FastPath describes a recognized operation together with the parameters
// its dispatcher needs.
type FastPath struct {
	Kind Kind

	// TransposeA / TransposeB apply to the matmul kinds: the operand's last
	// two axes are stride-swapped before the GEMM call.
	TransposeA bool
	TransposeB bool
	// BatchDims lists the leading batch axis positions (batched matmul).
	BatchDims []int

	// Axes lists the input axes removed by a reduction.
	Axes []int
	// Op is the reduction operation; einsum only produces sums.
	Op backends.ReduceOp

	// Permutation maps output axis k to input axis Permutation[k]
	// (transpose).
	Permutation []int

	// MDim and NDim are the output positions of the matmul M and N axes;
	// the dispatcher writes through a swapped output view when the output
	// lists N before M.
	MDim int
	NDim int
}

// IsMatmul reports a (batched) matrix multiplication.
func (fp *FastPath) IsMatmul() bool {
	return fp.Kind == KindMatmul || fp.Kind == KindBatchedMatmul
}

// IsUnary reports a single-input operation.
func (fp *FastPath) IsUnary() bool {
	switch fp.Kind {
	case KindReduce, KindTranspose, KindTrace, KindDiagonalExtract:
		return true
	}
	return false
}

// Name returns the operation's short name.
func (fp *FastPath) Name() string { return fp.Kind.String() }

// Recognize classifies a notation into at most one fast path. Matching
// order, first match wins:
//
//	unary:  transpose, trace, diagonal extract, reduce
//	binary: batched matmul, matmul, hadamard, outer product, dot product
//
// Everything else falls through to the general planner (nil return).
func Recognize(n *notation.Notation) *FastPath {
	if n.HasEllipsis() {
		// Callers expand the ellipsis into explicit batch indices first.
		return nil
	}

	if n.IsUnary() {
		if perm := isTranspose(n); perm != nil {
			return &FastPath{Kind: KindTranspose, Permutation: perm}
		}
		if isTrace(n) {
			return &FastPath{Kind: KindTrace}
		}
		if isDiagonalExtract(n) {
			return &FastPath{Kind: KindDiagonalExtract}
		}
		if axes := isReduction(n); axes != nil {
			return &FastPath{Kind: KindReduce, Axes: axes, Op: backends.ReduceSum}
		}
		return nil
	}

	if n.IsBinary() {
		if cfg := isBatchedMatmul(n); cfg != nil {
			return &FastPath{
				Kind:       KindBatchedMatmul,
				TransposeA: cfg.TransposeA,
				TransposeB: cfg.TransposeB,
				BatchDims:  cfg.BatchDims,
				MDim:       cfg.MDim,
				NDim:       cfg.NDim,
			}
		}
		if cfg := isMatmul(n); cfg != nil {
			return &FastPath{
				Kind:       KindMatmul,
				TransposeA: cfg.TransposeA,
				TransposeB: cfg.TransposeB,
				MDim:       cfg.MDim,
				NDim:       cfg.NDim,
			}
		}
		if isHadamard(n) {
			return &FastPath{Kind: KindHadamard}
		}
		if isOuterProduct(n) {
			return &FastPath{Kind: KindOuterProduct}
		}
		if isDotProduct(n) {
			return &FastPath{Kind: KindDotProduct}
		}
	}

	return nil
}
