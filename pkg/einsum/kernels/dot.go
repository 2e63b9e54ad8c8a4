// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// DotProduct computes the scalar out = Σ lhs[k]·rhs[k] with a fused
// multiply plus per-block reduction. One block handles small inputs
// directly; larger inputs produce one partial sum per block and a second
// pass folds the partials; inputs beyond blockSize² elements get a third
// pass.
func DotProduct(lhs, rhs, out *tensors.View) error {
	if !tensors.SameShape(lhs.Shape, rhs.Shape) {
		return backends.Launchf("dot product requires same shape inputs, got %v and %v",
			lhs.Shape, rhs.Shape)
	}
	if out.Size() != 1 {
		return backends.Launchf("dot product output should be scalar, got size %d", out.Size())
	}
	if !lhs.IsContiguous() || !rhs.IsContiguous() {
		return backends.Launchf("dot product requires contiguous inputs")
	}

	n := lhs.Size()
	if n == 0 {
		return nil
	}

	lf, rf, of, err := binaryFlats(lhs, rhs, out)
	if err != nil {
		return err
	}

	switch o := of.(type) {
	case []float32:
		o[0] = dotBlocks(lf.([]float32), rf.([]float32), n)
	case []float64:
		o[0] = dotBlocks(lf.([]float64), rf.([]float64), n)
	case []uint16:
		a, b := lf.([]uint16), rf.([]uint16)
		var sum float32
		for k := 0; k < n; k++ {
			sum += f16to32(a[k]) * f16to32(b[k])
		}
		o[0] = f32to16(sum)
	default:
		return backends.Unsupportedf("element type %T", of)
	}
	return nil
}

// dotBlocks performs the block-structured fused multiply-reduce: partial
// sums per block of blockSize elements, then repeated folding of the
// partials until one value remains.
func dotBlocks[T float32 | float64](a, b []T, n int) T {
	blocks := numBlocks(n)
	if blocks == 1 {
		var sum T
		for k := 0; k < n; k++ {
			sum += a[k] * b[k]
		}
		return sum
	}

	partials := make([]T, blocks)
	for blk := 0; blk < blocks; blk++ {
		start := blk * blockSize
		end := start + blockSize
		if end > n {
			end = n
		}
		var sum T
		for k := start; k < end; k++ {
			sum += a[k] * b[k]
		}
		partials[blk] = sum
	}

	// Fold partial sums; a second level only triggers past blockSize²
	// input elements.
	for len(partials) > 1 {
		folded := make([]T, numBlocks(len(partials)))
		for blk := range folded {
			start := blk * blockSize
			end := start + blockSize
			if end > len(partials) {
				end = len(partials)
			}
			var sum T
			for k := start; k < end; k++ {
				sum += partials[k]
			}
			folded[blk] = sum
		}
		partials = folded
	}
	return partials[0]
}
