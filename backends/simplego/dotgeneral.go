// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simplego

import (
	"github.com/x448/float16"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// Matmul computes out[b…, m, n] = Σ_k lhs[b…, m, k]·rhs[b…, k, n] for any
// number of leading batch axes, honoring the strides of all three views —
// transposed (stride-swapped) and broadcast (stride-0) operands included.
//
// A dense float32 [M,K]×[K,N] fast path runs with an unrolled inner loop;
// everything else goes through the general strided walk.
func (b *Backend) Matmul(lhs, rhs, out *tensors.View, opts backends.MatmulOptions) error {
	rank := out.Rank()
	if rank < 2 || lhs.Rank() != rank || rhs.Rank() != rank {
		return backends.Shapef("matmul rank mismatch: lhs %d, rhs %d, out %d",
			lhs.Rank(), rhs.Rank(), rank)
	}
	if lhs.DType != rhs.DType || lhs.DType != out.DType {
		return backends.Launchf("matmul mixed element types: %s, %s -> %s",
			lhs.DType, rhs.DType, out.DType)
	}

	m, k := lhs.Shape[rank-2], lhs.Shape[rank-1]
	k2, n := rhs.Shape[rank-2], rhs.Shape[rank-1]
	if k != k2 {
		return backends.Shapef("matmul contracted size mismatch: %d vs %d", k, k2)
	}
	if out.Shape[rank-2] != m || out.Shape[rank-1] != n {
		return backends.Shapef("matmul output shape %v, want [..., %d, %d]",
			out.Shape, m, n)
	}
	batchShape := out.Shape[:rank-2]
	for i, d := range batchShape {
		if lhs.Shape[i] != d || rhs.Shape[i] != d {
			return backends.Shapef("matmul batch dim %d mismatch: lhs %d, rhs %d, out %d",
				i, lhs.Shape[i], rhs.Shape[i], d)
		}
	}

	if out.IsEmpty() || k == 0 {
		return nil
	}

	if lhs.DType == dtypes.Float32 &&
		lhs.IsContiguous() && rhs.IsContiguous() && out.IsContiguous() {
		matmulFastF32(lhs, rhs, out, batchShape, m, k, n)
		return nil
	}

	return matmulStrided(lhs, rhs, out, batchShape, m, k, n)
}

// matmulFastF32 is the dense float32 path: contiguous layouts reduce every
// address computation to base + offset, and the inner loop is unrolled
// 8-wide.
func matmulFastF32(lhs, rhs, out *tensors.View, batchShape []int, m, k, n int) {
	lhsFlat := Flat32(lhs)
	rhsFlat := Flat32(rhs)
	outFlat := Flat32(out)

	batchSize := tensors.NumElements(batchShape)
	lhsBatchStride := m * k
	rhsBatchStride := k * n
	outBatchStride := m * n

	for batch := 0; batch < batchSize; batch++ {
		lhsBase := batch * lhsBatchStride
		rhsBase := batch * rhsBatchStride
		outBase := batch * outBatchStride

		for row := 0; row < m; row++ {
			lhsRow := lhsBase + row*k
			outRow := outBase + row*n

			for col := 0; col < n; col++ {
				var sum float32
				kk := 0
				for ; kk+7 < k; kk += 8 {
					sum += lhsFlat[lhsRow+kk]*rhsFlat[rhsBase+kk*n+col] +
						lhsFlat[lhsRow+kk+1]*rhsFlat[rhsBase+(kk+1)*n+col] +
						lhsFlat[lhsRow+kk+2]*rhsFlat[rhsBase+(kk+2)*n+col] +
						lhsFlat[lhsRow+kk+3]*rhsFlat[rhsBase+(kk+3)*n+col] +
						lhsFlat[lhsRow+kk+4]*rhsFlat[rhsBase+(kk+4)*n+col] +
						lhsFlat[lhsRow+kk+5]*rhsFlat[rhsBase+(kk+5)*n+col] +
						lhsFlat[lhsRow+kk+6]*rhsFlat[rhsBase+(kk+6)*n+col] +
						lhsFlat[lhsRow+kk+7]*rhsFlat[rhsBase+(kk+7)*n+col]
				}
				for ; kk < k; kk++ {
					sum += lhsFlat[lhsRow+kk] * rhsFlat[rhsBase+kk*n+col]
				}
				outFlat[outRow+col] = sum
			}
		}
	}
}

// matmulStrided is the general path: walk batch coordinates and apply the
// per-axis strides of every operand.
func matmulStrided(lhs, rhs, out *tensors.View, batchShape []int, m, k, n int) error {
	rank := out.Rank()
	lhsMS, lhsKS := lhs.Strides[rank-2], lhs.Strides[rank-1]
	rhsKS, rhsNS := rhs.Strides[rank-2], rhs.Strides[rank-1]
	outMS, outNS := out.Strides[rank-2], out.Strides[rank-1]

	batchSize := tensors.NumElements(batchShape)
	coord := make([]int, len(batchShape))

	lhsBuf := lhs.Buffer.(*Buffer)
	rhsBuf := rhs.Buffer.(*Buffer)
	outBuf := out.Buffer.(*Buffer)

	for batch := 0; batch < batchSize; batch++ {
		lhsBase := tensors.Offset(coord, lhs.Strides[:rank-2])
		rhsBase := tensors.Offset(coord, rhs.Strides[:rank-2])
		outBase := tensors.Offset(coord, out.Strides[:rank-2])

		switch lhsFlat := lhsBuf.flat.(type) {
		case []float32:
			rhsFlat := rhsBuf.flat.([]float32)
			outFlat := outBuf.flat.([]float32)
			gemmTile(lhsFlat, rhsFlat, outFlat, lhsBase, rhsBase, outBase,
				m, k, n, lhsMS, lhsKS, rhsKS, rhsNS, outMS, outNS)
		case []float64:
			rhsFlat := rhsBuf.flat.([]float64)
			outFlat := outBuf.flat.([]float64)
			gemmTile(lhsFlat, rhsFlat, outFlat, lhsBase, rhsBase, outBase,
				m, k, n, lhsMS, lhsKS, rhsKS, rhsNS, outMS, outNS)
		case []uint16:
			rhsFlat := rhsBuf.flat.([]uint16)
			outFlat := outBuf.flat.([]uint16)
			gemmTileF16(lhsFlat, rhsFlat, outFlat, lhsBase, rhsBase, outBase,
				m, k, n, lhsMS, lhsKS, rhsKS, rhsNS, outMS, outNS)
		default:
			return backends.Unsupportedf("element type %T", lhsBuf.flat)
		}

		incrementCoord(coord, batchShape)
	}
	return nil
}

func gemmTile[T float32 | float64](lhs, rhs, out []T,
	lhsBase, rhsBase, outBase, m, k, n int,
	lhsMS, lhsKS, rhsKS, rhsNS, outMS, outNS int) {
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			var sum T
			lhsOff := lhsBase + row*lhsMS
			rhsOff := rhsBase + col*rhsNS
			for kk := 0; kk < k; kk++ {
				sum += lhs[lhsOff+kk*lhsKS] * rhs[rhsOff+kk*rhsKS]
			}
			out[outBase+row*outMS+col*outNS] = sum
		}
	}
}

// gemmTileF16 accumulates float16 operands in float32.
func gemmTileF16(lhs, rhs, out []uint16,
	lhsBase, rhsBase, outBase, m, k, n int,
	lhsMS, lhsKS, rhsKS, rhsNS, outMS, outNS int) {
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			var sum float32
			lhsOff := lhsBase + row*lhsMS
			rhsOff := rhsBase + col*rhsNS
			for kk := 0; kk < k; kk++ {
				sum += float16.Frombits(lhs[lhsOff+kk*lhsKS]).Float32() *
					float16.Frombits(rhs[rhsOff+kk*rhsKS]).Float32()
			}
			out[outBase+row*outMS+col*outNS] = float16.Fromfloat32(sum).Bits()
		}
	}
}

// incrementCoord advances a row-major coordinate by one position.
func incrementCoord(coord, shape []int) {
	for i := len(coord) - 1; i >= 0; i-- {
		coord[i]++
		if coord[i] < shape[i] {
			return
		}
		coord[i] = 0
	}
}
