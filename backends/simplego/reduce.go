// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simplego

import (
	"github.com/x448/float16"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// Reduce folds one axis of in into out, which keeps the reduced axis with
// size 1 (keep-dim). Input strides are honored; the output must be
// contiguous.
func (b *Backend) Reduce(in, out *tensors.View, axis int, op backends.ReduceOp) error {
	if axis < 0 || axis >= in.Rank() {
		return backends.Shapef("reduce axis %d out of range for rank %d", axis, in.Rank())
	}
	if out.Rank() != in.Rank() || out.Shape[axis] != 1 {
		return backends.Shapef("reduce output must keep axis %d at size 1, got %v",
			axis, out.Shape)
	}
	for i := range in.Shape {
		if i != axis && out.Shape[i] != in.Shape[i] {
			return backends.Shapef("reduce output dim %d is %d, want %d",
				i, out.Shape[i], in.Shape[i])
		}
	}
	if op != backends.ReduceSum {
		return backends.Unsupportedf("reduce op %s", op)
	}
	if !out.IsContiguous() {
		return backends.Launchf("reduce requires a contiguous output")
	}
	if in.IsEmpty() {
		return nil
	}

	outer := 1
	for _, d := range in.Shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range in.Shape[axis+1:] {
		inner *= d
	}
	reduced := in.Shape[axis]

	outerOffset := coordOffsetFor(in.Shape[:axis], in.Strides[:axis])
	innerOffset := coordOffsetFor(in.Shape[axis+1:], in.Strides[axis+1:])
	axisStride := in.Strides[axis]

	inBuf := in.Buffer.(*Buffer)
	outBuf := out.Buffer.(*Buffer)

	switch inFlat := inBuf.flat.(type) {
	case []float32:
		reduceSum(inFlat, outBuf.flat.([]float32), outer, inner, reduced,
			outerOffset, innerOffset, axisStride)
	case []float64:
		reduceSum(inFlat, outBuf.flat.([]float64), outer, inner, reduced,
			outerOffset, innerOffset, axisStride)
	case []uint16:
		outFlat := outBuf.flat.([]uint16)
		for o := 0; o < outer; o++ {
			for i := 0; i < inner; i++ {
				base := outerOffset(o) + innerOffset(i)
				var sum float32
				for r := 0; r < reduced; r++ {
					sum += float16.Frombits(inFlat[base+r*axisStride]).Float32()
				}
				outFlat[o*inner+i] = float16.Fromfloat32(sum).Bits()
			}
		}
	default:
		return backends.Unsupportedf("element type %T", inBuf.flat)
	}
	return nil
}

func reduceSum[T float32 | float64](in, out []T, outer, inner, reduced int,
	outerOffset, innerOffset func(int) int, axisStride int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := outerOffset(o) + innerOffset(i)
			var sum T
			for r := 0; r < reduced; r++ {
				sum += in[base+r*axisStride]
			}
			out[o*inner+i] = sum
		}
	}
}

// coordOffsetFor maps a linear index over shape to a flat offset under
// strides, row-major.
func coordOffsetFor(shape, strides []int) func(int) int {
	dims := append([]int(nil), shape...)
	strs := append([]int(nil), strides...)
	return func(k int) int {
		off := 0
		for i := len(dims) - 1; i >= 0; i-- {
			off += (k % dims[i]) * strs[i]
			k /= dims[i]
		}
		return off
	}
}
