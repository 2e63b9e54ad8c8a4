// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// DiagonalExtract reads the diagonal of the trailing N×N block:
// out[b·N + i] = in[b…, i, i], batch being the product of the leading
// axes. The diagonal is walked with stride rowStride+colStride, so
// transposed and otherwise strided views work unchanged.
func DiagonalExtract(in, out *tensors.View) error {
	if in.Rank() < 2 {
		return backends.Launchf("diagonal requires at least 2D input")
	}

	ndim := in.Rank()
	rows, cols := in.Shape[ndim-2], in.Shape[ndim-1]
	if rows != cols {
		return backends.Launchf("diagonal requires square matrix, got %dx%d", rows, cols)
	}

	n := rows
	if n == 0 {
		return nil
	}

	batch := 1
	for _, d := range in.Shape[:ndim-2] {
		batch *= d
	}

	if out.Size() != batch*n {
		return backends.Launchf("diagonal output size mismatch: expected %d, got %d",
			batch*n, out.Size())
	}
	if !out.IsContiguous() {
		return backends.Launchf("diagonal requires a contiguous output")
	}

	inf, err := hostFlat(in)
	if err != nil {
		return err
	}
	of, err := hostFlat(out)
	if err != nil {
		return err
	}

	diagStride := in.Strides[ndim-2] + in.Strides[ndim-1]
	batchOffset := coordOffset(in.Shape[:ndim-2], in.Strides[:ndim-2])

	return copyInto(inf, of, batch*n, func(k int) int {
		return batchOffset(k/n) + (k%n)*diagStride
	})
}
